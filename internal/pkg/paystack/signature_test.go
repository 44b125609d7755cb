package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strings"
	"testing"
)

func signBody(body []byte, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature(t *testing.T) {
	body := []byte(`{"event":"charge.success","data":{"reference":"dc-1"}}`)
	secret := "sk_test_secret"

	if !VerifyWebhookSignature(body, signBody(body, secret), secret) {
		t.Fatalf("expected valid signature to verify")
	}
	if !VerifyWebhookSignature(body, strings.ToUpper(signBody(body, secret)), secret) {
		t.Fatalf("expected uppercase hex signature to verify")
	}
	if VerifyWebhookSignature(body, signBody(body, "other-secret"), secret) {
		t.Fatalf("expected signature from wrong secret to fail")
	}
	if VerifyWebhookSignature([]byte(`{"event":"tampered"}`), signBody(body, secret), secret) {
		t.Fatalf("expected tampered body to fail")
	}
	if VerifyWebhookSignature(body, "", secret) {
		t.Fatalf("expected empty signature to fail")
	}
	if VerifyWebhookSignature(body, "not-hex!", secret) {
		t.Fatalf("expected non-hex signature to fail")
	}
	if VerifyWebhookSignature(body, signBody(body, ""), "") {
		t.Fatalf("expected empty secret to fail closed")
	}
}
