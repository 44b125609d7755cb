package controllers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dollarchain/creditrail/internal/pkg/env"
	"github.com/dollarchain/creditrail/internal/pkg/reconcile"
)

func TestSyntheticEmail(t *testing.T) {
	env.Env = map[string]string{"PUBLIC_DOMAIN": "https://pay.example.com/"}
	defer func() { env.Env = nil }()

	assert.Equal(t, "no-email-client-1@pay.example.com", syntheticEmail("client-1"))

	env.Env = map[string]string{}
	assert.Equal(t, "no-email-client-1@example.com", syntheticEmail("client-1"))
}

func TestWebhookSecretFallsBackToAPIKey(t *testing.T) {
	env.Env = map[string]string{"PAYSTACK_SECRET_KEY": "sk_live_abc"}
	defer func() { env.Env = nil }()

	assert.Equal(t, "sk_live_abc", webhookSecret())

	env.Env["PAYSTACK_WEBHOOK_SECRET"] = "whsec_override"
	assert.Equal(t, "whsec_override", webhookSecret())
}

func TestWebhookResponseBody(t *testing.T) {
	credited := webhookResponseBody(&reconcile.Outcome{
		Kind:         reconcile.OutcomeCredited,
		CreditsAdded: 50,
		NewBalance:   150,
	})
	assert.Equal(t, true, credited["ok"])
	assert.Equal(t, int64(50), credited["credits_added"])
	assert.Equal(t, int64(150), credited["new_balance"])

	duplicate := webhookResponseBody(&reconcile.Outcome{Kind: reconcile.OutcomeDuplicate})
	assert.Equal(t, true, duplicate["duplicate"])

	queued := webhookResponseBody(&reconcile.Outcome{Kind: reconcile.OutcomeQueued})
	assert.Equal(t, true, queued["queued"])

	rejected := webhookResponseBody(&reconcile.Outcome{Kind: reconcile.OutcomeRejectedSignature})
	assert.Equal(t, "invalid_signature", rejected["error"])

	noRef := webhookResponseBody(&reconcile.Outcome{Kind: reconcile.OutcomeNoReference})
	assert.Equal(t, "no_reference_logged", noRef["note"])
}
