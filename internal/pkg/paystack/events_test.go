package paystack

import "testing"

func TestParseWebhookPayload_Shapes(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		wantEventID   string
		wantEventName string
		wantReference string
		wantStatus    string
	}{
		{
			name:          "root id with data reference",
			body:          `{"id":"evt_123","event":"charge.success","data":{"reference":"dc-1-0001","status":"success"}}`,
			wantEventID:   "evt_123",
			wantEventName: "charge.success",
			wantReference: "dc-1-0001",
			wantStatus:    "success",
		},
		{
			name:          "numeric data id",
			body:          `{"event":"charge.success","data":{"id":302961,"reference":"dc-2-0002","status":"success"}}`,
			wantEventID:   "302961",
			wantEventName: "charge.success",
			wantReference: "dc-2-0002",
			wantStatus:    "success",
		},
		{
			name:          "nested transaction",
			body:          `{"event":"transfer.success","data":{"transaction":{"id":"trx_9","reference":"dc-3-0003","status":"success"}}}`,
			wantEventID:   "trx_9",
			wantEventName: "transfer.success",
			wantReference: "dc-3-0003",
			wantStatus:    "success",
		},
		{
			name:          "trxref fallback",
			body:          `{"event":"charge.success","data":{"id":"evt_t","trxref":"dc-4-0004"}}`,
			wantEventID:   "evt_t",
			wantEventName: "charge.success",
			wantReference: "dc-4-0004",
		},
		{
			name:          "synthesized id",
			body:          `{"event":"charge.success","data":{"reference":"dc-5-0005","status":"success"}}`,
			wantEventID:   "charge.success-dc-5-0005",
			wantEventName: "charge.success",
			wantReference: "dc-5-0005",
			wantStatus:    "success",
		},
		{
			name:        "synthesized id without reference or event",
			body:        `{"data":{"status":"failed"}}`,
			wantEventID: "unknown-no-ref",
			wantStatus:  "failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := ParseWebhookPayload([]byte(tt.body))
			if err != nil {
				t.Fatalf("ParseWebhookPayload: %v", err)
			}
			ids := event.Identifiers
			if ids.EventID != tt.wantEventID {
				t.Fatalf("EventID = %q, want %q", ids.EventID, tt.wantEventID)
			}
			if ids.EventName != tt.wantEventName {
				t.Fatalf("EventName = %q, want %q", ids.EventName, tt.wantEventName)
			}
			if ids.Reference != tt.wantReference {
				t.Fatalf("Reference = %q, want %q", ids.Reference, tt.wantReference)
			}
			if ids.Status != tt.wantStatus {
				t.Fatalf("Status = %q, want %q", ids.Status, tt.wantStatus)
			}
		})
	}
}

func TestParseWebhookPayload_AmountAndMetadata(t *testing.T) {
	body := `{"id":"evt_m","event":"charge.success","data":{"reference":"dc-6","amount":5000,"metadata":{"credits":75}}}`
	event, err := ParseWebhookPayload([]byte(body))
	if err != nil {
		t.Fatalf("ParseWebhookPayload: %v", err)
	}
	if event.AmountCents != 5000 {
		t.Fatalf("AmountCents = %d, want 5000", event.AmountCents)
	}
	if event.MetadataCredit != 75 {
		t.Fatalf("MetadataCredit = %d, want 75", event.MetadataCredit)
	}
}

func TestParseWebhookPayload_SynthesizedIDIsStable(t *testing.T) {
	body := []byte(`{"event":"charge.success","data":{"reference":"dc-7-0007"}}`)
	first, err := ParseWebhookPayload(body)
	if err != nil {
		t.Fatalf("ParseWebhookPayload: %v", err)
	}
	second, err := ParseWebhookPayload(body)
	if err != nil {
		t.Fatalf("ParseWebhookPayload: %v", err)
	}
	if first.Identifiers.EventID != second.Identifiers.EventID {
		t.Fatalf("synthesized ids differ: %q vs %q", first.Identifiers.EventID, second.Identifiers.EventID)
	}
}

func TestParseWebhookPayload_InvalidJSON(t *testing.T) {
	if _, err := ParseWebhookPayload([]byte("{not json")); err == nil {
		t.Fatalf("expected error for invalid JSON")
	}
}
