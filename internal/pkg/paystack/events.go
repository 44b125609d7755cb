package paystack

import (
	"encoding/json"
	"strconv"
	"strings"
)

// EventChargeSuccess is the only event type that triggers a credit.
const EventChargeSuccess = "charge.success"

// EventIdentifiers are the routing fields pulled out of a webhook
// payload. EventID may be synthesized when the provider supplies none;
// synthesized ids are deterministic so redeliveries still deduplicate.
type EventIdentifiers struct {
	EventID   string
	EventName string
	Reference string
	Status    string
}

// flexID accepts ids sent either as JSON numbers or strings.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		*f = ""
		return nil
	}
	if s[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*f = flexID(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if i, err := n.Int64(); err == nil {
		*f = flexID(strconv.FormatInt(i, 10))
	} else {
		*f = flexID(n.String())
	}
	return nil
}

// webhookPayload mirrors the payload shapes Paystack has been observed
// to send; identifiers sometimes live at the root, sometimes under data
// or data.transaction.
type webhookPayload struct {
	ID        flexID `json:"id"`
	EventID   flexID `json:"event_id"`
	Event     string `json:"event"`
	EventName string `json:"event_name"`
	Reference string `json:"reference"`
	Data      struct {
		ID          flexID `json:"id"`
		Reference   string `json:"reference"`
		Trxref      string `json:"trxref"`
		Status      string `json:"status"`
		Amount      int64  `json:"amount"`
		Transaction struct {
			ID        flexID `json:"id"`
			Reference string `json:"reference"`
			Status    string `json:"status"`
		} `json:"transaction"`
		Metadata struct {
			Credits int64 `json:"credits"`
		} `json:"metadata"`
	} `json:"data"`
}

// WebhookEvent is a parsed notification ready for the reconciler.
type WebhookEvent struct {
	Identifiers    EventIdentifiers
	AmountCents    int64
	MetadataCredit int64
}

// ParseWebhookPayload decodes the raw body. It must only be called
// after the signature check has passed.
func ParseWebhookPayload(rawBody []byte) (*WebhookEvent, error) {
	var p webhookPayload
	if err := json.Unmarshal(rawBody, &p); err != nil {
		return nil, err
	}

	return &WebhookEvent{
		Identifiers:    extractIdentifiers(&p),
		AmountCents:    p.Data.Amount,
		MetadataCredit: p.Data.Metadata.Credits,
	}, nil
}

func extractIdentifiers(p *webhookPayload) EventIdentifiers {
	eventName := firstNonEmpty(p.Event, p.EventName)

	reference := firstNonEmpty(
		p.Data.Reference,
		p.Data.Transaction.Reference,
		p.Data.Trxref,
		p.Reference,
	)

	eventID := firstNonEmpty(
		string(p.ID),
		string(p.EventID),
		string(p.Data.ID),
		string(p.Data.Transaction.ID),
	)
	if eventID == "" {
		// No provider id: synthesize deterministically so redelivered
		// copies of the same event still collide on the dedup gate.
		// Perfect dedup is impossible without a real id.
		ref := reference
		if ref == "" {
			ref = "no-ref"
		}
		name := eventName
		if name == "" {
			name = "unknown"
		}
		eventID = name + "-" + ref
	}

	status := firstNonEmpty(p.Data.Status, p.Data.Transaction.Status)

	return EventIdentifiers{
		EventID:   eventID,
		EventName: eventName,
		Reference: reference,
		Status:    status,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
