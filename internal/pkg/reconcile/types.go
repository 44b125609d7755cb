package reconcile

import (
	"context"
	"errors"

	"github.com/dollarchain/creditrail/app/models"
	"github.com/dollarchain/creditrail/internal/pkg/ledger"
	"github.com/dollarchain/creditrail/internal/pkg/paystack"
)

// Outcome kinds. Every webhook delivery resolves to exactly one of
// these; the HTTP layer maps them to status codes without inspecting
// reconciler internals.
const (
	OutcomeRejectedSignature = "invalid_signature"
	OutcomeRejectedPayload   = "invalid_payload"
	OutcomeNoReference       = "no_reference_logged"
	OutcomeDuplicate         = "duplicate"
	OutcomeIgnored           = "event_ignored"
	OutcomeQueued            = "queued"
	OutcomeAlreadyProcessed  = "already_processed"
	OutcomeNotSuccessful     = "not_successful"
	OutcomeCredited          = "credited"
	OutcomeOrderNotFound     = "order_not_found"
	OutcomeUpstreamError     = "upstream_error"
)

// Outcome is the terminal state of one notification's pass through the
// reconciliation state machine.
type Outcome struct {
	Kind         string
	HTTPStatus   int
	Reference    string
	EventID      string
	CreditsAdded int64
	NewBalance   int64
	Err          error
}

// ErrOrderAlreadyProcessed is returned by CreditOrder when the locked
// order row turns out to be processed already; callers treat it as a
// successful no-op.
var ErrOrderAlreadyProcessed = errors.New("order already processed")

// ProviderVerifier is the authoritative transaction-status lookup.
// Webhook payloads are never trusted without this cross-check.
type ProviderVerifier interface {
	VerifyTransaction(ctx context.Context, reference string) (*paystack.VerifyResult, error)
}

// Repository provides the durable operations the reconciler composes.
type Repository interface {
	// CreateProcessedEventIfNew inserts the dedup row; created=false
	// means this exact event id was already handled.
	CreateProcessedEventIfNew(event *models.ProcessedEvent) (bool, error)
	FindOrderByReference(reference string) (*models.Order, error)

	// CreditOrder atomically marks the order processed, applies the
	// ledger delta and removes any retry entry for eventID.
	CreditOrder(orderID uint, eventID string, p ledger.DeltaParams) (*ledger.Result, error)

	UpsertRetryEntry(entry *models.WebhookRetryEntry) error
	TouchRetryEntry(eventID string) error
	DeleteRetryEntry(eventID string) error
	ListRetryEntries(limit int) ([]models.WebhookRetryEntry, error)

	RecordPaymentEvent(event *models.PaymentEvent) error

	// ListUnfinishedChargeEvents finds successful-charge dedup rows
	// whose order exists but was never marked processed (crash between
	// dedup commit and credit application).
	ListUnfinishedChargeEvents(limit int) ([]models.ProcessedEvent, error)
}
