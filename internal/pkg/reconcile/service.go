package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/dollarchain/creditrail/app/models"
	"github.com/dollarchain/creditrail/internal/pkg/ledger"
	"github.com/dollarchain/creditrail/internal/pkg/paystack"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

// minorUnitsPerCredit maps a verified payment amount to credits when an
// order carries no explicit credit count (provider amounts are in minor
// currency units).
const minorUnitsPerCredit = 100

// Service drives a notification through the reconciliation state
// machine: signature check, dedup, order resolution, independent
// provider verification and atomic credit application.
type Service struct {
	repo          Repository
	provider      ProviderVerifier
	webhookSecret string
}

// NewService creates a reconciler from injected dependencies.
func NewService(repo Repository, provider ProviderVerifier, webhookSecret string) *Service {
	return &Service{repo: repo, provider: provider, webhookSecret: webhookSecret}
}

// NewServiceFromDB creates a reconciler from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, provider ProviderVerifier, webhookSecret string) *Service {
	return NewService(NewRepository(db), provider, webhookSecret)
}

// ProcessWebhook handles one provider delivery. rawBody must be the
// unparsed request bytes; the signature is validated over them before
// anything is decoded.
func (s *Service) ProcessWebhook(ctx context.Context, rawBody []byte, signature string) *Outcome {
	if !paystack.VerifyWebhookSignature(rawBody, signature, s.webhookSecret) {
		return &Outcome{Kind: OutcomeRejectedSignature, HTTPStatus: 401}
	}

	event, err := paystack.ParseWebhookPayload(rawBody)
	if err != nil {
		return &Outcome{Kind: OutcomeRejectedPayload, HTTPStatus: 400, Err: err}
	}
	ids := event.Identifiers

	if ids.Reference == "" {
		// Unroutable payload: keep the raw event for manual inspection
		// and acknowledge so the provider stops redelivering it.
		s.recordPaymentEvent(&models.PaymentEvent{
			EventID:        ids.EventID,
			EventName:      ids.EventName,
			Status:         ids.Status,
			RawPayloadJSON: string(rawBody),
		})
		return &Outcome{Kind: OutcomeNoReference, HTTPStatus: 200, EventID: ids.EventID}
	}

	created, err := s.repo.CreateProcessedEventIfNew(&models.ProcessedEvent{
		EventID:     ids.EventID,
		EventName:   ids.EventName,
		Reference:   ids.Reference,
		Status:      ids.Status,
		PayloadJSON: string(rawBody),
	})
	if err != nil {
		// The dedup row did not commit, so the provider's own retry is
		// still the delivery guarantee; surface a server error.
		return &Outcome{Kind: OutcomeUpstreamError, HTTPStatus: 500, Reference: ids.Reference, EventID: ids.EventID, Err: err}
	}
	if !created {
		return &Outcome{Kind: OutcomeDuplicate, HTTPStatus: 200, Reference: ids.Reference, EventID: ids.EventID}
	}

	if ids.EventName != paystack.EventChargeSuccess {
		return &Outcome{Kind: OutcomeIgnored, HTTPStatus: 200, Reference: ids.Reference, EventID: ids.EventID}
	}

	// From here on the dedup row is committed and completion is our
	// responsibility, never the provider's retries.
	return s.completeCharge(ctx, ids, event.MetadataCredit, string(rawBody))
}

// VerifyReference is the synchronous re-verification path behind
// POST /payments/verify. It shares the order-resolution, verification
// and credit steps with the webhook machine.
func (s *Service) VerifyReference(ctx context.Context, reference string) *Outcome {
	order, err := s.repo.FindOrderByReference(reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &Outcome{Kind: OutcomeOrderNotFound, HTTPStatus: 404, Reference: reference}
		}
		return &Outcome{Kind: OutcomeUpstreamError, HTTPStatus: 500, Reference: reference, Err: err}
	}
	if order.WebhookProcessed {
		return &Outcome{Kind: OutcomeAlreadyProcessed, HTTPStatus: 200, Reference: reference}
	}

	verify, err := s.provider.VerifyTransaction(ctx, reference)
	if err != nil {
		// Synchronous callers handle their own retries.
		return &Outcome{Kind: OutcomeUpstreamError, HTTPStatus: 502, Reference: reference, Err: err}
	}
	if verify.Status != "success" {
		return &Outcome{Kind: OutcomeNotSuccessful, HTTPStatus: 200, Reference: reference}
	}

	return s.credit(order, "", creditsFor(order, 0, verify.AmountCents), reference, verify.RawJSON)
}

// completeCharge runs steps 5-8 of the machine for a deduplicated
// successful-charge event: order resolution, idempotent short-circuit,
// independent verification, atomic credit.
func (s *Service) completeCharge(ctx context.Context, ids paystack.EventIdentifiers, metadataCredits int64, payloadJSON string) *Outcome {
	order, err := s.repo.FindOrderByReference(ids.Reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Legitimate race: the webhook outran order creation.
			s.queueRetry(ids, payloadJSON)
			return &Outcome{Kind: OutcomeQueued, HTTPStatus: 202, Reference: ids.Reference, EventID: ids.EventID}
		}
		// Transient storage trouble after dedup committed: queue and
		// acknowledge, the drainer and recovery sweep own completion now.
		log.Errorf("reconcile: order lookup failed for %s: %v", ids.Reference, err)
		s.queueRetry(ids, payloadJSON)
		return &Outcome{Kind: OutcomeQueued, HTTPStatus: 202, Reference: ids.Reference, EventID: ids.EventID, Err: err}
	}

	if order.WebhookProcessed {
		s.dropRetryEntry(ids.EventID)
		return &Outcome{Kind: OutcomeAlreadyProcessed, HTTPStatus: 200, Reference: ids.Reference, EventID: ids.EventID}
	}

	verify, err := s.provider.VerifyTransaction(ctx, ids.Reference)
	if err != nil {
		log.Warnf("reconcile: provider verification failed for %s, queueing: %v", ids.Reference, err)
		s.queueRetry(ids, payloadJSON)
		return &Outcome{Kind: OutcomeQueued, HTTPStatus: 202, Reference: ids.Reference, EventID: ids.EventID, Err: err}
	}
	if verify.Status != "success" {
		// The authoritative status disagrees with the webhook; ack
		// without crediting and keep the evidence.
		s.recordPaymentEvent(&models.PaymentEvent{
			EventID:        ids.EventID,
			Reference:      ids.Reference,
			EventName:      ids.EventName,
			Status:         verify.Status,
			OrderID:        &order.ID,
			RawPayloadJSON: verify.RawJSON,
		})
		s.dropRetryEntry(ids.EventID)
		return &Outcome{Kind: OutcomeNotSuccessful, HTTPStatus: 200, Reference: ids.Reference, EventID: ids.EventID}
	}

	return s.credit(order, ids.EventID, creditsFor(order, metadataCredits, verify.AmountCents), ids.Reference, payloadJSON)
}

func (s *Service) credit(order *models.Order, eventID string, creditsToAdd int64, reference, metaJSON string) *Outcome {
	if creditsToAdd <= 0 {
		log.Errorf("reconcile: no credit amount derivable for order %d (reference %s)", order.ID, reference)
		s.dropRetryEntry(eventID)
		return &Outcome{
			Kind:       OutcomeNotSuccessful,
			HTTPStatus: 200,
			Reference:  reference,
			EventID:    eventID,
			Err:        fmt.Errorf("no credit amount derivable for order %d", order.ID),
		}
	}

	res, err := s.repo.CreditOrder(order.ID, eventID, ledger.DeltaParams{
		ClientID:         order.ClientID,
		Delta:            creditsToAdd,
		Source:           models.CreditSourceWebhook,
		Actor:            "paystack",
		Reason:           "payment",
		Reference:        reference,
		OrderID:          &order.ID,
		ProcessedEventID: eventID,
		MetaJSON:         metaJSON,
	})
	if err != nil {
		if errors.Is(err, ErrOrderAlreadyProcessed) {
			s.dropRetryEntry(eventID)
			return &Outcome{Kind: OutcomeAlreadyProcessed, HTTPStatus: 200, Reference: reference, EventID: eventID}
		}
		// Customer missing or storage trouble: the event stays queued
		// until a later pass can complete it.
		log.Errorf("reconcile: credit application failed for order %d: %v", order.ID, err)
		if eventID != "" {
			s.queueRetry(paystack.EventIdentifiers{
				EventID:   eventID,
				EventName: paystack.EventChargeSuccess,
				Reference: reference,
			}, metaJSON)
			return &Outcome{Kind: OutcomeQueued, HTTPStatus: 202, Reference: reference, EventID: eventID, Err: err}
		}
		return &Outcome{Kind: OutcomeUpstreamError, HTTPStatus: 500, Reference: reference, Err: err}
	}

	ledger.InvalidateBalanceCache(order.ClientID)

	s.recordPaymentEvent(&models.PaymentEvent{
		EventID:        eventID,
		Reference:      reference,
		EventName:      paystack.EventChargeSuccess,
		Status:         "success",
		OrderID:        &order.ID,
		RawPayloadJSON: metaJSON,
	})

	return &Outcome{
		Kind:         OutcomeCredited,
		HTTPStatus:   200,
		Reference:    reference,
		EventID:      eventID,
		CreditsAdded: creditsToAdd,
		NewBalance:   res.NewBalance,
	}
}

// creditsFor picks the credit amount: the order's recorded request
// wins, then payload metadata, then the verified amount mapped through
// the provider's minor-unit convention.
func creditsFor(order *models.Order, metadataCredits, verifiedAmountCents int64) int64 {
	if order.RequestedCredits > 0 {
		return order.RequestedCredits
	}
	if metadataCredits > 0 {
		return metadataCredits
	}
	return verifiedAmountCents / minorUnitsPerCredit
}

func (s *Service) queueRetry(ids paystack.EventIdentifiers, payloadJSON string) {
	err := s.repo.UpsertRetryEntry(&models.WebhookRetryEntry{
		EventID:     ids.EventID,
		EventName:   ids.EventName,
		Reference:   ids.Reference,
		PayloadJSON: payloadJSON,
	})
	if err != nil {
		// The dedup row alone still lets the recovery sweep find this
		// event, but losing the queue entry is worth shouting about.
		log.Errorf("reconcile: failed to queue retry entry %s: %v", ids.EventID, err)
	}
}

func (s *Service) dropRetryEntry(eventID string) {
	if eventID == "" {
		return
	}
	if err := s.repo.DeleteRetryEntry(eventID); err != nil {
		log.Warnf("reconcile: failed to remove retry entry %s: %v", eventID, err)
	}
}

// recordPaymentEvent writes the traceability row. It is a side record,
// but a silently lost one undermines auditability, so a failed write is
// retried once and then logged loudly.
func (s *Service) recordPaymentEvent(event *models.PaymentEvent) {
	if err := s.repo.RecordPaymentEvent(event); err != nil {
		if err2 := s.repo.RecordPaymentEvent(event); err2 != nil {
			log.Errorf("reconcile: payment event record lost (event_id=%s reference=%s): %v", event.EventID, event.Reference, err2)
		}
	}
}
