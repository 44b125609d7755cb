package reconcile

import (
	"context"
	"testing"

	"github.com/dollarchain/creditrail/app/models"
	"github.com/dollarchain/creditrail/internal/pkg/paystack"
)

func eventRowFromBody(t *testing.T, body []byte) *models.ProcessedEvent {
	t.Helper()
	event, err := paystack.ParseWebhookPayload(body)
	if err != nil {
		t.Fatalf("parse payload: %v", err)
	}
	return &models.ProcessedEvent{
		EventID:     event.Identifiers.EventID,
		EventName:   event.Identifiers.EventName,
		Reference:   event.Identifiers.Reference,
		Status:      event.Identifiers.Status,
		PayloadJSON: string(body),
	}
}

func TestDrainOnce_ResolvesQueuedEventAfterOrderArrives(t *testing.T) {
	repo := newFakeRepository()
	repo.balances["client-1"] = 0
	svc := NewService(repo, successVerifier("dc-late", 5000), testSecret)
	drainer := NewDrainer(svc)

	// Webhook arrives before the order exists.
	body := chargeBody("evt_late", "dc-late")
	outcome := svc.ProcessWebhook(context.Background(), body, sign(body))
	if outcome.Kind != OutcomeQueued {
		t.Fatalf("setup: outcome = %s, want %s", outcome.Kind, OutcomeQueued)
	}

	// A drain pass before the order exists just bumps the attempt count.
	drainer.DrainOnce(context.Background())
	if entry, ok := repo.retries["evt_late"]; !ok {
		t.Fatalf("entry must survive an unsuccessful drain pass")
	} else if entry.Attempts != 1 {
		t.Fatalf("attempts = %d after one pass, want 1", entry.Attempts)
	}

	// Order shows up; the next pass credits and clears the queue.
	repo.addOrder("client-1", "dc-late", 50, 5000)
	drainer.DrainOnce(context.Background())

	if repo.balances["client-1"] != 50 {
		t.Fatalf("balance = %d after drain, want 50", repo.balances["client-1"])
	}
	if _, ok := repo.retries["evt_late"]; ok {
		t.Fatalf("retry entry must be removed after crediting")
	}

	// Further passes are no-ops.
	drainer.DrainOnce(context.Background())
	if repo.balances["client-1"] != 50 {
		t.Fatalf("drain pass must be idempotent, balance = %d", repo.balances["client-1"])
	}
}

func TestSweepOnce_RecoversEventWithLostRetryEntry(t *testing.T) {
	repo := newFakeRepository()
	repo.balances["client-1"] = 0
	repo.addOrder("client-1", "dc-crash", 50, 5000)
	svc := NewService(repo, successVerifier("dc-crash", 5000), testSecret)

	// Simulate a crash after the dedup row committed but before the
	// credit applied: processed row exists, no retry entry.
	body := chargeBody("evt_crash", "dc-crash")
	if created, err := repo.CreateProcessedEventIfNew(eventRowFromBody(t, body)); err != nil || !created {
		t.Fatalf("setup: dedup insert failed: created=%v err=%v", created, err)
	}

	NewDrainer(svc).SweepOnce(context.Background())

	if repo.balances["client-1"] != 50 {
		t.Fatalf("balance = %d after sweep, want 50", repo.balances["client-1"])
	}
	if len(repo.logs) != 1 {
		t.Fatalf("expected exactly one ledger entry, got %d", len(repo.logs))
	}
}
