package reconcile

import (
	"context"
	"sync"
	"time"

	"github.com/dollarchain/creditrail/internal/pkg/paystack"
	"github.com/gofiber/fiber/v2/log"
)

const (
	// DefaultDrainInterval paces the retry-queue passes.
	DefaultDrainInterval = 30 * time.Second
	// DefaultSweepInterval paces the crash-recovery sweep.
	DefaultSweepInterval = 5 * time.Minute

	drainBatchSize = 50
	sweepBatchSize = 50
)

// Drainer periodically re-attempts queued webhook events (order created
// after the webhook arrived) and sweeps for events whose dedup row
// committed but whose credit never applied (crash recovery). Entries
// are never dropped; unmatched ones just accumulate attempts.
type Drainer struct {
	svc           *Service
	drainInterval time.Duration
	sweepInterval time.Duration

	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewDrainer creates a drainer around an existing reconciler service.
func NewDrainer(svc *Service) *Drainer {
	return &Drainer{
		svc:           svc,
		drainInterval: DefaultDrainInterval,
		sweepInterval: DefaultSweepInterval,
		stopCh:        make(chan struct{}),
	}
}

// Start launches the background loops. Safe to call once.
func (d *Drainer) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return
	}
	d.running = true

	log.Infof("[Reconcile] Starting retry drainer (drain=%s, sweep=%s)", d.drainInterval, d.sweepInterval)

	d.wg.Add(2)
	go d.drainLoop()
	go d.sweepLoop()
}

// Stop signals the loops and waits for the in-flight pass to finish.
func (d *Drainer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return
	}
	close(d.stopCh)
	d.running = false
	d.wg.Wait()
	log.Info("[Reconcile] Retry drainer stopped")
}

func (d *Drainer) drainLoop() {
	defer d.wg.Done()
	ticker := time.NewTicker(d.drainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stopCh:
			return
		case <-ticker.C:
			d.DrainOnce(context.Background())
		}
	}
}

func (d *Drainer) sweepLoop() {
	defer d.wg.Done()
	ticker := time.NewTicker(d.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stopCh:
			return
		case <-ticker.C:
			d.SweepOnce(context.Background())
		}
	}
}

// DrainOnce re-attempts resolution for one batch of queued entries.
func (d *Drainer) DrainOnce(ctx context.Context) {
	entries, err := d.svc.repo.ListRetryEntries(drainBatchSize)
	if err != nil {
		log.Errorf("[Reconcile] Drain pass: listing retry entries failed: %v", err)
		return
	}

	for _, entry := range entries {
		ids := paystack.EventIdentifiers{
			EventID:   entry.EventID,
			EventName: entry.EventName,
			Reference: entry.Reference,
		}

		// Re-enter the machine after the dedup step; the stored payload
		// may still carry a usable metadata credit hint.
		metadataCredits := int64(0)
		if parsed, perr := paystack.ParseWebhookPayload([]byte(entry.PayloadJSON)); perr == nil {
			metadataCredits = parsed.MetadataCredit
		}

		outcome := d.svc.completeCharge(ctx, ids, metadataCredits, entry.PayloadJSON)
		switch outcome.Kind {
		case OutcomeCredited:
			log.Infof("[Reconcile] Drained queued event %s: credited %d to order reference %s",
				entry.EventID, outcome.CreditsAdded, entry.Reference)
		case OutcomeQueued:
			// Still unmatched; record the attempt so operators can spot
			// entries that never resolve.
			if err := d.svc.repo.TouchRetryEntry(entry.EventID); err != nil {
				log.Warnf("[Reconcile] Failed to bump retry attempt for %s: %v", entry.EventID, err)
			}
		}
	}
}

// SweepOnce completes events whose dedup row exists but whose order was
// never credited. This is the restart half of the exactly-once
// guarantee: the dedup table is the durable intent record.
func (d *Drainer) SweepOnce(ctx context.Context) {
	events, err := d.svc.repo.ListUnfinishedChargeEvents(sweepBatchSize)
	if err != nil {
		log.Errorf("[Reconcile] Recovery sweep: listing unfinished events failed: %v", err)
		return
	}

	for _, event := range events {
		ids := paystack.EventIdentifiers{
			EventID:   event.EventID,
			EventName: event.EventName,
			Reference: event.Reference,
			Status:    event.Status,
		}

		metadataCredits := int64(0)
		if parsed, perr := paystack.ParseWebhookPayload([]byte(event.PayloadJSON)); perr == nil {
			metadataCredits = parsed.MetadataCredit
		}

		outcome := d.svc.completeCharge(ctx, ids, metadataCredits, event.PayloadJSON)
		if outcome.Kind == OutcomeCredited {
			log.Infof("[Reconcile] Recovery sweep credited event %s (reference %s)", event.EventID, event.Reference)
		}
	}
}
