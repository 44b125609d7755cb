package reconcile

import (
	"errors"
	"fmt"
	"time"

	"github.com/dollarchain/creditrail/app/models"
	"github.com/dollarchain/creditrail/internal/pkg/ledger"
	"github.com/dollarchain/creditrail/internal/pkg/paystack"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a reconciler repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreateProcessedEventIfNew(event *models.ProcessedEvent) (bool, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) FindOrderByReference(reference string) (*models.Order, error) {
	return models.FindOrderByReference(r.db, reference)
}

func (r *gormRepository) CreditOrder(orderID uint, eventID string, p ledger.DeltaParams) (*ledger.Result, error) {
	var result *ledger.Result
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&order, orderID).Error; err != nil {
			return fmt.Errorf("reconcile: lock order %d: %w", orderID, err)
		}
		if order.WebhookProcessed {
			return ErrOrderAlreadyProcessed
		}

		now := time.Now()
		if err := tx.Model(&models.Order{}).
			Where("id = ?", order.ID).
			Updates(map[string]interface{}{
				"status":            models.OrderStatusSuccess,
				"webhook_processed": true,
				"processed_at":      &now,
			}).Error; err != nil {
			return fmt.Errorf("reconcile: mark order processed: %w", err)
		}

		var txErr error
		result, txErr = ledger.ApplyDeltaTx(tx, p)
		if txErr != nil {
			return txErr
		}

		if eventID != "" {
			if err := tx.Where("event_id = ?", eventID).
				Delete(&models.WebhookRetryEntry{}).Error; err != nil {
				return fmt.Errorf("reconcile: remove retry entry: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *gormRepository) UpsertRetryEntry(entry *models.WebhookRetryEntry) error {
	entry.LastAttemptAt = time.Now()
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "event_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"event_name",
			"reference",
			"payload_json",
			"last_attempt_at",
		}),
	}).Create(entry).Error
}

func (r *gormRepository) TouchRetryEntry(eventID string) error {
	return r.db.Model(&models.WebhookRetryEntry{}).
		Where("event_id = ?", eventID).
		Updates(map[string]interface{}{
			"attempts":        gorm.Expr("attempts + 1"),
			"last_attempt_at": time.Now(),
		}).Error
}

func (r *gormRepository) DeleteRetryEntry(eventID string) error {
	return r.db.Where("event_id = ?", eventID).
		Delete(&models.WebhookRetryEntry{}).Error
}

func (r *gormRepository) ListRetryEntries(limit int) ([]models.WebhookRetryEntry, error) {
	var entries []models.WebhookRetryEntry
	err := r.db.Order("last_attempt_at asc").Limit(limit).Find(&entries).Error
	return entries, err
}

func (r *gormRepository) RecordPaymentEvent(event *models.PaymentEvent) error {
	return r.db.Create(event).Error
}

func (r *gormRepository) ListUnfinishedChargeEvents(limit int) ([]models.ProcessedEvent, error) {
	var events []models.ProcessedEvent
	err := r.db.
		Joins("JOIN orders ON orders.reference = processed_events.reference").
		Where("processed_events.event_name = ? AND orders.webhook_processed = ?", paystack.EventChargeSuccess, false).
		Limit(limit).
		Find(&events).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return events, nil
}
