package models

import "time"

// WebhookRetryEntry holds a deduplicated webhook notification that could
// not be matched to an order yet. Repeated arrivals of the same event
// upsert the payload and timestamp; the entry is deleted only once the
// matching order has been found and credited.
type WebhookRetryEntry struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	EventID       string    `gorm:"type:varchar(191);uniqueIndex;not null" json:"event_id"`
	EventName     string    `gorm:"type:varchar(100);not null" json:"event_name"`
	Reference     string    `gorm:"type:varchar(64);default:'';index" json:"reference"`
	PayloadJSON   string    `gorm:"type:longtext;not null" json:"payload_json"`
	Attempts      int       `gorm:"not null;default:0" json:"attempts"`
	LastAttemptAt time.Time `gorm:"not null" json:"last_attempt_at"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}
