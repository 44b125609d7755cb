package models

import "time"

// ProcessedEvent records every provider event id that has been accepted.
// The unique index on EventID is the sole idempotency gate for webhook
// processing: a second insert with the same id must not create a row.
// Rows are never mutated or deleted.
type ProcessedEvent struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	EventID     string    `gorm:"type:varchar(191);uniqueIndex;not null" json:"event_id"`
	EventName   string    `gorm:"type:varchar(100);not null;index" json:"event_name"`
	Reference   string    `gorm:"type:varchar(64);default:'';index" json:"reference"`
	Status      string    `gorm:"type:varchar(50);default:''" json:"status"`
	PayloadJSON string    `gorm:"type:longtext;not null" json:"payload_json"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
