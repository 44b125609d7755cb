package models

import "time"

// PaymentEvent is a traceability row linking a webhook event, the order
// it resolved to and the raw provider payload. Unroutable payloads
// (missing reference) are stored here for manual inspection.
type PaymentEvent struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	EventID        string    `gorm:"type:varchar(191);default:'';index" json:"event_id"`
	Reference      string    `gorm:"type:varchar(64);default:'';index" json:"reference"`
	EventName      string    `gorm:"type:varchar(100);default:''" json:"event_name"`
	Status         string    `gorm:"type:varchar(50);default:''" json:"status"`
	OrderID        *uint     `gorm:"default:null;index" json:"order_id,omitempty"`
	Provider       string    `gorm:"type:varchar(20);not null;default:'paystack'" json:"provider"`
	RawPayloadJSON string    `gorm:"type:longtext" json:"raw_payload_json"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
