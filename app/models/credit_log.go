package models

import "time"

// Credit log sources.
const (
	CreditSourceWebhook = "webhook"
	CreditSourceAdmin   = "admin"
	CreditSourceSpend   = "spend"
)

// CreditLog is the append-only audit record of every balance mutation.
// Invariant: BalanceAfter - BalanceBefore == Delta, and a customer's
// current balance equals the sum of all deltas since creation.
type CreditLog struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	ClientID         string    `gorm:"type:varchar(191);not null;index" json:"client_id"`
	OrderID          *uint     `gorm:"default:null;index" json:"order_id,omitempty"`
	Delta            int64     `gorm:"not null" json:"delta"`
	BalanceBefore    int64     `gorm:"not null" json:"balance_before"`
	BalanceAfter     int64     `gorm:"not null" json:"balance_after"`
	Source           string    `gorm:"type:varchar(20);not null;index" json:"source"`
	Actor            string    `gorm:"type:varchar(100);default:''" json:"actor"`
	Reason           string    `gorm:"type:varchar(255);default:''" json:"reason"`
	Reference        string    `gorm:"type:varchar(64);default:'';index" json:"reference"`
	ProcessedEventID string    `gorm:"type:varchar(191);default:''" json:"processed_event_id"`
	MetaJSON         string    `gorm:"type:longtext" json:"meta_json"`
	CreatedAt        time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
