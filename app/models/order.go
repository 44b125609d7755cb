package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order status values.
const (
	OrderStatusPending = "pending"
	OrderStatusSuccess = "success"
	OrderStatusFailed  = "failed"
)

// Order is a purchase intent created before the customer is sent to the
// payment provider. WebhookProcessed transitions false -> true exactly
// once; orders are never deleted (audit requirement).
type Order struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UUID             string     `gorm:"type:varchar(36);uniqueIndex;not null" json:"uuid"`
	ClientID         string     `gorm:"type:varchar(191);not null;index" json:"client_id" validate:"required,min=1,max=191"`
	RequestedCredits int64      `gorm:"not null;default:0" json:"requested_credits" validate:"gte=0"`
	AmountCents      int64      `gorm:"not null" json:"amount_cents" validate:"gte=0"`
	Reference        string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"reference" validate:"required,min=1,max=64"`
	Status           string     `gorm:"type:varchar(20);default:'pending';index" json:"status" validate:"oneof=pending success failed"`
	WebhookProcessed bool       `gorm:"default:false;index" json:"webhook_processed"`
	CreatedAt        time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	ProcessedAt      *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
}

func (o *Order) Validate() error {
	v := validator.New()
	return v.Struct(o)
}

// BeforeCreate assigns the public UUID.
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.UUID == "" {
		o.UUID = uuid.New().String()
	}
	return nil
}

func FindOrderByReference(db *gorm.DB, reference string) (*Order, error) {
	var order Order
	err := db.Where("reference = ?", reference).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}
