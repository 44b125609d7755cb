package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Customer holds the authoritative credits balance for one client.
// The balance is only ever mutated through the ledger package's
// atomic delta contract; rows are never deleted.
type Customer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ClientID  string    `gorm:"type:varchar(191);uniqueIndex;not null" json:"client_id" validate:"required,min=1,max=191"`
	Credits   int64     `gorm:"not null;default:0" json:"credits" validate:"gte=0"`
	Blocked   bool      `gorm:"default:false" json:"blocked"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *Customer) Validate() error {
	v := validator.New()
	return v.Struct(c)
}

func FindCustomerByClientID(db *gorm.DB, clientID string) (*Customer, error) {
	var customer Customer
	err := db.Where("client_id = ?", clientID).First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}
