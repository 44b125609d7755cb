package orders

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/dollarchain/creditrail/app/models"
	"gorm.io/gorm"
)

var (
	ErrMissingClientID = errors.New("client_id is required")
	ErrOrderNotFound   = errors.New("order not found")
)

// Registry records purchase intents before the customer is handed to
// the payment provider. An order that cannot be durably committed must
// abort the checkout; the provider is never contacted without a
// matching pending row.
type Registry struct {
	db *gorm.DB
}

func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{db: db}
}

// GenerateReference builds a globally-unique provider reference.
// Time plus a random suffix keeps the collision probability negligible
// at this system's request rates, and the unique index on
// orders.reference catches the pathological case.
func GenerateReference() string {
	return fmt.Sprintf("dc-%d-%04d", time.Now().UnixMilli(), rand.Intn(10000))
}

// CreatePending inserts a pending order and returns it with the
// generated reference.
func (r *Registry) CreatePending(ctx context.Context, clientID string, requestedCredits, amountCents int64) (*models.Order, error) {
	_ = ctx
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, ErrMissingClientID
	}

	order := &models.Order{
		ClientID:         clientID,
		RequestedCredits: requestedCredits,
		AmountCents:      amountCents,
		Reference:        GenerateReference(),
		Status:           models.OrderStatusPending,
		WebhookProcessed: false,
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	if err := r.db.Create(order).Error; err != nil {
		return nil, fmt.Errorf("orders: insert pending order: %w", err)
	}
	return order, nil
}

// FindByReference resolves a provider reference to its order.
func (r *Registry) FindByReference(ctx context.Context, reference string) (*models.Order, error) {
	_ = ctx
	order, err := models.FindOrderByReference(r.db, reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}
