package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/dollarchain/creditrail/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides the durable ledger operations.
type Repository interface {
	GetCustomer(clientID string) (*models.Customer, error)
	ApplyDelta(p DeltaParams) (*Result, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a ledger repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetCustomer(clientID string) (*models.Customer, error) {
	customer, err := models.FindCustomerByClientID(r.db, clientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return customer, nil
}

func (r *gormRepository) ApplyDelta(p DeltaParams) (*Result, error) {
	var result *Result
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		result, txErr = ApplyDeltaTx(tx, p)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ApplyDeltaTx is the single ledger-write contract: it locks the
// customer row, rejects underflow before mutating, updates the balance
// and appends the audit log row inside the caller's transaction. The
// webhook reconciler composes it with its own order update so that a
// crash can never expose a committed half-state.
func ApplyDeltaTx(tx *gorm.DB, p DeltaParams) (*Result, error) {
	if p.Delta == 0 {
		return nil, ErrInvalidAmount
	}

	var customer models.Customer
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("client_id = ?", p.ClientID).
		First(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("ledger: lock customer: %w", err)
	}

	before := customer.Credits
	after := before + p.Delta
	if after < 0 {
		return nil, ErrInsufficientFunds
	}

	if err := tx.Model(&models.Customer{}).
		Where("id = ?", customer.ID).
		Update("credits", after).Error; err != nil {
		return nil, fmt.Errorf("ledger: update balance: %w", err)
	}

	entry := models.CreditLog{
		ClientID:         p.ClientID,
		OrderID:          p.OrderID,
		Delta:            p.Delta,
		BalanceBefore:    before,
		BalanceAfter:     after,
		Source:           p.Source,
		Actor:            p.Actor,
		Reason:           p.Reason,
		Reference:        p.Reference,
		ProcessedEventID: p.ProcessedEventID,
		MetaJSON:         p.MetaJSON,
		CreatedAt:        time.Now(),
	}
	if err := tx.Create(&entry).Error; err != nil {
		// A lost audit row would undermine the exactly-once guarantee's
		// observability, so the whole transaction rolls back.
		return nil, fmt.Errorf("ledger: append credit log: %w", err)
	}

	return &Result{BalanceBefore: before, NewBalance: after}, nil
}
