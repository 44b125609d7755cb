package ledger

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/dollarchain/creditrail/app/models"
	"github.com/dollarchain/creditrail/internal/pkg/cache"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

const balanceCacheTTL = 30 * time.Second

// Service provides the synchronous spend/grant operations. Both the
// admin top-up path and the webhook reconciler's final step go through
// the same grant contract.
type Service struct {
	repo Repository
}

// NewService creates a ledger service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NewServiceFromDB creates a ledger service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// Grant increments a customer's balance. Amount must be positive.
func (s *Service) Grant(ctx context.Context, clientID string, amount int64, actor, reason string) (int64, error) {
	_ = ctx
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return 0, ErrCustomerNotFound
	}
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	source := models.CreditSourceAdmin
	if actor == "" {
		actor = "admin"
	}

	res, err := s.repo.ApplyDelta(DeltaParams{
		ClientID: clientID,
		Delta:    amount,
		Source:   source,
		Actor:    actor,
		Reason:   reason,
	})
	if err != nil {
		return 0, err
	}

	InvalidateBalanceCache(clientID)
	return res.NewBalance, nil
}

// Spend decrements a customer's balance. Fails with
// ErrInsufficientFunds before any mutation when the balance is too low.
func (s *Service) Spend(ctx context.Context, clientID string, amount int64, actor, reason string) (int64, error) {
	_ = ctx
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return 0, ErrCustomerNotFound
	}
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	if actor == "" {
		actor = "client"
	}
	if reason == "" {
		reason = "spend"
	}

	res, err := s.repo.ApplyDelta(DeltaParams{
		ClientID: clientID,
		Delta:    -amount,
		Source:   models.CreditSourceSpend,
		Actor:    actor,
		Reason:   reason,
	})
	if err != nil {
		return 0, err
	}

	InvalidateBalanceCache(clientID)
	return res.NewBalance, nil
}

// GetBalance returns the customer's balance snapshot through a short
// read cache. Mutations invalidate the cached entry.
func (s *Service) GetBalance(ctx context.Context, clientID string) (*BalanceSnapshot, error) {
	_ = ctx
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, ErrCustomerNotFound
	}

	key := balanceCacheKey(clientID)
	if cached, err := cache.Get(key); err == nil && cached != "" {
		var snap BalanceSnapshot
		if err := json.Unmarshal([]byte(cached), &snap); err == nil {
			return &snap, nil
		}
	}

	customer, err := s.repo.GetCustomer(clientID)
	if err != nil {
		return nil, err
	}

	snap := &BalanceSnapshot{Credits: customer.Credits, Blocked: customer.Blocked}
	if data, err := json.Marshal(snap); err == nil {
		if err := cache.Set(key, string(data), balanceCacheTTL); err != nil {
			log.Warnf("ledger: balance cache set failed for %s: %v", clientID, err)
		}
	}
	return snap, nil
}

func balanceCacheKey(clientID string) string {
	return "credits:" + clientID
}

// InvalidateBalanceCache drops the cached snapshot after an external
// mutation (e.g. the webhook reconciler's credit transaction).
func InvalidateBalanceCache(clientID string) {
	if err := cache.Delete(balanceCacheKey(clientID)); err != nil {
		log.Warnf("ledger: balance cache invalidation failed for %s: %v", clientID, err)
	}
}
