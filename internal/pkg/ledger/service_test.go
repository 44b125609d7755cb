package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/dollarchain/creditrail/app/models"
)

// fakeRepository keeps balances in memory and applies the same
// underflow rule as the real store.
type fakeRepository struct {
	customers map[string]*models.Customer
	logs      []models.CreditLog
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{customers: make(map[string]*models.Customer)}
}

func (f *fakeRepository) GetCustomer(clientID string) (*models.Customer, error) {
	customer, ok := f.customers[clientID]
	if !ok {
		return nil, ErrCustomerNotFound
	}
	return customer, nil
}

func (f *fakeRepository) ApplyDelta(p DeltaParams) (*Result, error) {
	if p.Delta == 0 {
		return nil, ErrInvalidAmount
	}
	customer, ok := f.customers[p.ClientID]
	if !ok {
		return nil, ErrCustomerNotFound
	}

	before := customer.Credits
	after := before + p.Delta
	if after < 0 {
		return nil, ErrInsufficientFunds
	}

	customer.Credits = after
	f.logs = append(f.logs, models.CreditLog{
		ClientID:      p.ClientID,
		Delta:         p.Delta,
		BalanceBefore: before,
		BalanceAfter:  after,
		Source:        p.Source,
		Actor:         p.Actor,
		Reason:        p.Reason,
	})
	return &Result{BalanceBefore: before, NewBalance: after}, nil
}

func TestGrantValidation(t *testing.T) {
	svc := NewService(newFakeRepository())
	ctx := context.Background()

	if _, err := svc.Grant(ctx, "client-1", 0, "admin", ""); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero amount, got %v", err)
	}
	if _, err := svc.Grant(ctx, "client-1", -5, "admin", ""); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for negative amount, got %v", err)
	}
	if _, err := svc.Grant(ctx, "  ", 10, "admin", ""); !errors.Is(err, ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound for blank client id, got %v", err)
	}
}

func TestGrantAppliesDeltaAndLog(t *testing.T) {
	repo := newFakeRepository()
	repo.customers["client-1"] = &models.Customer{ClientID: "client-1", Credits: 100}
	svc := NewService(repo)

	newBalance, err := svc.Grant(context.Background(), "client-1", 50, "", "manual_topup")
	if err != nil {
		t.Fatalf("Grant: %v", err)
	}
	if newBalance != 150 {
		t.Fatalf("new balance = %d, want 150", newBalance)
	}

	if len(repo.logs) != 1 {
		t.Fatalf("expected one log entry, got %d", len(repo.logs))
	}
	entry := repo.logs[0]
	if entry.Source != models.CreditSourceAdmin {
		t.Fatalf("log source = %q, want %q", entry.Source, models.CreditSourceAdmin)
	}
	if entry.Actor != "admin" {
		t.Fatalf("log actor = %q, want default admin", entry.Actor)
	}
	if entry.BalanceAfter-entry.BalanceBefore != entry.Delta {
		t.Fatalf("log delta inconsistent: before=%d after=%d delta=%d",
			entry.BalanceBefore, entry.BalanceAfter, entry.Delta)
	}
}

func TestSpendInsufficientFundsLeavesBalanceUntouched(t *testing.T) {
	repo := newFakeRepository()
	repo.customers["client-1"] = &models.Customer{ClientID: "client-1", Credits: 30}
	svc := NewService(repo)

	_, err := svc.Spend(context.Background(), "client-1", 31, "", "")
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if repo.customers["client-1"].Credits != 30 {
		t.Fatalf("balance mutated on failed spend: %d", repo.customers["client-1"].Credits)
	}
	if len(repo.logs) != 0 {
		t.Fatalf("expected no log entry on failed spend, got %d", len(repo.logs))
	}
}

func TestSpendUnknownCustomer(t *testing.T) {
	svc := NewService(newFakeRepository())
	if _, err := svc.Spend(context.Background(), "ghost", 5, "", ""); !errors.Is(err, ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
}

func TestSpendDefaultsAndDelta(t *testing.T) {
	repo := newFakeRepository()
	repo.customers["client-1"] = &models.Customer{ClientID: "client-1", Credits: 100}
	svc := NewService(repo)

	newBalance, err := svc.Spend(context.Background(), "client-1", 40, "", "")
	if err != nil {
		t.Fatalf("Spend: %v", err)
	}
	if newBalance != 60 {
		t.Fatalf("new balance = %d, want 60", newBalance)
	}

	entry := repo.logs[0]
	if entry.Delta != -40 {
		t.Fatalf("log delta = %d, want -40", entry.Delta)
	}
	if entry.Source != models.CreditSourceSpend {
		t.Fatalf("log source = %q, want %q", entry.Source, models.CreditSourceSpend)
	}
	if entry.Actor != "client" || entry.Reason != "spend" {
		t.Fatalf("defaults not applied: actor=%q reason=%q", entry.Actor, entry.Reason)
	}
}

func TestSpendExactBalanceReachesZero(t *testing.T) {
	repo := newFakeRepository()
	repo.customers["client-1"] = &models.Customer{ClientID: "client-1", Credits: 25}
	svc := NewService(repo)

	newBalance, err := svc.Spend(context.Background(), "client-1", 25, "", "")
	if err != nil {
		t.Fatalf("Spend: %v", err)
	}
	if newBalance != 0 {
		t.Fatalf("new balance = %d, want 0", newBalance)
	}
}
