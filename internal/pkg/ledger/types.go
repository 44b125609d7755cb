package ledger

import "errors"

var (
	ErrInvalidAmount     = errors.New("amount must be a positive integer")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrCustomerNotFound  = errors.New("customer not found")
)

// DeltaParams describes one signed balance mutation plus the audit
// metadata that must land in the same transaction.
type DeltaParams struct {
	ClientID         string
	Delta            int64
	Source           string
	Actor            string
	Reason           string
	Reference        string
	OrderID          *uint
	ProcessedEventID string
	MetaJSON         string
}

// Result reports the committed balance transition.
type Result struct {
	BalanceBefore int64
	NewBalance    int64
}

// BalanceSnapshot is the read-model served by GET /credits.
type BalanceSnapshot struct {
	Credits int64 `json:"credits"`
	Blocked bool  `json:"blocked"`
}
