package journal

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EntryType discriminates ledger entries.
type EntryType string

const (
	EntryTypeDeposit    EntryType = "deposit"
	EntryTypeWithdrawal EntryType = "withdrawal"
)

// Valid reports whether the type is one of the known values.
func (t EntryType) Valid() bool {
	return t == EntryTypeDeposit || t == EntryTypeWithdrawal
}

// LedgerEntry is a deposit or withdrawal affecting one account's
// balance. Entries are immutable except through the amend operation,
// which pairs the edit with a compensating balance adjustment.
type LedgerEntry struct {
	EntryID     uuid.UUID
	AccountID   uuid.UUID
	Type        EntryType
	Amount      float64 // always positive
	Date        time.Time
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SignedAmount returns the entry's effect on the account balance:
// +amount for deposits, -amount for withdrawals.
func (e *LedgerEntry) SignedAmount() float64 {
	if e.Type == EntryTypeWithdrawal {
		return -e.Amount
	}
	return e.Amount
}

// Validate checks the constraints the transport layer is expected to
// have enforced already.
func (e *LedgerEntry) Validate() error {
	if e.AccountID == uuid.Nil {
		return fmt.Errorf("%w: entry has no account", ErrInvalidInput)
	}
	if !e.Type.Valid() {
		return fmt.Errorf("%w: entry type %q", ErrInvalidInput, e.Type)
	}
	if e.Amount <= 0 {
		return fmt.Errorf("%w: entry amount must be positive, got %v", ErrInvalidInput, e.Amount)
	}
	if e.Date.IsZero() {
		return fmt.Errorf("%w: entry has no date", ErrInvalidInput)
	}
	return nil
}
