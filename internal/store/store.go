package store

import (
	"context"
	"time"

	"TradeJournal/internal/journal"

	"github.com/google/uuid"
)

// Storage contracts consumed by the engine. The Postgres implementation
// lives in internal/persistence; Memory (this package) backs unit tests
// and embedded use.

// EntryFilter narrows ListByAccount for ledger entries. Bounds are
// inclusive on both ends, matching the query surface of the journal's
// list views.
type EntryFilter struct {
	Type *journal.EntryType
	From *time.Time
	To   *time.Time
}

// TradeFilter narrows ListByAccount for trades.
type TradeFilter struct {
	Status *journal.TradeStatus
}

// AccountStore resolves accounts and owns the one atomic balance
// primitive. The engine never reads-modifies-writes a balance itself.
type AccountStore interface {
	Insert(ctx context.Context, a *journal.Account) error
	Get(ctx context.Context, id uuid.UUID) (*journal.Account, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)

	// ListIDs returns every account id. Feeds the snapshot scheduler.
	ListIDs(ctx context.Context) ([]uuid.UUID, error)

	// AdjustBalance applies delta to the account's balance as a single
	// atomic increment and returns the updated account. Fails with
	// journal.ErrAccountNotFound if the account does not exist.
	AdjustBalance(ctx context.Context, id uuid.UUID, delta float64) (*journal.Account, error)
}

// EntryStore persists ledger entries.
type EntryStore interface {
	Insert(ctx context.Context, e *journal.LedgerEntry) error
	Get(ctx context.Context, id uuid.UUID) (*journal.LedgerEntry, error)
	Update(ctx context.Context, e *journal.LedgerEntry) error
	Delete(ctx context.Context, id uuid.UUID) error

	// ListByAccount returns entries newest-date first.
	ListByAccount(ctx context.Context, accountID uuid.UUID, f EntryFilter) ([]journal.LedgerEntry, error)

	// SumWindow sums entry amounts by type over the half-open window
	// [start, end).
	SumWindow(ctx context.Context, accountID uuid.UUID, start, end time.Time) (deposits, withdrawals float64, err error)
}

// TradeStore persists trades.
type TradeStore interface {
	Insert(ctx context.Context, t *journal.Trade) error
	Get(ctx context.Context, id uuid.UUID) (*journal.Trade, error)

	// Update overwrites the trade iff its stored status equals expect
	// (compare-and-swap on the lifecycle state). A mismatch fails with
	// journal.ErrConflict.
	Update(ctx context.Context, t *journal.Trade, expect journal.TradeStatus) error
	Delete(ctx context.Context, id uuid.UUID) error

	// ListByAccount returns trades newest openDate first.
	ListByAccount(ctx context.Context, accountID uuid.UUID, f TradeFilter) ([]journal.Trade, error)

	// SumClosedPnL sums pnl over closed trades whose exitDate falls in
	// [start, end). Closed trades without pnl contribute 0.
	SumClosedPnL(ctx context.Context, accountID uuid.UUID, start, end time.Time) (float64, error)
}

// SnapshotStore persists account snapshots and enforces the one-per-day
// uniqueness constraint.
type SnapshotStore interface {
	// Insert fails with journal.ErrDuplicateSnapshot when a snapshot
	// already exists in the account's day window for s.Date.
	Insert(ctx context.Context, s *journal.Snapshot) error
	Get(ctx context.Context, id uuid.UUID) (*journal.Snapshot, error)
	Update(ctx context.Context, s *journal.Snapshot) error
	Delete(ctx context.Context, id uuid.UUID) error

	// ExistsInWindow reports whether the account has a snapshot with
	// date in [start, end).
	ExistsInWindow(ctx context.Context, accountID uuid.UUID, start, end time.Time) (bool, error)

	// LatestBefore returns the most recent snapshot dated strictly
	// before the cutoff, or (nil, nil) when the account has none.
	LatestBefore(ctx context.Context, accountID uuid.UUID, cutoff time.Time) (*journal.Snapshot, error)

	// ListByAccount returns snapshots date-ascending, optionally
	// bounded (inclusive).
	ListByAccount(ctx context.Context, accountID uuid.UUID, from, to *time.Time) ([]journal.Snapshot, error)
}
