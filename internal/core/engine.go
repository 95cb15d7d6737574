package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"TradeJournal/internal/journal"
	"TradeJournal/internal/observability"
	"TradeJournal/internal/store"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Engine is the account-ledger and derived-metrics core. Every balance
// mutation in the system (entry record/amend/remove, trade close)
// flows through its accumulator, and every trade persist goes through
// the metrics calculator first.
type Engine struct {
	accounts  store.AccountStore
	entries   store.EntryStore
	trades    store.TradeStore
	snapshots store.SnapshotStore

	balance *BalanceAccumulator
	locks   *lockTable
	sink    EventSink
	log     zerolog.Logger
	metrics *observability.Metrics

	now func() time.Time
}

// Deps holds everything the engine needs. Sink and Metrics may be nil.
type Deps struct {
	Accounts  store.AccountStore
	Entries   store.EntryStore
	Trades    store.TradeStore
	Snapshots store.SnapshotStore
	Sink      EventSink
	Logger    zerolog.Logger
	Metrics   *observability.Metrics
}

func NewEngine(deps Deps) *Engine {
	return &Engine{
		accounts:  deps.Accounts,
		entries:   deps.Entries,
		trades:    deps.Trades,
		snapshots: deps.Snapshots,
		balance:   NewBalanceAccumulator(deps.Accounts, deps.Metrics),
		locks:     newLockTable(),
		sink:      deps.Sink,
		log:       deps.Logger,
		metrics:   deps.Metrics,
		now:       time.Now,
	}
}

// requireAccount fails with ErrAccountNotFound if the id does not
// resolve. Called before any mutation that references an account.
func (e *Engine) requireAccount(ctx context.Context, accountID uuid.UUID) error {
	ok, err := e.accounts.Exists(ctx, accountID)
	if err != nil {
		return fmt.Errorf("account lookup %s: %w", accountID, err)
	}
	if !ok {
		return fmt.Errorf("account %s: %w", accountID, journal.ErrAccountNotFound)
	}
	return nil
}

func (e *Engine) emit(ctx context.Context, evt Event) {
	if e.sink == nil {
		return
	}
	e.sink.Publish(ctx, evt)
}

func (e *Engine) observe(op string, start time.Time, err error) {
	if e.metrics == nil {
		return
	}
	e.metrics.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		e.metrics.OperationErrors.WithLabelValues(op, errorKind(err)).Inc()
	}
}

// errorKind maps an engine error onto its sentinel kind for metrics.
func errorKind(err error) string {
	switch {
	case errors.Is(err, journal.ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, journal.ErrNotFound):
		return "not_found"
	case errors.Is(err, journal.ErrDuplicateSnapshot):
		return "duplicate_snapshot"
	case errors.Is(err, journal.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, journal.ErrConflict):
		return "conflict"
	default:
		return "internal"
	}
}

// lockTable serializes mutations by key: one key per account for ledger
// writes, one per (account, day) for snapshot builds. Entries are
// reference counted and evicted once the last holder releases, so the
// table only holds keys with an operation in flight.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*keyLock)}
}

// acquire locks the named key and returns the unlock func.
func (lt *lockTable) acquire(key string) func() {
	lt.mu.Lock()
	l, ok := lt.locks[key]
	if !ok {
		l = &keyLock{}
		lt.locks[key] = l
	}
	l.refs++
	lt.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		lt.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(lt.locks, key)
		}
		lt.mu.Unlock()
	}
}

func accountKey(id uuid.UUID) string {
	return "account:" + id.String()
}

func snapshotKey(id uuid.UUID, day time.Time) string {
	return "snapshot:" + id.String() + ":" + day.Format("2006-01-02")
}
