package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"TradeJournal/internal/journal"

	"github.com/google/uuid"
)

// Memory is an in-process implementation of all four store contracts,
// exposed as typed views sharing one lock. Safe for concurrent use.
// Values are copied on the way in and out so callers never alias
// internal state.
type Memory struct {
	mu        sync.RWMutex
	accounts  map[uuid.UUID]journal.Account
	entries   map[uuid.UUID]journal.LedgerEntry
	trades    map[uuid.UUID]journal.Trade
	snapshots map[uuid.UUID]journal.Snapshot
}

func NewMemory() *Memory {
	return &Memory{
		accounts:  make(map[uuid.UUID]journal.Account),
		entries:   make(map[uuid.UUID]journal.LedgerEntry),
		trades:    make(map[uuid.UUID]journal.Trade),
		snapshots: make(map[uuid.UUID]journal.Snapshot),
	}
}

func (m *Memory) Accounts() AccountStore   { return (*memAccounts)(m) }
func (m *Memory) Entries() EntryStore      { return (*memEntries)(m) }
func (m *Memory) Trades() TradeStore       { return (*memTrades)(m) }
func (m *Memory) Snapshots() SnapshotStore { return (*memSnapshots)(m) }

var (
	_ AccountStore  = (*memAccounts)(nil)
	_ EntryStore    = (*memEntries)(nil)
	_ TradeStore    = (*memTrades)(nil)
	_ SnapshotStore = (*memSnapshots)(nil)
)

// --- AccountStore ---

type memAccounts Memory

func (m *memAccounts) Insert(ctx context.Context, a *journal.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[a.AccountID]; ok {
		return fmt.Errorf("account %s already exists: %w", a.AccountID, journal.ErrConflict)
	}
	m.accounts[a.AccountID] = *a
	return nil
}

func (m *memAccounts) Get(ctx context.Context, id uuid.UUID) (*journal.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", id, journal.ErrAccountNotFound)
	}
	out := a
	return &out, nil
}

func (m *memAccounts) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.accounts[id]
	return ok, nil
}

func (m *memAccounts) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]uuid.UUID, 0, len(m.accounts))
	for id := range m.accounts {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *memAccounts) AdjustBalance(ctx context.Context, id uuid.UUID, delta float64) (*journal.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", id, journal.ErrAccountNotFound)
	}
	a.Balance += delta
	a.UpdatedAt = time.Now()
	m.accounts[id] = a
	out := a
	return &out, nil
}

// --- EntryStore ---

type memEntries Memory

func (m *memEntries) Insert(ctx context.Context, e *journal.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.EntryID] = *e
	return nil
}

func (m *memEntries) Get(ctx context.Context, id uuid.UUID) (*journal.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, fmt.Errorf("entry %s: %w", id, journal.ErrNotFound)
	}
	out := e
	return &out, nil
}

func (m *memEntries) Update(ctx context.Context, e *journal.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[e.EntryID]; !ok {
		return fmt.Errorf("entry %s: %w", e.EntryID, journal.ErrNotFound)
	}
	m.entries[e.EntryID] = *e
	return nil
}

func (m *memEntries) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return fmt.Errorf("entry %s: %w", id, journal.ErrNotFound)
	}
	delete(m.entries, id)
	return nil
}

func (m *memEntries) ListByAccount(ctx context.Context, accountID uuid.UUID, f EntryFilter) ([]journal.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []journal.LedgerEntry
	for _, e := range m.entries {
		if e.AccountID != accountID {
			continue
		}
		if f.Type != nil && e.Type != *f.Type {
			continue
		}
		if f.From != nil && e.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && e.Date.After(*f.To) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (m *memEntries) SumWindow(ctx context.Context, accountID uuid.UUID, start, end time.Time) (deposits, withdrawals float64, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, e := range m.entries {
		if e.AccountID != accountID {
			continue
		}
		if e.Date.Before(start) || !e.Date.Before(end) {
			continue
		}
		switch e.Type {
		case journal.EntryTypeDeposit:
			deposits += e.Amount
		case journal.EntryTypeWithdrawal:
			withdrawals += e.Amount
		}
	}
	return deposits, withdrawals, nil
}

// --- TradeStore ---

type memTrades Memory

func (m *memTrades) Insert(ctx context.Context, t *journal.Trade) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades[t.TradeID] = *t
	return nil
}

func (m *memTrades) Get(ctx context.Context, id uuid.UUID) (*journal.Trade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.trades[id]
	if !ok {
		return nil, fmt.Errorf("trade %s: %w", id, journal.ErrNotFound)
	}
	out := t
	return &out, nil
}

func (m *memTrades) Update(ctx context.Context, t *journal.Trade, expect journal.TradeStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.trades[t.TradeID]
	if !ok {
		return fmt.Errorf("trade %s: %w", t.TradeID, journal.ErrNotFound)
	}
	if stored.Status != expect {
		return fmt.Errorf("trade %s is %s, expected %s: %w",
			t.TradeID, stored.Status, expect, journal.ErrConflict)
	}
	m.trades[t.TradeID] = *t
	return nil
}

func (m *memTrades) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trades[id]; !ok {
		return fmt.Errorf("trade %s: %w", id, journal.ErrNotFound)
	}
	delete(m.trades, id)
	return nil
}

func (m *memTrades) ListByAccount(ctx context.Context, accountID uuid.UUID, f TradeFilter) ([]journal.Trade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []journal.Trade
	for _, t := range m.trades {
		if t.AccountID != accountID {
			continue
		}
		if f.Status != nil && t.Status != *f.Status {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpenDate.After(out[j].OpenDate) })
	return out, nil
}

func (m *memTrades) SumClosedPnL(ctx context.Context, accountID uuid.UUID, start, end time.Time) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var total float64
	for _, t := range m.trades {
		if t.AccountID != accountID || t.Status != journal.TradeStatusClosed {
			continue
		}
		if t.ExitDate == nil || t.ExitDate.Before(start) || !t.ExitDate.Before(end) {
			continue
		}
		if t.PnL != nil {
			total += *t.PnL
		}
	}
	return total, nil
}

// --- SnapshotStore ---

type memSnapshots Memory

func (m *memSnapshots) Insert(ctx context.Context, s *journal.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	start, end := journal.DayWindow(s.Date)
	for _, existing := range m.snapshots {
		if existing.AccountID == s.AccountID &&
			!existing.Date.Before(start) && existing.Date.Before(end) {
			return fmt.Errorf("account %s date %s: %w",
				s.AccountID, start.Format("2006-01-02"), journal.ErrDuplicateSnapshot)
		}
	}
	m.snapshots[s.SnapshotID] = *s
	return nil
}

func (m *memSnapshots) Get(ctx context.Context, id uuid.UUID) (*journal.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.snapshots[id]
	if !ok {
		return nil, fmt.Errorf("snapshot %s: %w", id, journal.ErrNotFound)
	}
	out := s
	return &out, nil
}

func (m *memSnapshots) Update(ctx context.Context, s *journal.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.snapshots[s.SnapshotID]; !ok {
		return fmt.Errorf("snapshot %s: %w", s.SnapshotID, journal.ErrNotFound)
	}
	m.snapshots[s.SnapshotID] = *s
	return nil
}

func (m *memSnapshots) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.snapshots[id]; !ok {
		return fmt.Errorf("snapshot %s: %w", id, journal.ErrNotFound)
	}
	delete(m.snapshots, id)
	return nil
}

func (m *memSnapshots) ExistsInWindow(ctx context.Context, accountID uuid.UUID, start, end time.Time) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.snapshots {
		if s.AccountID == accountID && !s.Date.Before(start) && s.Date.Before(end) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memSnapshots) LatestBefore(ctx context.Context, accountID uuid.UUID, cutoff time.Time) (*journal.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *journal.Snapshot
	for _, s := range m.snapshots {
		if s.AccountID != accountID || !s.Date.Before(cutoff) {
			continue
		}
		if latest == nil || s.Date.After(latest.Date) {
			cp := s
			latest = &cp
		}
	}
	return latest, nil
}

func (m *memSnapshots) ListByAccount(ctx context.Context, accountID uuid.UUID, from, to *time.Time) ([]journal.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []journal.Snapshot
	for _, s := range m.snapshots {
		if s.AccountID != accountID {
			continue
		}
		if from != nil && s.Date.Before(*from) {
			continue
		}
		if to != nil && s.Date.After(*to) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
