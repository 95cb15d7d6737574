package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"TradeJournal/internal/journal"
	"TradeJournal/internal/store"

	"github.com/google/uuid"
)

func memAccount(t *testing.T, mem *store.Memory) uuid.UUID {
	t.Helper()
	id := uuid.New()
	now := time.Now()
	err := mem.Accounts().Insert(context.Background(), &journal.Account{
		AccountID:    id,
		UserID:       uuid.New(),
		Name:         "mem account",
		PositionUnit: journal.PositionUnitLot,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("insert account: %v", err)
	}
	return id
}

// ============================================================================
// Test: trade status CAS
// ============================================================================

func TestMemoryTrades_UpdateCASConflict(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	acct := memAccount(t, mem)

	now := time.Now()
	trade := &journal.Trade{
		TradeID:      uuid.New(),
		AccountID:    acct,
		Symbol:       "XAUUSD",
		EntryPrice:   2400,
		StopLoss:     2380,
		TakeProfit:   2450,
		PositionSize: 2,
		OpenDate:     now,
		Status:       journal.TradeStatusOpen,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := mem.Trades().Insert(ctx, trade); err != nil {
		t.Fatalf("insert: %v", err)
	}

	cancelled := *trade
	cancelled.Status = journal.TradeStatusCancelled
	if err := mem.Trades().Update(ctx, &cancelled, journal.TradeStatusOpen); err != nil {
		t.Fatalf("first update: %v", err)
	}

	stale := *trade
	stale.Status = journal.TradeStatusClosed
	err := mem.Trades().Update(ctx, &stale, journal.TradeStatusOpen)
	if !errors.Is(err, journal.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

// ============================================================================
// Test: snapshot window uniqueness
// ============================================================================

func TestMemorySnapshots_InsertSameDayFails(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	acct := memAccount(t, mem)

	now := time.Now()
	day := time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC)
	first := &journal.Snapshot{
		SnapshotID: uuid.New(),
		AccountID:  acct,
		Date:       day.Add(3 * time.Hour),
		Balance:    10,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := mem.Snapshots().Insert(ctx, first); err != nil {
		t.Fatalf("insert: %v", err)
	}

	second := *first
	second.SnapshotID = uuid.New()
	second.Date = day.Add(21 * time.Hour)
	if err := mem.Snapshots().Insert(ctx, &second); !errors.Is(err, journal.ErrDuplicateSnapshot) {
		t.Errorf("err = %v, want ErrDuplicateSnapshot", err)
	}

	// A different account is free to use the same day.
	other := memAccount(t, mem)
	third := *first
	third.SnapshotID = uuid.New()
	third.AccountID = other
	if err := mem.Snapshots().Insert(ctx, &third); err != nil {
		t.Errorf("other account same day: %v", err)
	}
}

// ============================================================================
// Test: copy semantics
// ============================================================================

func TestMemoryEntries_CallerCannotAliasStoredState(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	acct := memAccount(t, mem)

	now := time.Now()
	e := &journal.LedgerEntry{
		EntryID:   uuid.New(),
		AccountID: acct,
		Type:      journal.EntryTypeDeposit,
		Amount:    75,
		Date:      now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := mem.Entries().Insert(ctx, e); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Mutating the inserted value must not leak into the store.
	e.Amount = 999

	got, err := mem.Entries().Get(ctx, e.EntryID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Amount != 75 {
		t.Errorf("stored amount = %v, want 75", got.Amount)
	}

	// And mutating a returned value must not either.
	got.Amount = 1234
	again, err := mem.Entries().Get(ctx, e.EntryID)
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	if again.Amount != 75 {
		t.Errorf("stored amount after caller mutation = %v, want 75", again.Amount)
	}
}
