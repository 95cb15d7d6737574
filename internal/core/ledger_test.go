package core_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"TradeJournal/internal/core"
	"TradeJournal/internal/journal"
	"TradeJournal/internal/observability"
	"TradeJournal/internal/store"

	"github.com/google/uuid"
)

// captureSink records emitted events for assertions.
type captureSink struct {
	mu     sync.Mutex
	events []core.Event
}

func (c *captureSink) Publish(ctx context.Context, evt core.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
}

func (c *captureSink) kinds() []core.EventKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.EventKind, len(c.events))
	for i, e := range c.events {
		out[i] = e.Kind
	}
	return out
}

func newTestEngine(t *testing.T) (*core.Engine, *store.Memory, *captureSink) {
	t.Helper()
	mem := store.NewMemory()
	sink := &captureSink{}
	engine := core.NewEngine(core.Deps{
		Accounts:  mem.Accounts(),
		Entries:   mem.Entries(),
		Trades:    mem.Trades(),
		Snapshots: mem.Snapshots(),
		Sink:      sink,
		Logger:    observability.NewLogger("test"),
	})
	return engine, mem, sink
}

func seedAccount(t *testing.T, mem *store.Memory, balance float64) uuid.UUID {
	t.Helper()
	id := uuid.New()
	now := time.Now()
	err := mem.Accounts().Insert(context.Background(), &journal.Account{
		AccountID:    id,
		UserID:       uuid.New(),
		Name:         "test account",
		Balance:      balance,
		PositionUnit: journal.PositionUnitUSD,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return id
}

func accountBalance(t *testing.T, mem *store.Memory, id uuid.UUID) float64 {
	t.Helper()
	a, err := mem.Accounts().Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	return a.Balance
}

// ============================================================================
// Test: RecordEntry
// ============================================================================

func TestRecordEntry_DepositIncreasesBalance(t *testing.T) {
	engine, mem, _ := newTestEngine(t)
	acct := seedAccount(t, mem, 1000)

	entry, err := engine.RecordEntry(context.Background(), journal.RecordEntryInput{
		AccountID: acct,
		Type:      journal.EntryTypeDeposit,
		Amount:    250,
		Date:      time.Now(),
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if entry.EntryID == uuid.Nil {
		t.Error("entry id should be assigned")
	}
	if got := accountBalance(t, mem, acct); got != 1250 {
		t.Errorf("balance = %v, want 1250", got)
	}
}

func TestRecordEntry_WithdrawalDecreasesBalance(t *testing.T) {
	engine, mem, _ := newTestEngine(t)
	acct := seedAccount(t, mem, 1000)

	_, err := engine.RecordEntry(context.Background(), journal.RecordEntryInput{
		AccountID: acct,
		Type:      journal.EntryTypeWithdrawal,
		Amount:    300,
		Date:      time.Now(),
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if got := accountBalance(t, mem, acct); got != 700 {
		t.Errorf("balance = %v, want 700", got)
	}
}

func TestRecordEntry_OverdraftIsAllowed(t *testing.T) {
	engine, mem, _ := newTestEngine(t)
	acct := seedAccount(t, mem, 100)

	_, err := engine.RecordEntry(context.Background(), journal.RecordEntryInput{
		AccountID: acct,
		Type:      journal.EntryTypeWithdrawal,
		Amount:    500,
		Date:      time.Now(),
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if got := accountBalance(t, mem, acct); got != -400 {
		t.Errorf("balance = %v, want -400", got)
	}
}

func TestRecordEntry_UnknownAccount(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	_, err := engine.RecordEntry(context.Background(), journal.RecordEntryInput{
		AccountID: uuid.New(),
		Type:      journal.EntryTypeDeposit,
		Amount:    100,
		Date:      time.Now(),
	})
	if !errors.Is(err, journal.ErrAccountNotFound) {
		t.Errorf("err = %v, want ErrAccountNotFound", err)
	}
}

func TestRecordEntry_InvalidInput(t *testing.T) {
	engine, mem, _ := newTestEngine(t)
	acct := seedAccount(t, mem, 1000)

	cases := []journal.RecordEntryInput{
		{AccountID: acct, Type: "transfer", Amount: 100, Date: time.Now()},
		{AccountID: acct, Type: journal.EntryTypeDeposit, Amount: 0, Date: time.Now()},
		{AccountID: acct, Type: journal.EntryTypeDeposit, Amount: -5, Date: time.Now()},
		{AccountID: acct, Type: journal.EntryTypeDeposit, Amount: 100},
	}
	for _, in := range cases {
		if _, err := engine.RecordEntry(context.Background(), in); !errors.Is(err, journal.ErrInvalidInput) {
			t.Errorf("input %+v: err = %v, want ErrInvalidInput", in, err)
		}
	}
	if got := accountBalance(t, mem, acct); got != 1000 {
		t.Errorf("balance moved on rejected input: %v", got)
	}
}

func TestRecordEntry_EmitsEvent(t *testing.T) {
	engine, mem, sink := newTestEngine(t)
	acct := seedAccount(t, mem, 0)

	_, err := engine.RecordEntry(context.Background(), journal.RecordEntryInput{
		AccountID: acct,
		Type:      journal.EntryTypeDeposit,
		Amount:    50,
		Date:      time.Now(),
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	kinds := sink.kinds()
	if len(kinds) != 1 || kinds[0] != core.EventEntryRecorded {
		t.Errorf("events = %v, want [entry_recorded]", kinds)
	}
	if sink.events[0].Delta != 50 || sink.events[0].Balance != 50 {
		t.Errorf("event delta/balance = %v/%v, want 50/50",
			sink.events[0].Delta, sink.events[0].Balance)
	}
}

// ============================================================================
// Test: AmendEntry
// ============================================================================

func TestAmendEntry_AppliesDelta(t *testing.T) {
	engine, mem, _ := newTestEngine(t)
	acct := seedAccount(t, mem, 0)

	entry, err := engine.RecordEntry(context.Background(), journal.RecordEntryInput{
		AccountID: acct,
		Type:      journal.EntryTypeDeposit,
		Amount:    100,
		Date:      time.Now(),
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	amount := 175.0
	amended, err := engine.AmendEntry(context.Background(), entry.EntryID, journal.AmendEntryInput{
		Amount: &amount,
	})
	if err != nil {
		t.Fatalf("amend: %v", err)
	}
	if amended.Amount != 175 {
		t.Errorf("amended amount = %v, want 175", amended.Amount)
	}
	if got := accountBalance(t, mem, acct); got != 175 {
		t.Errorf("balance = %v, want 175", got)
	}
}

func TestAmendEntry_EventCarriesBalance(t *testing.T) {
	engine, mem, sink := newTestEngine(t)
	acct := seedAccount(t, mem, 0)

	entry, err := engine.RecordEntry(context.Background(), journal.RecordEntryInput{
		AccountID: acct,
		Type:      journal.EntryTypeDeposit,
		Amount:    100,
		Date:      time.Now(),
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	amount := 175.0
	if _, err := engine.AmendEntry(context.Background(), entry.EntryID, journal.AmendEntryInput{
		Amount: &amount,
	}); err != nil {
		t.Fatalf("amend: %v", err)
	}

	evt := sink.events[len(sink.events)-1]
	if evt.Delta != 75 || evt.Balance != 175 {
		t.Errorf("event delta/balance = %v/%v, want 75/175", evt.Delta, evt.Balance)
	}

	// A no-delta patch still reports the current balance.
	desc := "corrected memo"
	if _, err := engine.AmendEntry(context.Background(), entry.EntryID, journal.AmendEntryInput{
		Description: &desc,
	}); err != nil {
		t.Fatalf("amend description: %v", err)
	}

	evt = sink.events[len(sink.events)-1]
	if evt.Delta != 0 || evt.Balance != 175 {
		t.Errorf("event delta/balance = %v/%v, want 0/175", evt.Delta, evt.Balance)
	}
}

func TestRemoveEntry_EventCarriesBalance(t *testing.T) {
	engine, mem, sink := newTestEngine(t)
	acct := seedAccount(t, mem, 1000)

	entry, err := engine.RecordEntry(context.Background(), journal.RecordEntryInput{
		AccountID: acct,
		Type:      journal.EntryTypeWithdrawal,
		Amount:    400,
		Date:      time.Now(),
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	if _, err := engine.RemoveEntry(context.Background(), entry.EntryID); err != nil {
		t.Fatalf("remove: %v", err)
	}

	evt := sink.events[len(sink.events)-1]
	if evt.Kind != core.EventEntryRemoved {
		t.Fatalf("event kind = %q, want %q", evt.Kind, core.EventEntryRemoved)
	}
	if evt.Delta != 400 || evt.Balance != 1000 {
		t.Errorf("event delta/balance = %v/%v, want 400/1000", evt.Delta, evt.Balance)
	}
}

func TestAmendEntry_TypeFlipReversesSign(t *testing.T) {
	engine, mem, _ := newTestEngine(t)
	acct := seedAccount(t, mem, 0)

	entry, err := engine.RecordEntry(context.Background(), journal.RecordEntryInput{
		AccountID: acct,
		Type:      journal.EntryTypeDeposit,
		Amount:    100,
		Date:      time.Now(),
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	wd := journal.EntryTypeWithdrawal
	if _, err := engine.AmendEntry(context.Background(), entry.EntryID, journal.AmendEntryInput{
		Type: &wd,
	}); err != nil {
		t.Fatalf("amend: %v", err)
	}

	// +100 became -100, so the delta is -200.
	if got := accountBalance(t, mem, acct); got != -100 {
		t.Errorf("balance = %v, want -100", got)
	}
}

func TestAmendEntry_MatchesFullRecompute(t *testing.T) {
	engine, mem, _ := newTestEngine(t)
	acct := seedAccount(t, mem, 500)
	ctx := context.Background()

	var ids []uuid.UUID
	amounts := []float64{100, 40, 250}
	types := []journal.EntryType{
		journal.EntryTypeDeposit, journal.EntryTypeWithdrawal, journal.EntryTypeDeposit,
	}
	for i := range amounts {
		e, err := engine.RecordEntry(ctx, journal.RecordEntryInput{
			AccountID: acct, Type: types[i], Amount: amounts[i], Date: time.Now(),
		})
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		ids = append(ids, e.EntryID)
	}

	newAmount := 90.0
	if _, err := engine.AmendEntry(ctx, ids[1], journal.AmendEntryInput{Amount: &newAmount}); err != nil {
		t.Fatalf("amend: %v", err)
	}

	// Replay from scratch: 500 + 100 - 90 + 250.
	entries, err := engine.ListEntries(ctx, acct, store.EntryFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	replayed := 500.0
	for _, e := range entries {
		replayed += e.SignedAmount()
	}
	if got := accountBalance(t, mem, acct); got != replayed {
		t.Errorf("incremental balance %v != replayed %v", got, replayed)
	}
	if replayed != 760 {
		t.Errorf("replayed = %v, want 760", replayed)
	}
}

func TestAmendEntry_NotFound(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	amount := 10.0
	_, err := engine.AmendEntry(context.Background(), uuid.New(), journal.AmendEntryInput{Amount: &amount})
	if !errors.Is(err, journal.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// ============================================================================
// Test: RemoveEntry
// ============================================================================

func TestRemoveEntry_ReversesEffect(t *testing.T) {
	engine, mem, _ := newTestEngine(t)
	acct := seedAccount(t, mem, 1000)
	ctx := context.Background()

	entry, err := engine.RecordEntry(ctx, journal.RecordEntryInput{
		AccountID: acct,
		Type:      journal.EntryTypeWithdrawal,
		Amount:    400,
		Date:      time.Now(),
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if got := accountBalance(t, mem, acct); got != 600 {
		t.Fatalf("balance after withdrawal = %v, want 600", got)
	}

	if _, err := engine.RemoveEntry(ctx, entry.EntryID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got := accountBalance(t, mem, acct); got != 1000 {
		t.Errorf("balance after removal = %v, want 1000", got)
	}
	if _, err := engine.GetEntry(ctx, entry.EntryID); !errors.Is(err, journal.ErrNotFound) {
		t.Errorf("entry still present after removal: %v", err)
	}
}

// ============================================================================
// Test: ListEntries
// ============================================================================

func TestListEntries_NewestFirstAndFiltered(t *testing.T) {
	engine, mem, _ := newTestEngine(t)
	acct := seedAccount(t, mem, 0)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		typ := journal.EntryTypeDeposit
		if i == 1 {
			typ = journal.EntryTypeWithdrawal
		}
		if _, err := engine.RecordEntry(ctx, journal.RecordEntryInput{
			AccountID: acct, Type: typ, Amount: 10, Date: base.AddDate(0, 0, i),
		}); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	entries, err := engine.ListEntries(ctx, acct, store.EntryFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len = %d, want 3", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Date.After(entries[i-1].Date) {
			t.Errorf("entries not sorted newest first at %d", i)
		}
	}

	dep := journal.EntryTypeDeposit
	deposits, err := engine.ListEntries(ctx, acct, store.EntryFilter{Type: &dep})
	if err != nil {
		t.Fatalf("list deposits: %v", err)
	}
	if len(deposits) != 2 {
		t.Errorf("deposit count = %d, want 2", len(deposits))
	}
}

// ============================================================================
// Test: concurrency
// ============================================================================

func TestRecordEntry_ConcurrentDeposits(t *testing.T) {
	engine, mem, _ := newTestEngine(t)
	acct := seedAccount(t, mem, 0)
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := engine.RecordEntry(ctx, journal.RecordEntryInput{
				AccountID: acct,
				Type:      journal.EntryTypeDeposit,
				Amount:    10,
				Date:      time.Now(),
			})
			if err != nil {
				t.Errorf("record: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := accountBalance(t, mem, acct); got != n*10 {
		t.Errorf("balance = %v, want %v", got, n*10)
	}
}
