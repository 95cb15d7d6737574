package core

import (
	"context"
	"fmt"
	"time"

	"TradeJournal/internal/journal"

	"github.com/google/uuid"
)

// Snapshot builder. A snapshot freezes one account day: realized pnl
// from trades closed that day, deposits and withdrawals dated that day,
// and the end-of-day balance chained from the previous snapshot. The
// day window is computed in the location of the requested date, and at
// most one snapshot may exist per account per window.

// BuildSnapshot derives and persists the snapshot for the day
// containing date. The balance chain is
//
//	newBalance = previousBalance + deposits - withdrawals + dailyPnl
//
// where previousBalance is the latest snapshot before the window, or 0
// when the account has never been snapshotted.
func (e *Engine) BuildSnapshot(ctx context.Context, accountID uuid.UUID, date time.Time, notes string) (snap *journal.Snapshot, err error) {
	defer func(start time.Time) { e.observe("build_snapshot", start, err) }(e.now())

	if date.IsZero() {
		return nil, fmt.Errorf("%w: snapshot has no date", journal.ErrInvalidInput)
	}

	start, end := journal.DayWindow(date)

	unlock := e.locks.acquire(snapshotKey(accountID, start))
	defer unlock()

	buildStart := e.now()

	exists, err := e.snapshots.ExistsInWindow(ctx, accountID, start, end)
	if err != nil {
		return nil, fmt.Errorf("check snapshot window: %w", err)
	}
	if exists {
		if e.metrics != nil {
			e.metrics.SnapshotDuplicates.Inc()
		}
		return nil, fmt.Errorf("account %s on %s: %w", accountID, start.Format("2006-01-02"), journal.ErrDuplicateSnapshot)
	}

	if err = e.requireAccount(ctx, accountID); err != nil {
		return nil, err
	}

	dailyPnl, err := e.trades.SumClosedPnL(ctx, accountID, start, end)
	if err != nil {
		return nil, fmt.Errorf("sum closed pnl: %w", err)
	}
	deposits, withdrawals, err := e.entries.SumWindow(ctx, accountID, start, end)
	if err != nil {
		return nil, fmt.Errorf("sum ledger window: %w", err)
	}

	prev, err := e.snapshots.LatestBefore(ctx, accountID, start)
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	var prevBalance float64
	if prev != nil {
		prevBalance = prev.Balance
	}

	now := e.now()
	snap = &journal.Snapshot{
		SnapshotID: uuid.New(),
		AccountID:  accountID,
		Date:       date,
		Balance:    prevBalance + deposits - withdrawals + dailyPnl,
		DailyPnL:   dailyPnl,
		Notes:      notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if deposits != 0 {
		snap.Deposits = &deposits
	}
	if withdrawals != 0 {
		snap.Withdrawals = &withdrawals
	}

	if err = e.snapshots.Insert(ctx, snap); err != nil {
		return nil, fmt.Errorf("insert snapshot: %w", err)
	}

	if e.metrics != nil {
		e.metrics.SnapshotsBuilt.Inc()
		e.metrics.SnapshotBuildDur.Observe(e.now().Sub(buildStart).Seconds())
	}
	e.log.Info().
		Str("snapshot_id", snap.SnapshotID.String()).
		Str("account_id", accountID.String()).
		Str("day", start.Format("2006-01-02")).
		Float64("balance", snap.Balance).
		Float64("daily_pnl", dailyPnl).
		Msg("snapshot built")

	e.emit(ctx, Event{
		Kind:      EventSnapshotBuilt,
		AccountID: accountID,
		EntityID:  snap.SnapshotID,
		Delta:     dailyPnl,
		Balance:   snap.Balance,
		Timestamp: now,
	})
	return snap, nil
}

// CreateSnapshot inserts a snapshot with caller-supplied figures. The
// one-per-day constraint still holds; the builder arithmetic does not.
func (e *Engine) CreateSnapshot(ctx context.Context, in journal.CreateSnapshotInput) (snap *journal.Snapshot, err error) {
	defer func(start time.Time) { e.observe("create_snapshot", start, err) }(e.now())

	now := e.now()
	snap = &journal.Snapshot{
		SnapshotID:  uuid.New(),
		AccountID:   in.AccountID,
		Date:        in.Date,
		Balance:     in.Balance,
		DailyPnL:    in.DailyPnL,
		Deposits:    in.Deposits,
		Withdrawals: in.Withdrawals,
		Notes:       in.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err = snap.Validate(); err != nil {
		return nil, err
	}

	if err = e.requireAccount(ctx, in.AccountID); err != nil {
		return nil, err
	}

	day, _ := journal.DayWindow(in.Date)
	unlock := e.locks.acquire(snapshotKey(in.AccountID, day))
	defer unlock()

	if err = e.snapshots.Insert(ctx, snap); err != nil {
		return nil, fmt.Errorf("insert snapshot: %w", err)
	}
	return snap, nil
}

// UpdateSnapshot edits a snapshot's figures in place. Later snapshots
// that chained off the old balance are not re-derived.
func (e *Engine) UpdateSnapshot(ctx context.Context, id uuid.UUID, in journal.UpdateSnapshotInput) (snap *journal.Snapshot, err error) {
	defer func(start time.Time) { e.observe("update_snapshot", start, err) }(e.now())

	orig, err := e.snapshots.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	patched := *orig
	if in.Balance != nil {
		patched.Balance = *in.Balance
	}
	if in.DailyPnL != nil {
		patched.DailyPnL = *in.DailyPnL
	}
	if in.Deposits != nil {
		patched.Deposits = in.Deposits
	}
	if in.Withdrawals != nil {
		patched.Withdrawals = in.Withdrawals
	}
	if in.Notes != nil {
		patched.Notes = *in.Notes
	}
	patched.UpdatedAt = e.now()

	if err = patched.Validate(); err != nil {
		return nil, err
	}
	if err = e.snapshots.Update(ctx, &patched); err != nil {
		return nil, fmt.Errorf("update snapshot: %w", err)
	}
	return &patched, nil
}

// DeleteSnapshot removes a snapshot, freeing its day window.
func (e *Engine) DeleteSnapshot(ctx context.Context, id uuid.UUID) (err error) {
	defer func(start time.Time) { e.observe("delete_snapshot", start, err) }(e.now())

	if err = e.snapshots.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// GetSnapshot resolves one snapshot by id.
func (e *Engine) GetSnapshot(ctx context.Context, id uuid.UUID) (*journal.Snapshot, error) {
	return e.snapshots.Get(ctx, id)
}

// ListSnapshots returns an account's snapshots date-ascending,
// optionally bounded inclusively on either end.
func (e *Engine) ListSnapshots(ctx context.Context, accountID uuid.UUID, from, to *time.Time) ([]journal.Snapshot, error) {
	return e.snapshots.ListByAccount(ctx, accountID, from, to)
}
