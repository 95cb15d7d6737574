package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"TradeJournal/internal/journal"
	"TradeJournal/internal/store"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type pgSnapshots Store

var _ store.SnapshotStore = (*pgSnapshots)(nil)

// The day column is derived from the snapshot date in its own location
// at write time. The unique index on (account_id, day) is what makes
// the one-snapshot-per-day rule hold across concurrent builders.
const snapshotColumns = `snapshot_id, account_id, snapshot_date, day, balance, daily_pnl,
	deposits, withdrawals, notes, created_at, updated_at`

const pqUniqueViolation = "23505"

func (s *pgSnapshots) Insert(ctx context.Context, snap *journal.Snapshot) error {
	day, _ := journal.DayWindow(snap.Date)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journal.snapshots (`+snapshotColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		snap.SnapshotID, snap.AccountID, snap.Date, day.Format("2006-01-02"),
		snap.Balance, snap.DailyPnL, snap.Deposits, snap.Withdrawals,
		snap.Notes, snap.CreatedAt, snap.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return fmt.Errorf("account %s on %s: %w",
				snap.AccountID, day.Format("2006-01-02"), journal.ErrDuplicateSnapshot)
		}
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

func (s *pgSnapshots) Get(ctx context.Context, id uuid.UUID) (*journal.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+snapshotColumns+`
		FROM journal.snapshots WHERE snapshot_id = $1`, id)

	snap, err := scanSnapshot(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("snapshot %s: %w", id, journal.ErrNotFound)
	}
	return snap, err
}

func (s *pgSnapshots) Update(ctx context.Context, snap *journal.Snapshot) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE journal.snapshots
		SET balance = $2, daily_pnl = $3, deposits = $4, withdrawals = $5,
			notes = $6, updated_at = $7
		WHERE snapshot_id = $1`,
		snap.SnapshotID, snap.Balance, snap.DailyPnL, snap.Deposits,
		snap.Withdrawals, snap.Notes, snap.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update snapshot: %w", err)
	}
	return requireRow(res, snap.SnapshotID)
}

func (s *pgSnapshots) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM journal.snapshots WHERE snapshot_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return requireRow(res, id)
}

func (s *pgSnapshots) ExistsInWindow(ctx context.Context, accountID uuid.UUID, start, end time.Time) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM journal.snapshots
			WHERE account_id = $1 AND snapshot_date >= $2 AND snapshot_date < $3
		)`, accountID, start, end,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("snapshot exists: %w", err)
	}
	return exists, nil
}

func (s *pgSnapshots) LatestBefore(ctx context.Context, accountID uuid.UUID, cutoff time.Time) (*journal.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+snapshotColumns+`
		FROM journal.snapshots
		WHERE account_id = $1 AND snapshot_date < $2
		ORDER BY snapshot_date DESC LIMIT 1`, accountID, cutoff)

	snap, err := scanSnapshot(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return snap, err
}

func (s *pgSnapshots) ListByAccount(ctx context.Context, accountID uuid.UUID, from, to *time.Time) ([]journal.Snapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM journal.snapshots WHERE account_id = $1`
	args := []interface{}{accountID}

	if from != nil {
		args = append(args, *from)
		query += ` AND snapshot_date >= $` + strconv.Itoa(len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += ` AND snapshot_date <= $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY snapshot_date ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []journal.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *snap)
	}
	return out, rows.Err()
}

func scanSnapshot(scan func(dest ...interface{}) error) (*journal.Snapshot, error) {
	var (
		snap journal.Snapshot
		day  string
	)
	err := scan(
		&snap.SnapshotID, &snap.AccountID, &snap.Date, &day, &snap.Balance,
		&snap.DailyPnL, &snap.Deposits, &snap.Withdrawals, &snap.Notes,
		&snap.CreatedAt, &snap.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan snapshot: %w", err)
	}
	return &snap, nil
}
