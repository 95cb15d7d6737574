package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"TradeJournal/internal/journal"
	"TradeJournal/internal/store"

	"github.com/google/uuid"
)

type pgEntries Store

var _ store.EntryStore = (*pgEntries)(nil)

const entryColumns = `entry_id, account_id, entry_type, amount, entry_date, description, created_at, updated_at`

func (s *pgEntries) Insert(ctx context.Context, e *journal.LedgerEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journal.ledger_entries (`+entryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.EntryID, e.AccountID, e.Type, e.Amount, e.Date, e.Description,
		e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

func (s *pgEntries) Get(ctx context.Context, id uuid.UUID) (*journal.LedgerEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+entryColumns+`
		FROM journal.ledger_entries WHERE entry_id = $1`, id)

	var e journal.LedgerEntry
	err := row.Scan(
		&e.EntryID, &e.AccountID, &e.Type, &e.Amount, &e.Date,
		&e.Description, &e.CreatedAt, &e.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("entry %s: %w", id, journal.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan entry: %w", err)
	}
	return &e, nil
}

func (s *pgEntries) Update(ctx context.Context, e *journal.LedgerEntry) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE journal.ledger_entries
		SET entry_type = $2, amount = $3, entry_date = $4, description = $5, updated_at = $6
		WHERE entry_id = $1`,
		e.EntryID, e.Type, e.Amount, e.Date, e.Description, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	return requireRow(res, e.EntryID)
}

func (s *pgEntries) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM journal.ledger_entries WHERE entry_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return requireRow(res, id)
}

func (s *pgEntries) ListByAccount(ctx context.Context, accountID uuid.UUID, f store.EntryFilter) ([]journal.LedgerEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM journal.ledger_entries WHERE account_id = $1`
	args := []interface{}{accountID}

	if f.Type != nil {
		args = append(args, *f.Type)
		query += ` AND entry_type = $` + strconv.Itoa(len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		query += ` AND entry_date >= $` + strconv.Itoa(len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		query += ` AND entry_date <= $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY entry_date DESC, created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var out []journal.LedgerEntry
	for rows.Next() {
		var e journal.LedgerEntry
		if err := rows.Scan(
			&e.EntryID, &e.AccountID, &e.Type, &e.Amount, &e.Date,
			&e.Description, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *pgEntries) SumWindow(ctx context.Context, accountID uuid.UUID, start, end time.Time) (deposits, withdrawals float64, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE entry_type = 'deposit'), 0),
			COALESCE(SUM(amount) FILTER (WHERE entry_type = 'withdrawal'), 0)
		FROM journal.ledger_entries
		WHERE account_id = $1 AND entry_date >= $2 AND entry_date < $3`,
		accountID, start, end,
	).Scan(&deposits, &withdrawals)
	if err != nil {
		return 0, 0, fmt.Errorf("sum entry window: %w", err)
	}
	return deposits, withdrawals, nil
}

func requireRow(res sql.Result, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, journal.ErrNotFound)
	}
	return nil
}
