package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"TradeJournal/internal/journal"
	"TradeJournal/internal/store"

	"github.com/google/uuid"
)

type pgAccounts Store

var _ store.AccountStore = (*pgAccounts)(nil)

const accountColumns = `account_id, user_id, name, balance, position_unit, created_at, updated_at`

func (s *pgAccounts) Insert(ctx context.Context, a *journal.Account) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journal.accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.AccountID, a.UserID, a.Name, a.Balance, a.PositionUnit, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *pgAccounts) Get(ctx context.Context, id uuid.UUID) (*journal.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM journal.accounts WHERE account_id = $1`, id)
	a, err := scanAccount(row)
	if errors.Is(err, journal.ErrNotFound) {
		return nil, fmt.Errorf("account %s: %w", id, journal.ErrAccountNotFound)
	}
	return a, err
}

func (s *pgAccounts) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM journal.accounts WHERE account_id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("account exists: %w", err)
	}
	return exists, nil
}

func (s *pgAccounts) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT account_id FROM journal.accounts`)
	if err != nil {
		return nil, fmt.Errorf("list account ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan account id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AdjustBalance increments the balance in a single UPDATE so concurrent
// adjustments never lose a write.
func (s *pgAccounts) AdjustBalance(ctx context.Context, id uuid.UUID, delta float64) (*journal.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE journal.accounts
		SET balance = balance + $2, updated_at = NOW()
		WHERE account_id = $1
		RETURNING `+accountColumns, id, delta)

	a, err := scanAccount(row)
	if errors.Is(err, journal.ErrNotFound) {
		return nil, fmt.Errorf("account %s: %w", id, journal.ErrAccountNotFound)
	}
	return a, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row rowScanner) (*journal.Account, error) {
	var a journal.Account
	err := row.Scan(
		&a.AccountID, &a.UserID, &a.Name, &a.Balance, &a.PositionUnit,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, journal.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return &a, nil
}
