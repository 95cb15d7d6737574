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

type pgTrades Store

var _ store.TradeStore = (*pgTrades)(nil)

// Derived metric columns are stored alongside the raw fields so list
// queries never recompute them. The engine recomputes before every
// write, so the stored values track the raw fields exactly.
const tradeColumns = `trade_id, account_id, symbol, entry_price, stop_loss, take_profit,
	position_size, leverage, open_date, notes, status, exit_date, pnl, result,
	direction, exposure, margin_used, risk_reward_ratio, duration_ms, r_multiple,
	created_at, updated_at`

func (s *pgTrades) Insert(ctx context.Context, t *journal.Trade) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journal.trades (`+tradeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22)`,
		t.TradeID, t.AccountID, t.Symbol, t.EntryPrice, t.StopLoss, t.TakeProfit,
		t.PositionSize, t.Leverage, t.OpenDate, t.Notes, t.Status, t.ExitDate,
		t.PnL, nullableResult(t.Result),
		t.Metrics.Direction, t.Metrics.Exposure, t.Metrics.MarginUsed,
		t.Metrics.RiskRewardRatio, t.Metrics.Duration, t.Metrics.RMultiple,
		t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

func (s *pgTrades) Get(ctx context.Context, id uuid.UUID) (*journal.Trade, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+tradeColumns+`
		FROM journal.trades WHERE trade_id = $1`, id)

	t, err := scanTrade(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("trade %s: %w", id, journal.ErrNotFound)
	}
	return t, err
}

// Update overwrites the trade only when the stored status matches
// expect. Zero rows affected means either the trade is gone or another
// writer changed the status first.
func (s *pgTrades) Update(ctx context.Context, t *journal.Trade, expect journal.TradeStatus) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE journal.trades
		SET symbol = $2, entry_price = $3, stop_loss = $4, take_profit = $5,
			position_size = $6, leverage = $7, open_date = $8, notes = $9,
			status = $10, exit_date = $11, pnl = $12, result = $13,
			direction = $14, exposure = $15, margin_used = $16,
			risk_reward_ratio = $17, duration_ms = $18, r_multiple = $19,
			updated_at = $20
		WHERE trade_id = $1 AND status = $21`,
		t.TradeID, t.Symbol, t.EntryPrice, t.StopLoss, t.TakeProfit,
		t.PositionSize, t.Leverage, t.OpenDate, t.Notes, t.Status, t.ExitDate,
		t.PnL, nullableResult(t.Result),
		t.Metrics.Direction, t.Metrics.Exposure, t.Metrics.MarginUsed,
		t.Metrics.RiskRewardRatio, t.Metrics.Duration, t.Metrics.RMultiple,
		t.UpdatedAt, expect,
	)
	if err != nil {
		return fmt.Errorf("update trade: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		exists, err := s.exists(ctx, t.TradeID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("trade %s: %w", t.TradeID, journal.ErrNotFound)
		}
		return fmt.Errorf("trade %s is not %s: %w", t.TradeID, expect, journal.ErrConflict)
	}
	return nil
}

func (s *pgTrades) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM journal.trades WHERE trade_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete trade: %w", err)
	}
	return requireRow(res, id)
}

func (s *pgTrades) ListByAccount(ctx context.Context, accountID uuid.UUID, f store.TradeFilter) ([]journal.Trade, error) {
	query := `
		SELECT ` + tradeColumns + `
		FROM journal.trades WHERE account_id = $1`
	args := []interface{}{accountID}

	if f.Status != nil {
		args = append(args, *f.Status)
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY open_date DESC, created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list trades: %w", err)
	}
	defer rows.Close()

	var out []journal.Trade
	for rows.Next() {
		t, err := scanTrade(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (s *pgTrades) SumClosedPnL(ctx context.Context, accountID uuid.UUID, start, end time.Time) (float64, error) {
	var sum float64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(pnl), 0)
		FROM journal.trades
		WHERE account_id = $1 AND status = 'closed'
			AND exit_date >= $2 AND exit_date < $3`,
		accountID, start, end,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum closed pnl: %w", err)
	}
	return sum, nil
}

func (s *pgTrades) exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM journal.trades WHERE trade_id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("trade exists: %w", err)
	}
	return exists, nil
}

func scanTrade(scan func(dest ...interface{}) error) (*journal.Trade, error) {
	var (
		t      journal.Trade
		result sql.NullString
	)
	err := scan(
		&t.TradeID, &t.AccountID, &t.Symbol, &t.EntryPrice, &t.StopLoss,
		&t.TakeProfit, &t.PositionSize, &t.Leverage, &t.OpenDate, &t.Notes,
		&t.Status, &t.ExitDate, &t.PnL, &result,
		&t.Metrics.Direction, &t.Metrics.Exposure, &t.Metrics.MarginUsed,
		&t.Metrics.RiskRewardRatio, &t.Metrics.Duration, &t.Metrics.RMultiple,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan trade: %w", err)
	}
	if result.Valid {
		t.Result = journal.TradeResult(result.String)
	}
	return &t, nil
}

// nullableResult maps the unset result to SQL NULL instead of an empty
// string, keeping the result column queryable with plain equality.
func nullableResult(r journal.TradeResult) sql.NullString {
	if r == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: string(r), Valid: true}
}
