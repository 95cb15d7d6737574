package core

import (
	"context"
	"fmt"
	"time"

	"TradeJournal/internal/journal"
	"TradeJournal/internal/store"

	"github.com/google/uuid"
)

// Trade lifecycle. Derived fields are recomputed through
// journal.ComputeMetrics before every persist, close included, so
// stored metrics can never go stale relative to the
// raw fields. Close is the one transition that touches the account
// balance: realized pnl goes through the accumulator under the same
// per-account lock the ledger uses.

const sourceTradeClose = "trade_close"

// OpenTrade creates a trade in open status with its metrics computed.
func (e *Engine) OpenTrade(ctx context.Context, in journal.OpenTradeInput) (trade *journal.Trade, err error) {
	defer func(start time.Time) { e.observe("open_trade", start, err) }(e.now())

	now := e.now()
	trade = &journal.Trade{
		TradeID:      uuid.New(),
		AccountID:    in.AccountID,
		Symbol:       in.Symbol,
		EntryPrice:   in.EntryPrice,
		StopLoss:     in.StopLoss,
		TakeProfit:   in.TakeProfit,
		PositionSize: in.PositionSize,
		Leverage:     in.Leverage,
		OpenDate:     in.OpenDate,
		Notes:        in.Notes,
		Status:       journal.TradeStatusOpen,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err = trade.Validate(); err != nil {
		return nil, err
	}

	if err = e.requireAccount(ctx, in.AccountID); err != nil {
		return nil, err
	}

	trade.Metrics = journal.ComputeMetrics(trade)

	if err = e.trades.Insert(ctx, trade); err != nil {
		return nil, fmt.Errorf("insert trade: %w", err)
	}

	if e.metrics != nil {
		e.metrics.TradesOpened.Inc()
	}
	e.log.Info().
		Str("trade_id", trade.TradeID.String()).
		Str("account_id", in.AccountID.String()).
		Str("symbol", trade.Symbol).
		Str("direction", string(trade.Metrics.Direction)).
		Msg("trade opened")

	e.emit(ctx, Event{
		Kind:      EventTradeOpened,
		AccountID: in.AccountID,
		EntityID:  trade.TradeID,
		Timestamp: now,
	})
	return trade, nil
}

// UpdateTrade patches a trade's raw fields and recomputes the derived
// ones. The write is conditional on the status observed here, so an
// update racing a close or cancel fails with ErrConflict instead of
// silently resurrecting stale state.
func (e *Engine) UpdateTrade(ctx context.Context, id uuid.UUID, in journal.UpdateTradeInput) (trade *journal.Trade, err error) {
	defer func(start time.Time) { e.observe("update_trade", start, err) }(e.now())

	orig, err := e.trades.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	patched := *orig
	if in.Symbol != nil {
		patched.Symbol = *in.Symbol
	}
	if in.EntryPrice != nil {
		patched.EntryPrice = *in.EntryPrice
	}
	if in.StopLoss != nil {
		patched.StopLoss = *in.StopLoss
	}
	if in.TakeProfit != nil {
		patched.TakeProfit = *in.TakeProfit
	}
	if in.PositionSize != nil {
		patched.PositionSize = *in.PositionSize
	}
	if in.Leverage != nil {
		patched.Leverage = in.Leverage
	}
	if in.OpenDate != nil {
		patched.OpenDate = *in.OpenDate
	}
	if in.Notes != nil {
		patched.Notes = *in.Notes
	}
	patched.UpdatedAt = e.now()

	if err = patched.Validate(); err != nil {
		return nil, err
	}

	patched.Metrics = journal.ComputeMetrics(&patched)

	if err = e.trades.Update(ctx, &patched, orig.Status); err != nil {
		return nil, fmt.Errorf("update trade: %w", err)
	}
	return &patched, nil
}

// CloseTrade transitions an open trade to closed, records the exit
// fields, recomputes metrics, and applies the realized pnl to the
// account balance.
func (e *Engine) CloseTrade(ctx context.Context, id uuid.UUID, in journal.CloseTradeInput) (trade *journal.Trade, err error) {
	defer func(start time.Time) { e.observe("close_trade", start, err) }(e.now())

	if in.ExitDate.IsZero() {
		return nil, fmt.Errorf("%w: close has no exit date", journal.ErrInvalidInput)
	}
	if !in.Result.Valid() {
		return nil, fmt.Errorf("%w: close result %q", journal.ErrInvalidInput, in.Result)
	}

	peek, err := e.trades.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	unlock := e.locks.acquire(accountKey(peek.AccountID))
	defer unlock()

	orig, err := e.trades.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if orig.Status != journal.TradeStatusOpen {
		return nil, fmt.Errorf("trade %s is %s: %w", id, orig.Status, journal.ErrConflict)
	}

	closed := *orig
	exitDate := in.ExitDate
	pnl := in.PnL
	closed.Status = journal.TradeStatusClosed
	closed.ExitDate = &exitDate
	closed.PnL = &pnl
	closed.Result = in.Result
	closed.UpdatedAt = e.now()
	closed.Metrics = journal.ComputeMetrics(&closed)

	if err = e.trades.Update(ctx, &closed, journal.TradeStatusOpen); err != nil {
		return nil, fmt.Errorf("close trade: %w", err)
	}

	acct, err := e.balance.Apply(ctx, orig.AccountID, pnl, sourceTradeClose)
	if err != nil {
		// Reopen the trade; its pnl never reached the balance.
		if restoreErr := e.trades.Update(ctx, orig, journal.TradeStatusClosed); restoreErr != nil {
			e.log.Error().Err(restoreErr).
				Str("trade_id", id.String()).
				Msg("compensation failed: trade closed without balance adjustment")
		}
		return nil, fmt.Errorf("close trade: %w", err)
	}

	if e.metrics != nil {
		e.metrics.TradesClosed.Inc()
	}
	e.log.Info().
		Str("trade_id", id.String()).
		Str("account_id", orig.AccountID.String()).
		Float64("pnl", pnl).
		Float64("balance", acct.Balance).
		Msg("trade closed")

	e.emit(ctx, Event{
		Kind:      EventTradeClosed,
		AccountID: orig.AccountID,
		EntityID:  id,
		Delta:     pnl,
		Balance:   acct.Balance,
		Timestamp: closed.UpdatedAt,
	})
	return &closed, nil
}

// CancelTrade transitions an open trade to cancelled. No balance
// effect; a cancelled trade never had realized pnl.
func (e *Engine) CancelTrade(ctx context.Context, id uuid.UUID) (trade *journal.Trade, err error) {
	defer func(start time.Time) { e.observe("cancel_trade", start, err) }(e.now())

	orig, err := e.trades.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if orig.Status != journal.TradeStatusOpen {
		return nil, fmt.Errorf("trade %s is %s: %w", id, orig.Status, journal.ErrConflict)
	}

	cancelled := *orig
	cancelled.Status = journal.TradeStatusCancelled
	cancelled.UpdatedAt = e.now()

	if err = e.trades.Update(ctx, &cancelled, journal.TradeStatusOpen); err != nil {
		return nil, fmt.Errorf("cancel trade: %w", err)
	}

	if e.metrics != nil {
		e.metrics.TradesCancelled.Inc()
	}
	return &cancelled, nil
}

// GetTrade resolves one trade by id.
func (e *Engine) GetTrade(ctx context.Context, id uuid.UUID) (*journal.Trade, error) {
	return e.trades.Get(ctx, id)
}

// ListTrades returns an account's trades, newest openDate first,
// optionally filtered by status.
func (e *Engine) ListTrades(ctx context.Context, accountID uuid.UUID, f store.TradeFilter) ([]journal.Trade, error) {
	return e.trades.ListByAccount(ctx, accountID, f)
}
