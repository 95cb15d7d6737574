package journal

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TradeStatus is the trade lifecycle state.
type TradeStatus string

const (
	TradeStatusOpen      TradeStatus = "open"
	TradeStatusClosed    TradeStatus = "closed"
	TradeStatusCancelled TradeStatus = "cancelled"
)

// Valid reports whether the status is one of the known values.
func (s TradeStatus) Valid() bool {
	return s == TradeStatusOpen || s == TradeStatusClosed || s == TradeStatusCancelled
}

// TradeDirection is derived from the price levels, never supplied.
type TradeDirection string

const (
	DirectionLong  TradeDirection = "long"
	DirectionShort TradeDirection = "short"
)

// TradeResult is the caller's classification of a closed trade.
type TradeResult string

const (
	ResultWin        TradeResult = "win"
	ResultLoss       TradeResult = "loss"
	ResultBreakeven  TradeResult = "breakeven"
	ResultPartialWin TradeResult = "partial-win"
)

// Valid reports whether the result is one of the known values.
func (r TradeResult) Valid() bool {
	switch r {
	case ResultWin, ResultLoss, ResultBreakeven, ResultPartialWin:
		return true
	}
	return false
}

// Trade is one journaled trade. The Metrics block is recomputed from
// the raw fields on every create and every field-affecting update,
// including close; stored derived values are never trusted.
type Trade struct {
	TradeID      uuid.UUID
	AccountID    uuid.UUID
	Symbol       string
	EntryPrice   float64
	StopLoss     float64
	TakeProfit   float64
	PositionSize float64
	Leverage     *float64 // nil when untracked; >= 1 otherwise
	OpenDate     time.Time
	Notes        string

	Status   TradeStatus
	ExitDate *time.Time
	PnL      *float64
	Result   TradeResult // empty until closed

	Metrics TradeMetrics

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsClosed reports whether the trade has transitioned to closed.
func (t *Trade) IsClosed() bool {
	return t.Status == TradeStatusClosed
}

// Validate checks the raw-field constraints.
func (t *Trade) Validate() error {
	if t.AccountID == uuid.Nil {
		return fmt.Errorf("%w: trade has no account", ErrInvalidInput)
	}
	if t.Symbol == "" {
		return fmt.Errorf("%w: trade has no symbol", ErrInvalidInput)
	}
	if t.EntryPrice <= 0 {
		return fmt.Errorf("%w: entry price must be positive, got %v", ErrInvalidInput, t.EntryPrice)
	}
	if t.StopLoss <= 0 {
		return fmt.Errorf("%w: stop loss must be positive, got %v", ErrInvalidInput, t.StopLoss)
	}
	if t.TakeProfit <= 0 {
		return fmt.Errorf("%w: take profit must be positive, got %v", ErrInvalidInput, t.TakeProfit)
	}
	if t.PositionSize <= 0 {
		return fmt.Errorf("%w: position size must be positive, got %v", ErrInvalidInput, t.PositionSize)
	}
	if t.Leverage != nil && *t.Leverage < 1 {
		return fmt.Errorf("%w: leverage must be at least 1, got %v", ErrInvalidInput, *t.Leverage)
	}
	if t.OpenDate.IsZero() {
		return fmt.Errorf("%w: trade has no open date", ErrInvalidInput)
	}
	if !t.Status.Valid() {
		return fmt.Errorf("%w: trade status %q", ErrInvalidInput, t.Status)
	}
	if t.Result != "" && !t.Result.Valid() {
		return fmt.Errorf("%w: trade result %q", ErrInvalidInput, t.Result)
	}
	return nil
}
