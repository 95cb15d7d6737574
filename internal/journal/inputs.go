package journal

import (
	"time"

	"github.com/google/uuid"
)

// Typed operation inputs handed to the engine by the transport layer.
// The transport validates shape and types; the engine re-checks the
// domain constraints defensively.

// RecordEntryInput creates a ledger entry.
type RecordEntryInput struct {
	AccountID   uuid.UUID
	Type        EntryType
	Amount      float64
	Date        time.Time
	Description string
}

// AmendEntryInput patches an existing ledger entry. Nil fields are
// left unchanged.
type AmendEntryInput struct {
	Type        *EntryType
	Amount      *float64
	Date        *time.Time
	Description *string
}

// OpenTradeInput creates a trade in open status.
type OpenTradeInput struct {
	AccountID    uuid.UUID
	Symbol       string
	EntryPrice   float64
	StopLoss     float64
	TakeProfit   float64
	PositionSize float64
	Leverage     *float64
	OpenDate     time.Time
	Notes        string
}

// UpdateTradeInput patches an open trade's raw fields. Nil fields are
// left unchanged; derived fields are always recomputed.
type UpdateTradeInput struct {
	Symbol       *string
	EntryPrice   *float64
	StopLoss     *float64
	TakeProfit   *float64
	PositionSize *float64
	Leverage     *float64
	OpenDate     *time.Time
	Notes        *string
}

// CloseTradeInput transitions a trade from open to closed.
type CloseTradeInput struct {
	ExitDate time.Time
	PnL      float64
	Result   TradeResult
}

// CreateSnapshotInput inserts a snapshot directly, bypassing the
// builder arithmetic but not the uniqueness constraint.
type CreateSnapshotInput struct {
	AccountID   uuid.UUID
	Date        time.Time
	Balance     float64
	DailyPnL    float64
	Deposits    *float64
	Withdrawals *float64
	Notes       string
}

// UpdateSnapshotInput edits a snapshot in place. The caller owns
// re-deriving any snapshots built on top of the edited one.
type UpdateSnapshotInput struct {
	Balance     *float64
	DailyPnL    *float64
	Deposits    *float64
	Withdrawals *float64
	Notes       *string
}
