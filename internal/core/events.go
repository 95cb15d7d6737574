package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventKind discriminates committed-mutation events on the outbound feed.
type EventKind string

const (
	EventEntryRecorded EventKind = "entry_recorded"
	EventEntryAmended  EventKind = "entry_amended"
	EventEntryRemoved  EventKind = "entry_removed"
	EventTradeOpened   EventKind = "trade_opened"
	EventTradeClosed   EventKind = "trade_closed"
	EventSnapshotBuilt EventKind = "snapshot_built"
)

// Event describes one committed mutation. Delta is the balance effect
// the mutation had (zero for trade open); Balance is the account
// balance after it was applied.
type Event struct {
	Kind      EventKind `json:"kind"`
	AccountID uuid.UUID `json:"account_id"`
	EntityID  uuid.UUID `json:"entity_id"`
	Delta     float64   `json:"delta"`
	Balance   float64   `json:"balance"`
	Timestamp time.Time `json:"timestamp"`
}

// EventSink receives events after the originating operation has
// committed. Implementations must not fail the operation: publishing
// is best-effort by contract.
type EventSink interface {
	Publish(ctx context.Context, evt Event)
}
