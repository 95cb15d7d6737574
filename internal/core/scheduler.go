package core

import (
	"context"
	"errors"
	"time"

	"TradeJournal/internal/journal"
)

// SnapshotScheduler builds the previous day's snapshot for every
// account on a fixed interval. Accounts already snapshotted for that
// day are skipped, so running it more often than daily is harmless.
type SnapshotScheduler struct {
	engine   *Engine
	interval time.Duration
}

func NewSnapshotScheduler(engine *Engine, interval time.Duration) *SnapshotScheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &SnapshotScheduler{engine: engine, interval: interval}
}

// Run loops until the context is cancelled. One pass runs immediately
// on start.
func (s *SnapshotScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.pass(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pass(ctx)
		}
	}
}

func (s *SnapshotScheduler) pass(ctx context.Context) {
	yesterday := s.engine.now().AddDate(0, 0, -1)

	ids, err := s.engine.accounts.ListIDs(ctx)
	if err != nil {
		s.engine.log.Error().Err(err).Msg("snapshot pass: list accounts")
		return
	}

	for _, id := range ids {
		_, err := s.engine.BuildSnapshot(ctx, id, yesterday, "")
		if errors.Is(err, journal.ErrDuplicateSnapshot) {
			continue
		}
		if err != nil {
			s.engine.log.Error().Err(err).
				Str("account_id", id.String()).
				Msg("snapshot pass: build failed")
		}
	}
}
