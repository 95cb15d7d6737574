package journal

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Snapshot is a date-keyed closing-balance record for one account.
// At most one snapshot exists per (account, day). Deposits and
// Withdrawals are nil when the day's sum is zero.
type Snapshot struct {
	SnapshotID  uuid.UUID
	AccountID   uuid.UUID
	Date        time.Time
	Balance     float64
	DailyPnL    float64
	Deposits    *float64
	Withdrawals *float64
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks snapshot field constraints.
func (s *Snapshot) Validate() error {
	if s.AccountID == uuid.Nil {
		return fmt.Errorf("%w: snapshot has no account", ErrInvalidInput)
	}
	if s.Date.IsZero() {
		return fmt.Errorf("%w: snapshot has no date", ErrInvalidInput)
	}
	if s.Deposits != nil && *s.Deposits < 0 {
		return fmt.Errorf("%w: snapshot deposits cannot be negative", ErrInvalidInput)
	}
	if s.Withdrawals != nil && *s.Withdrawals < 0 {
		return fmt.Errorf("%w: snapshot withdrawals cannot be negative", ErrInvalidInput)
	}
	return nil
}

// DayWindow normalizes a timestamp to its day's half-open window
// [startOfDay, nextDay), computed in the timestamp's own location.
func DayWindow(at time.Time) (start, end time.Time) {
	y, m, d := at.Date()
	start = time.Date(y, m, d, 0, 0, 0, 0, at.Location())
	return start, start.AddDate(0, 0, 1)
}
