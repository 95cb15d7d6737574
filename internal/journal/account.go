package journal

import (
	"time"

	"github.com/google/uuid"
)

// PositionUnit is the unit a trade's position size is expressed in.
// It is carried as a label only; the engine performs no conversion.
type PositionUnit string

const (
	PositionUnitUSD PositionUnit = "usd"
	PositionUnitLot PositionUnit = "lot"
)

// Valid reports whether the unit is one of the known values.
func (u PositionUnit) Valid() bool {
	return u == PositionUnitUSD || u == PositionUnitLot
}

// Account is a trading account owned by one user. Balance is a
// materialized aggregate: it equals the sum of all deposits minus all
// withdrawals plus all closed-trade P&L applied to the account, in
// entry order. Only the balance accumulator mutates it.
type Account struct {
	AccountID    uuid.UUID
	UserID       uuid.UUID
	Name         string
	Balance      float64
	PositionUnit PositionUnit
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
