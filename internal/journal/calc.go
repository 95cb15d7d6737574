package journal

import "math"

// TradeMetrics are the derived trade fields. They are a pure function
// of the raw inputs and carry no authority of their own.
type TradeMetrics struct {
	Direction       TradeDirection
	Exposure        float64
	MarginUsed      *float64 // nil when leverage is untracked
	RiskRewardRatio float64
	Duration        *int64   // milliseconds, nil while the trade is open
	RMultiple       *float64 // nil until pnl is known
}

// ComputeMetrics derives the calculated fields from a trade's raw
// inputs. Deterministic and side-effect free; called immediately before
// every persist so a direct field update can never bypass it.
//
// Direction compares takeProfit to entryPrice only; the stop-loss
// placement is not cross-checked. This matches the recorded behavior
// the journal has always had.
//
// When entryPrice == stopLoss the price risk is zero and
// RiskRewardRatio (and RMultiple, when pnl is present) evaluate to
// +Inf. The value is stored as computed, never clamped.
func ComputeMetrics(t *Trade) TradeMetrics {
	m := TradeMetrics{
		Direction: DirectionShort,
		Exposure:  t.PositionSize * t.EntryPrice,
	}

	if t.TakeProfit > t.EntryPrice {
		m.Direction = DirectionLong
	}

	if t.Leverage != nil {
		margin := m.Exposure / *t.Leverage
		m.MarginUsed = &margin
	}

	risk := math.Abs(t.EntryPrice - t.StopLoss)
	reward := math.Abs(t.TakeProfit - t.EntryPrice)
	if risk == 0 {
		// Avoid reward/risk here: at reward == 0 that is 0/0 = NaN.
		m.RiskRewardRatio = math.Inf(1)
	} else {
		m.RiskRewardRatio = reward / risk
	}

	if t.ExitDate != nil && !t.OpenDate.IsZero() {
		ms := t.ExitDate.Sub(t.OpenDate).Milliseconds()
		m.Duration = &ms
	}

	if t.PnL != nil {
		r := math.Inf(1)
		if risk != 0 {
			r = *t.PnL / (risk * t.PositionSize)
		}
		m.RMultiple = &r
	}

	return m
}
