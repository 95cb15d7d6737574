package core

import (
	"context"
	"fmt"

	"TradeJournal/internal/journal"
	"TradeJournal/internal/observability"
	"TradeJournal/internal/store"

	"github.com/google/uuid"
)

// BalanceAccumulator is the single entry point through which every
// operation mutates an account balance. It applies signed deltas
// incrementally through the store's atomic increment, so concurrent
// writers cannot observe a half-applied state. Call sites do not
// hand-roll their own increments or recompute from scratch.
//
// A withdrawal larger than the current balance is applied as-is; the
// ledger records what happened, it does not police overdrafts.
type BalanceAccumulator struct {
	accounts store.AccountStore
	metrics  *observability.Metrics
}

func NewBalanceAccumulator(accounts store.AccountStore, metrics *observability.Metrics) *BalanceAccumulator {
	return &BalanceAccumulator{accounts: accounts, metrics: metrics}
}

// Apply adds delta to the account's balance and returns the updated
// account. source names the originating operation for metrics. Fails
// with journal.ErrAccountNotFound if the account does not exist.
func (a *BalanceAccumulator) Apply(ctx context.Context, accountID uuid.UUID, delta float64, source string) (*journal.Account, error) {
	acct, err := a.accounts.AdjustBalance(ctx, accountID, delta)
	if err != nil {
		if a.metrics != nil {
			a.metrics.BalanceAdjustFailed.WithLabelValues(source).Inc()
		}
		return nil, fmt.Errorf("adjust balance of %s by %v: %w", accountID, delta, err)
	}

	if a.metrics != nil {
		a.metrics.BalanceAdjustments.WithLabelValues(source).Inc()
	}
	return acct, nil
}
