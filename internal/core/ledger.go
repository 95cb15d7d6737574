package core

import (
	"context"
	"fmt"
	"time"

	"TradeJournal/internal/journal"
	"TradeJournal/internal/store"

	"github.com/google/uuid"
)

// Ledger operations. Each mutation pairs the entry write with exactly
// one balance adjustment, serialized per account by the lock table so
// two writers can never interleave their read-modify-write units. If
// the adjustment fails after the entry write succeeded, the entry
// write is compensated and the whole operation reports failure.
// A persisted entry without its balance effect is the failure mode
// this file exists to prevent.

const (
	sourceEntryRecord = "entry_record"
	sourceEntryAmend  = "entry_amend"
	sourceEntryRemove = "entry_remove"
)

// RecordEntry validates and persists a deposit or withdrawal, then
// applies its signed amount to the account balance.
func (e *Engine) RecordEntry(ctx context.Context, in journal.RecordEntryInput) (entry *journal.LedgerEntry, err error) {
	defer func(start time.Time) { e.observe("record_entry", start, err) }(e.now())

	now := e.now()
	entry = &journal.LedgerEntry{
		EntryID:     uuid.New(),
		AccountID:   in.AccountID,
		Type:        in.Type,
		Amount:      in.Amount,
		Date:        in.Date,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err = entry.Validate(); err != nil {
		return nil, err
	}

	unlock := e.locks.acquire(accountKey(in.AccountID))
	defer unlock()

	if err = e.requireAccount(ctx, in.AccountID); err != nil {
		return nil, err
	}

	if err = e.entries.Insert(ctx, entry); err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}

	acct, err := e.balance.Apply(ctx, in.AccountID, entry.SignedAmount(), sourceEntryRecord)
	if err != nil {
		// Undo the entry write so ledger and balance stay consistent.
		if delErr := e.entries.Delete(ctx, entry.EntryID); delErr != nil {
			e.log.Error().Err(delErr).
				Str("entry_id", entry.EntryID.String()).
				Msg("compensation failed: orphaned ledger entry")
		}
		return nil, fmt.Errorf("record entry: %w", err)
	}

	if e.metrics != nil {
		e.metrics.EntriesRecorded.WithLabelValues(string(entry.Type)).Inc()
	}
	e.log.Info().
		Str("entry_id", entry.EntryID.String()).
		Str("account_id", in.AccountID.String()).
		Str("type", string(entry.Type)).
		Float64("amount", entry.Amount).
		Float64("balance", acct.Balance).
		Msg("ledger entry recorded")

	e.emit(ctx, Event{
		Kind:      EventEntryRecorded,
		AccountID: in.AccountID,
		EntityID:  entry.EntryID,
		Delta:     entry.SignedAmount(),
		Balance:   acct.Balance,
		Timestamp: now,
	})
	return entry, nil
}

// AmendEntry patches an entry and applies the compensating delta
// newSigned - oldSigned to the account balance. The original entry is
// read before it is overwritten.
func (e *Engine) AmendEntry(ctx context.Context, id uuid.UUID, in journal.AmendEntryInput) (entry *journal.LedgerEntry, err error) {
	defer func(start time.Time) { e.observe("amend_entry", start, err) }(e.now())

	// The lock key needs the account, which lives on the entry. Read
	// once unlocked to learn it, then re-read under the lock.
	peek, err := e.entries.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	unlock := e.locks.acquire(accountKey(peek.AccountID))
	defer unlock()

	orig, err := e.entries.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	patched := *orig
	if in.Type != nil {
		patched.Type = *in.Type
	}
	if in.Amount != nil {
		patched.Amount = *in.Amount
	}
	if in.Date != nil {
		patched.Date = *in.Date
	}
	if in.Description != nil {
		patched.Description = *in.Description
	}
	patched.UpdatedAt = e.now()

	if err = patched.Validate(); err != nil {
		return nil, err
	}

	if err = e.entries.Update(ctx, &patched); err != nil {
		return nil, fmt.Errorf("update entry: %w", err)
	}

	delta := patched.SignedAmount() - orig.SignedAmount()
	var acct *journal.Account
	if delta != 0 {
		if acct, err = e.balance.Apply(ctx, orig.AccountID, delta, sourceEntryAmend); err != nil {
			if restoreErr := e.entries.Update(ctx, orig); restoreErr != nil {
				e.log.Error().Err(restoreErr).
					Str("entry_id", id.String()).
					Msg("compensation failed: entry amended without balance adjustment")
			}
			return nil, fmt.Errorf("amend entry: %w", err)
		}
	} else if acct, err = e.accounts.Get(ctx, orig.AccountID); err != nil {
		return nil, fmt.Errorf("account lookup after amend: %w", err)
	}

	if e.metrics != nil {
		e.metrics.EntriesAmended.Inc()
	}
	e.log.Info().
		Str("entry_id", id.String()).
		Str("account_id", orig.AccountID.String()).
		Float64("delta", delta).
		Float64("balance", acct.Balance).
		Msg("ledger entry amended")

	e.emit(ctx, Event{
		Kind:      EventEntryAmended,
		AccountID: orig.AccountID,
		EntityID:  id,
		Delta:     delta,
		Balance:   acct.Balance,
		Timestamp: patched.UpdatedAt,
	})
	return &patched, nil
}

// RemoveEntry reverses the entry's balance effect, then deletes it.
func (e *Engine) RemoveEntry(ctx context.Context, id uuid.UUID) (entry *journal.LedgerEntry, err error) {
	defer func(start time.Time) { e.observe("remove_entry", start, err) }(e.now())

	peek, err := e.entries.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	unlock := e.locks.acquire(accountKey(peek.AccountID))
	defer unlock()

	orig, err := e.entries.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	acct, err := e.balance.Apply(ctx, orig.AccountID, -orig.SignedAmount(), sourceEntryRemove)
	if err != nil {
		return nil, fmt.Errorf("remove entry: %w", err)
	}

	if err = e.entries.Delete(ctx, id); err != nil {
		// Re-apply the reversed amount; the entry still exists.
		if _, compErr := e.balance.Apply(ctx, orig.AccountID, orig.SignedAmount(), sourceEntryRemove); compErr != nil {
			e.log.Error().Err(compErr).
				Str("entry_id", id.String()).
				Msg("compensation failed: balance reversed but entry not deleted")
		}
		return nil, fmt.Errorf("delete entry: %w", err)
	}

	if e.metrics != nil {
		e.metrics.EntriesRemoved.Inc()
	}
	e.log.Info().
		Str("entry_id", id.String()).
		Str("account_id", orig.AccountID.String()).
		Float64("delta", -orig.SignedAmount()).
		Float64("balance", acct.Balance).
		Msg("ledger entry removed")

	e.emit(ctx, Event{
		Kind:      EventEntryRemoved,
		AccountID: orig.AccountID,
		EntityID:  id,
		Delta:     -orig.SignedAmount(),
		Balance:   acct.Balance,
		Timestamp: e.now(),
	})
	return orig, nil
}

// GetEntry resolves one ledger entry by id.
func (e *Engine) GetEntry(ctx context.Context, id uuid.UUID) (*journal.LedgerEntry, error) {
	return e.entries.Get(ctx, id)
}

// ListEntries returns an account's entries, newest first, optionally
// filtered by type and date range.
func (e *Engine) ListEntries(ctx context.Context, accountID uuid.UUID, f store.EntryFilter) ([]journal.LedgerEntry, error) {
	return e.entries.ListByAccount(ctx, accountID, f)
}
