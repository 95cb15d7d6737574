package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"TradeJournal/internal/store"

	_ "github.com/lib/pq"
)

// Store is the Postgres-backed storage layer. One *sql.DB is shared by
// the four typed views; the pool does the connection management.
type Store struct {
	db *sql.DB
}

// PoolConfig bounds the sql.DB connection pool.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open connects to Postgres, verifies the connection, and returns the
// storage layer.
func Open(ctx context.Context, dsn string, pool PoolConfig) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStore wraps an existing database handle. The caller keeps
// ownership of the handle's lifecycle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for migrations and health checks.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// Accounts returns the account view.
func (s *Store) Accounts() store.AccountStore { return (*pgAccounts)(s) }

// Entries returns the ledger entry view.
func (s *Store) Entries() store.EntryStore { return (*pgEntries)(s) }

// Trades returns the trade view.
func (s *Store) Trades() store.TradeStore { return (*pgTrades)(s) }

// Snapshots returns the snapshot view.
func (s *Store) Snapshots() store.SnapshotStore { return (*pgSnapshots)(s) }
