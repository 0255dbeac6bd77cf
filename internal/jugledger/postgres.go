package jugledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// advisoryLockKey serialises Save calls across every process sharing the
// database. The value is arbitrary but must not change between releases.
const advisoryLockKey = int64(2_024_010_110)

// PostgresStore persists the ledger in a PostgreSQL table. Row order is kept
// in the idx column; Save rewrites the table inside one transaction.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore creates a PostgresStore backed by the given connection pool.
func NewPostgresStore(pool *pgxpool.Pool, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{pool: pool, logger: logger}
}

// Init implements Store.
func (s *PostgresStore) Init(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS jug_events (
			idx       INTEGER PRIMARY KEY,
			jug_name  TEXT NOT NULL,
			state     TEXT NOT NULL,
			date_time TEXT NOT NULL
		)`); err != nil {
		return fmt.Errorf("create jug_events: %w", err)
	}
	return nil
}

// Load implements Store.
func (s *PostgresStore) Load(ctx context.Context) ([]Event, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT jug_name, state, date_time FROM jug_events ORDER BY idx ASC")
	if err != nil {
		return nil, fmt.Errorf("%w: query jug_events: %v", ErrStorageUnreadable, err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var state string
		if err := rows.Scan(&e.JugName, &state, &e.DateTime); err != nil {
			return nil, fmt.Errorf("%w: scan jug_events: %v", ErrStorageUnreadable, err)
		}
		e.State = State(state)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnreadable, err)
	}
	return events, nil
}

// Save implements Store. The table is emptied and refilled under a
// transaction-scoped advisory lock.
func (s *PostgresStore) Save(ctx context.Context, events []Event) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", advisoryLockKey); err != nil {
		return fmt.Errorf("acquire advisory lock: %w", err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM jug_events"); err != nil {
		return fmt.Errorf("clear jug_events: %w", err)
	}

	n, err := tx.CopyFrom(ctx,
		pgx.Identifier{"jug_events"},
		[]string{"idx", "jug_name", "state", "date_time"},
		pgx.CopyFromSlice(len(events), func(i int) ([]any, error) {
			e := events[i]
			return []any{i, e.JugName, string(e.State), e.DateTime}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy jug_events: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit jug_events: %w", err)
	}

	s.logger.Debug("ledger rewritten", zap.Int64("rows", n))
	return nil
}

// Raw implements Store by rendering the table in the CSV layout.
func (s *PostgresStore) Raw(ctx context.Context) ([]byte, error) {
	events, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return renderCSV(events)
}
