package audit

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const insertEventQuery = `
INSERT INTO audit_events (
	id, created_at, principal_id, agent_id, tier,
	resource, action, outcome, rule, reason,
	region, request_id, ip
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

// PostgresStorage persists decision records in the audit_events table.
// Batches go through a single pgx batch inside one transaction so a
// partial failure never leaves half a batch behind.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage creates a storage over an existing connection pool.
func NewPostgresStorage(pool *pgxpool.Pool) (*PostgresStorage, error) {
	if pool == nil {
		return nil, ErrStorageRequired
	}
	return &PostgresStorage{pool: pool}, nil
}

func (s *PostgresStorage) Store(ctx context.Context, event Event) error {
	if _, err := s.pool.Exec(ctx, insertEventQuery, eventArgs(event)...); err != nil {
		return errors.Join(ErrStorageUnavailable, err)
	}
	return nil
}

func (s *PostgresStorage) StoreBatch(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, event := range events {
		batch.Queue(insertEventQuery, eventArgs(event)...)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return errors.Join(ErrStorageUnavailable, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return errors.Join(ErrStorageUnavailable, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return errors.Join(ErrStorageUnavailable, err)
	}
	return nil
}

func eventArgs(event Event) []any {
	return []any{
		event.ID, event.Timestamp, event.PrincipalID, event.AgentID, event.Tier,
		event.Resource, event.Action, string(event.Outcome), event.Rule, event.Reason,
		event.Region, event.RequestID, event.IP,
	}
}
