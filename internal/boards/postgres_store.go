package boards

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS request_boards (
    requests_channel TEXT PRIMARY KEY,
    archive_channel  TEXT NOT NULL,
    manager_role     TEXT NOT NULL,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore keeps boards in the request_boards table. The primary key on
// requests_channel together with INSERT ... ON CONFLICT gives atomic upserts.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore { return &PostgresStore{pool: pool} }

// EnsureSchema creates the request_boards table if it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to create request_boards table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, requestsChannelID string) (*ChannelPair, error) {
	var p ChannelPair
	err := s.pool.QueryRow(ctx, `
        SELECT requests_channel, archive_channel, manager_role
        FROM request_boards WHERE requests_channel=$1
    `, requestsChannelID).Scan(&p.RequestsChannelID, &p.ArchiveChannelID, &p.ManagerRoleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get board: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, pair ChannelPair) error {
	if err := pair.Validate(); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `
        INSERT INTO request_boards (requests_channel, archive_channel, manager_role)
        VALUES ($1,$2,$3)
        ON CONFLICT (requests_channel) DO UPDATE
        SET archive_channel=EXCLUDED.archive_channel, manager_role=EXCLUDED.manager_role, updated_at=now()
    `, pair.RequestsChannelID, pair.ArchiveChannelID, pair.ManagerRoleID)
	if err != nil {
		return fmt.Errorf("failed to upsert board: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, requestsChannelID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM request_boards WHERE requests_channel=$1`, requestsChannelID); err != nil {
		return fmt.Errorf("failed to delete board: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]ChannelPair, error) {
	rows, err := s.pool.Query(ctx, `
        SELECT requests_channel, archive_channel, manager_role
        FROM request_boards ORDER BY requests_channel
    `)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	defer rows.Close()

	out := make([]ChannelPair, 0)
	for rows.Next() {
		var p ChannelPair
		if err := rows.Scan(&p.RequestsChannelID, &p.ArchiveChannelID, &p.ManagerRoleID); err != nil {
			return nil, fmt.Errorf("failed to scan board: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }
