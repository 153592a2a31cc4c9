package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is the snapshot store for deployments with a shared
// database. The snapshots table must exist (see schema below).
//
//	CREATE TABLE IF NOT EXISTS snapshots (
//	  id         UUID PRIMARY KEY,
//	  kind       TEXT NOT NULL,
//	  theme      TEXT,
//	  html       TEXT NOT NULL,
//	  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
type PostgresStore struct {
	pool *pgxpool.Pool
}

// ConnectPostgres establishes a connection pool and verifies it.
func ConnectPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Save stores a snapshot, assigning ID and CreatedAt when unset.
func (s *PostgresStore) Save(ctx context.Context, snapshot *Snapshot) error {
	if snapshot.ID == uuid.Nil {
		snapshot.ID = uuid.New()
	}
	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO snapshots (id, kind, theme, html, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET kind = $2, theme = $3, html = $4`,
		snapshot.ID, snapshot.Kind, snapshot.Theme, snapshot.HTML, snapshot.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Get returns one snapshot by ID.
func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	var snapshot Snapshot
	err := s.pool.QueryRow(ctx,
		`SELECT id, kind, theme, html, created_at FROM snapshots WHERE id = $1`,
		id,
	).Scan(&snapshot.ID, &snapshot.Kind, &snapshot.Theme, &snapshot.HTML, &snapshot.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return &snapshot, nil
}

// List returns snapshots newest first, optionally filtered by kind.
func (s *PostgresStore) List(ctx context.Context, kind string, limit int) ([]*Snapshot, error) {
	if limit <= 0 {
		limit = 50
	}

	var (
		rows pgx.Rows
		err  error
	)
	if kind != "" {
		rows, err = s.pool.Query(ctx,
			`SELECT id, kind, theme, html, created_at FROM snapshots
			 WHERE kind = $1 ORDER BY created_at DESC LIMIT $2`, kind, limit)
	} else {
		rows, err = s.pool.Query(ctx,
			`SELECT id, kind, theme, html, created_at FROM snapshots
			 ORDER BY created_at DESC LIMIT $1`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*Snapshot
	for rows.Next() {
		var snapshot Snapshot
		if err := rows.Scan(&snapshot.ID, &snapshot.Kind, &snapshot.Theme, &snapshot.HTML, &snapshot.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, &snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshots: %w", err)
	}
	return snapshots, nil
}

// Delete removes one snapshot. Deleting a missing ID is not an error.
func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM snapshots WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
