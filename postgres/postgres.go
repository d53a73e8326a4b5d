// server/postgres/postgres.go

// Package postgres is the PostgreSQL storage engine.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/vinizap/notesync/server/domain"
	"github.com/vinizap/notesync/server/store"
)

type Store struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

var _ store.Store = (*Store)(nil)

func Open(ctx context.Context, databaseURL string, log zerolog.Logger) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	log = log.With().Str("component", "postgres").Logger()
	log.Info().
		Str("host", cfg.ConnConfig.Host).
		Str("database", cfg.ConnConfig.Database).
		Int32("max_conns", cfg.MaxConns).
		Msg("connected")
	return &Store{pool: pool, log: log}, nil
}

// Atomic runs fn inside a database transaction, committing only when fn succeeds.
func (s *Store) Atomic(ctx context.Context, fn func(r store.Repository) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return fn(&repo{q: tx})
	})
}

func (s *Store) Close() {
	s.pool.Close()
}

// mapError translates driver errors into domain errors.
func mapError(err error, kind, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NotFoundf(kind, id)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return fmt.Errorf("%s %s: %w", kind, id, domain.ErrConflict)
	}
	return fmt.Errorf("%s %s: %w", kind, id, err)
}

// affected turns a zero-row write into a not found error.
func affected(tag pgconn.CommandTag, err error, kind, id string) error {
	if err != nil {
		return mapError(err, kind, id)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf(kind, id)
	}
	return nil
}
