package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS %[1]s (
    seq BIGSERIAL,
    id TEXT PRIMARY KEY,
    doc JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS %[1]s_seq_idx ON %[1]s (seq);`

type PostgresBackend struct {
	pool *pgxpool.Pool
}

func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresBackend, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is required for the postgres backend")
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to acquire db connection: %w", err)
	}
	defer conn.Release()
	for _, name := range collections {
		if _, err := conn.Exec(ctx, fmt.Sprintf(postgresSchema, name)); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to create %s table: %w", name, err)
		}
	}
	return &PostgresBackend{pool: pool}, nil
}

// Pool returns the underlying pgxpool.Pool
func (s *PostgresBackend) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *PostgresBackend) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *PostgresBackend) List(ctx context.Context, collection string) ([][]byte, error) {
	if err := knownCollection(collection); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `SELECT doc FROM `+collection+` ORDER BY seq`)
	if err != nil {
		return nil, unavailable("list "+collection, err)
	}
	defer rows.Close()

	var docs [][]byte
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, unavailable("scan "+collection, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("rows "+collection, err)
	}
	return docs, nil
}

func (s *PostgresBackend) Get(ctx context.Context, collection, id string) ([]byte, error) {
	if err := knownCollection(collection); err != nil {
		return nil, err
	}
	var doc []byte
	err := s.pool.QueryRow(ctx, `SELECT doc FROM `+collection+` WHERE id = $1`, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, unavailable("get "+collection+"/"+id, err)
	}
	return doc, nil
}

func (s *PostgresBackend) Put(ctx context.Context, collection, id string, doc []byte) error {
	if err := knownCollection(collection); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO `+collection+` (id, doc)
		VALUES ($1, $2::jsonb)
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()
	`, id, string(doc))
	if err != nil {
		return unavailable("put "+collection+"/"+id, err)
	}
	return nil
}

func (s *PostgresBackend) Delete(ctx context.Context, collection, id string) error {
	if err := knownCollection(collection); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM `+collection+` WHERE id = $1`, id)
	if err != nil {
		return unavailable("delete "+collection+"/"+id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
