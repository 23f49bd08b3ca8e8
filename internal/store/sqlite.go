package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS %[1]s (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    doc TEXT NOT NULL
);
`

type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) ocean-journal.db under dataDir. A dataDir of
// ":memory:" gives a private in-memory database.
func OpenSQLite(dataDir string) (*SQLiteBackend, error) {
	dsn := ":memory:"
	if dataDir != ":memory:" {
		if dataDir == "" {
			dataDir = "./data"
		}
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "ocean-journal.db") + "?_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: keeps ":memory:" a single database and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	for _, name := range collections {
		if _, err := db.Exec(fmt.Sprintf(sqliteSchema, name)); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return &SQLiteBackend{db: db}, nil
}

func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}

func (s *SQLiteBackend) List(ctx context.Context, collection string) ([][]byte, error) {
	if err := knownCollection(collection); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT doc FROM `+collection+` ORDER BY seq`)
	if err != nil {
		return nil, unavailable("list "+collection, err)
	}
	defer rows.Close()

	var docs [][]byte
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, unavailable("scan "+collection, err)
		}
		docs = append(docs, []byte(doc))
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list "+collection, err)
	}
	return docs, nil
}

func (s *SQLiteBackend) Get(ctx context.Context, collection, id string) ([]byte, error) {
	if err := knownCollection(collection); err != nil {
		return nil, err
	}
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM `+collection+` WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("get "+collection+"/"+id, err)
	}
	return []byte(doc), nil
}

func (s *SQLiteBackend) Put(ctx context.Context, collection, id string, doc []byte) error {
	if err := knownCollection(collection); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO `+collection+` (id, doc) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET doc = excluded.doc
	`, id, string(doc))
	if err != nil {
		return unavailable("put "+collection+"/"+id, err)
	}
	return nil
}

func (s *SQLiteBackend) Delete(ctx context.Context, collection, id string) error {
	if err := knownCollection(collection); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM `+collection+` WHERE id = ?`, id)
	if err != nil {
		return unavailable("delete "+collection+"/"+id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return unavailable("delete "+collection+"/"+id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
