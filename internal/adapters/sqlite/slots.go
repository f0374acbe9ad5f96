// Package sqlite keeps the durable slots in a local SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"phishdetect/internal/errs"
	"phishdetect/internal/ports"
	"phishdetect/migrations"
)

type Slots struct {
	db *sql.DB
}

var _ ports.SlotStore = (*Slots)(nil)

// Open creates the database file if needed and applies the migrations.
func Open(ctx context.Context, path string) (*Slots, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}
	if err := migrations.Up(ctx, db, goose.DialectSQLite3); err != nil {
		db.Close()
		return nil, err
	}
	return &Slots{db: db}, nil
}

func (s *Slots) Close() error { return s.db.Close() }

func (s *Slots) Load(ctx context.Context, slot string) ([]byte, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM kv_slots WHERE slot = ?`, slot).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errs.E(errs.KindStorage, "sqlite.Load", slot, err)
	}
	return []byte(payload), true, nil
}

func (s *Slots) Save(ctx context.Context, slot string, payload []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv_slots (slot, payload, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (slot) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`, slot, string(payload))
	if err != nil {
		return errs.E(errs.KindStorage, "sqlite.Save", slot, err)
	}
	return nil
}

func (s *Slots) Delete(ctx context.Context, slot string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_slots WHERE slot = ?`, slot); err != nil {
		return errs.E(errs.KindStorage, "sqlite.Delete", slot, err)
	}
	return nil
}
