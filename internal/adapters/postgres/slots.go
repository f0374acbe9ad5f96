package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"phishdetect/internal/errs"
	"phishdetect/internal/ports"
)

var _ ports.SlotStore = (*DB)(nil)

func (db *DB) Load(ctx context.Context, slot string) ([]byte, bool, error) {
	var payload string
	err := db.Pool.QueryRow(ctx, `SELECT payload FROM kv_slots WHERE slot = $1`, slot).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errs.E(errs.KindStorage, "postgres.Load", slot, err)
	}
	return []byte(payload), true, nil
}

func (db *DB) Save(ctx context.Context, slot string, payload []byte) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO kv_slots (slot, payload, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (slot) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at
	`, slot, string(payload))
	if err != nil {
		return errs.E(errs.KindStorage, "postgres.Save", slot, err)
	}
	return nil
}

func (db *DB) Delete(ctx context.Context, slot string) error {
	if _, err := db.Pool.Exec(ctx, `DELETE FROM kv_slots WHERE slot = $1`, slot); err != nil {
		return errs.E(errs.KindStorage, "postgres.Delete", slot, err)
	}
	return nil
}
