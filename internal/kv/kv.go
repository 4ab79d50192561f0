// Package kv provides durable named string slots on top of the SQLite
// store. Each slot holds one opaque value, typically a JSON document.
package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/skeletor601/BL4-SaveEditor/internal/store"
)

// ErrNotFound is returned when a slot has never been written or was deleted.
var ErrNotFound = errors.New("slot not found")

// Slot is one stored value.
type Slot struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Slots reads and writes named slots.
type Slots interface {
	// Read returns the value of key, or ErrNotFound.
	Read(ctx context.Context, key string) (string, error)

	// Write creates or replaces key.
	Write(ctx context.Context, key, value string) error

	// Delete removes key, or returns ErrNotFound.
	Delete(ctx context.Context, key string) error

	// List returns every slot ordered by key.
	List(ctx context.Context) ([]Slot, error)
}

// Compile-time interface guard.
var _ Slots = (*SQLiteSlots)(nil)

// SQLiteSlots implements Slots in the kv_slots table.
type SQLiteSlots struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteSlots runs the kv migrations and returns the repository.
func NewSQLiteSlots(ctx context.Context, s *store.SQLiteStore) (*SQLiteSlots, error) {
	if err := s.Migrate(ctx, "kv", migrations); err != nil {
		return nil, fmt.Errorf("kv migrations: %w", err)
	}
	return &SQLiteSlots{db: s.DB(), now: time.Now}, nil
}

func (r *SQLiteSlots) Read(ctx context.Context, key string) (string, error) {
	var v string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM kv_slots WHERE key = ?`, key,
	).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("read slot %q: %w", key, err)
	}
	return v, nil
}

func (r *SQLiteSlots) Write(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO kv_slots (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, r.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("write slot %q: %w", key, err)
	}
	return nil
}

func (r *SQLiteSlots) Delete(ctx context.Context, key string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM kv_slots WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete slot %q: %w", key, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteSlots) List(ctx context.Context) ([]Slot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT key, value, updated_at FROM kv_slots ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	defer rows.Close()

	var out []Slot
	for rows.Next() {
		var s Slot
		if err := rows.Scan(&s.Key, &s.Value, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan slot row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

var migrations = []store.Migration{
	{
		Version:     1,
		Description: "create kv_slots table",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE kv_slots (
					key        TEXT PRIMARY KEY,
					value      TEXT NOT NULL,
					updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
				)`)
			return err
		},
	},
}
