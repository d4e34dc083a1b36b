package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dori/tasksync/internal/model"
)

// LoadEntries returns the entries stored under key in position order.
// The boolean is false when nothing was ever saved under key, which is
// different from a saved empty list.
func (db *DB) LoadEntries(ctx context.Context, key string) ([]model.Entry, bool, error) {
	var updatedAt time.Time
	err := db.QueryRowContext(ctx, `SELECT updated_at FROM lists WHERE key = ?`, key).Scan(&updatedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, description, completed, editing
		FROM entries
		WHERE list_key = ?
		ORDER BY position
	`, key)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	entries := []model.Entry{}
	for rows.Next() {
		var e model.Entry
		var completed, editing int
		if err := rows.Scan(&e.ID, &e.Description, &completed, &editing); err != nil {
			return nil, false, err
		}
		e.Completed = completed == 1
		e.Editing = editing == 1
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}

	return entries, true, nil
}

// SaveEntries replaces everything stored under key with entries
func (db *DB) SaveEntries(ctx context.Context, key string, entries []model.Entry) error {
	now := time.Now()

	return db.Transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO lists (key, updated_at) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET updated_at = excluded.updated_at
		`, key, now)
		if err != nil {
			return fmt.Errorf("upsert list: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE list_key = ?`, key); err != nil {
			return fmt.Errorf("clear entries: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO entries (list_key, position, id, description, completed, editing)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, e := range entries {
			if _, err := stmt.ExecContext(ctx, key, i, e.ID, e.Description, boolInt(e.Completed), boolInt(e.Editing)); err != nil {
				return fmt.Errorf("insert entry %d: %w", i, err)
			}
		}

		return nil
	})
}

// DeleteList removes the list stored under key and its entries
func (db *DB) DeleteList(ctx context.Context, key string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM lists WHERE key = ?`, key)
	return err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
