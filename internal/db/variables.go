package db

import (
	"context"
	"fmt"
	"time"
)

func (d *DB) UpsertVariable(ctx context.Context, name, value string) error {
	_, err := d.ExecContext(ctx, `
		INSERT INTO variables (name, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, name, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upserting variable %s: %w", name, err)
	}
	return nil
}

// Variables returns every persisted variable by name.
func (d *DB) Variables(ctx context.Context) (map[string]string, error) {
	rows, err := d.QueryContext(ctx, `SELECT name, value FROM variables`)
	if err != nil {
		return nil, fmt.Errorf("listing variables: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scanning variable: %w", err)
		}
		out[name] = value
	}
	return out, rows.Err()
}
