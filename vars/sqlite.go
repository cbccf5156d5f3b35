package vars

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS pop_vars (
	pop_id  TEXT    NOT NULL,
	sub_pop INTEGER NOT NULL,
	name    TEXT    NOT NULL,
	value   BLOB    NOT NULL,
	PRIMARY KEY (pop_id, sub_pop, name)
);
`

// SQLiteStore persists variables in a SQLite file, one row per variable
// with the value JSON-encoded.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path. Call Init before
// first use.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("vars: open %s: %w", path, err)
	}
	// SQLite serializes writers; a single connection avoids lock errors.
	db.SetMaxOpenConns(1)
	return &SQLiteStore{db: db}, nil
}

// Init creates the schema.
func (s *SQLiteStore) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("vars: create schema: %w", err)
	}
	return nil
}

// Set stores a value, overwriting any previous one.
func (s *SQLiteStore) Set(ctx context.Context, popID string, subPop int, name string, value any) error {
	raw, err := encode(value)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pop_vars (pop_id, sub_pop, name, value) VALUES (?, ?, ?, ?)
		ON CONFLICT (pop_id, sub_pop, name) DO UPDATE SET value = excluded.value`,
		popID, subPop, name, raw)
	if err != nil {
		return fmt.Errorf("vars: set %s/%d/%s: %w", popID, subPop, name, err)
	}
	return nil
}

// Get returns a stored value.
func (s *SQLiteStore) Get(ctx context.Context, popID string, subPop int, name string) (any, bool, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM pop_vars WHERE pop_id = ? AND sub_pop = ? AND name = ?`,
		popID, subPop, name).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("vars: get %s/%d/%s: %w", popID, subPop, name, err)
	}
	v, err := decode(raw)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// Delete removes a value.
func (s *SQLiteStore) Delete(ctx context.Context, popID string, subPop int, name string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM pop_vars WHERE pop_id = ? AND sub_pop = ? AND name = ?`,
		popID, subPop, name)
	if err != nil {
		return fmt.Errorf("vars: delete %s/%d/%s: %w", popID, subPop, name, err)
	}
	return nil
}

// Names lists stored variable names for a scope, sorted.
func (s *SQLiteStore) Names(ctx context.Context, popID string, subPop int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM pop_vars WHERE pop_id = ? AND sub_pop = ? ORDER BY name`,
		popID, subPop)
	if err != nil {
		return nil, fmt.Errorf("vars: names %s/%d: %w", popID, subPop, err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// Clear removes every variable of popID.
func (s *SQLiteStore) Clear(ctx context.Context, popID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM pop_vars WHERE pop_id = ?`, popID)
	if err != nil {
		return fmt.Errorf("vars: clear %s: %w", popID, err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
