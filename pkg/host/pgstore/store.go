// Package pgstore implements host.Store on PostgreSQL through the pgx
// database/sql driver.
package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/gnana997/tokensync/pkg/host"
)

// Store keeps collections, modes, variables and values in four tables, plus a
// single-row write counter shared by every process using the database.
type Store struct {
	db *sql.DB

	schemaOnce sync.Once
	schemaErr  error
}

var (
	_ host.Store      = (*Store)(nil)
	_ host.Revisioner = (*Store)(nil)
)

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	s := &Store{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return s, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS token_collections (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  position BIGSERIAL
);

CREATE TABLE IF NOT EXISTS token_modes (
  id TEXT PRIMARY KEY,
  collection_id TEXT NOT NULL REFERENCES token_collections (id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  position BIGSERIAL
);
CREATE INDEX IF NOT EXISTS idx_token_modes_collection_id ON token_modes (collection_id);

CREATE TABLE IF NOT EXISTS token_variables (
  id TEXT PRIMARY KEY,
  collection_id TEXT NOT NULL REFERENCES token_collections (id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  resolved_type TEXT NOT NULL,
  position BIGSERIAL,
  UNIQUE (collection_id, name)
);

CREATE TABLE IF NOT EXISTS token_values (
  variable_id TEXT NOT NULL REFERENCES token_variables (id) ON DELETE CASCADE,
  mode_id TEXT NOT NULL REFERENCES token_modes (id) ON DELETE CASCADE,
  value JSONB NOT NULL,
  PRIMARY KEY (variable_id, mode_id)
);

CREATE TABLE IF NOT EXISTS token_revision (
  id BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (id),
  rev BIGINT NOT NULL DEFAULT 0
);
INSERT INTO token_revision (id, rev) VALUES (TRUE, 0) ON CONFLICT (id) DO NOTHING;
`)
	})
	return s.schemaErr
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// bump advances the write counter. It runs after the write it records so a
// reader never caches new data under a newer revision than it saw.
func bump(ctx context.Context, db execer) error {
	_, err := db.ExecContext(ctx, `UPDATE token_revision SET rev = rev + 1`)
	return err
}

// Revision returns the write counter.
func (s *Store) Revision(ctx context.Context) (int64, error) {
	var rev int64
	if err := s.db.QueryRowContext(ctx, `SELECT rev FROM token_revision`).Scan(&rev); err != nil {
		return 0, err
	}
	return rev, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func notFound(kind, id string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %q: %w", kind, id, host.ErrNotFound)
	}
	return err
}

func (s *Store) Collections(ctx context.Context) ([]*host.Collection, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM token_collections ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*host.Collection
	byID := map[string]*host.Collection{}
	for rows.Next() {
		c := &host.Collection{}
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
		byID[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	modeRows, err := s.db.QueryContext(ctx, `SELECT id, collection_id, name FROM token_modes ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer modeRows.Close()
	for modeRows.Next() {
		var m host.Mode
		var collectionID string
		if err := modeRows.Scan(&m.ID, &collectionID, &m.Name); err != nil {
			return nil, err
		}
		if c, ok := byID[collectionID]; ok {
			c.Modes = append(c.Modes, m)
		}
	}
	return out, modeRows.Err()
}

func (s *Store) CollectionByID(ctx context.Context, id string) (*host.Collection, error) {
	c := &host.Collection{}
	row := s.db.QueryRowContext(ctx, `SELECT id, name FROM token_collections WHERE id = $1`, id)
	if err := row.Scan(&c.ID, &c.Name); err != nil {
		return nil, notFound("collection", id, err)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM token_modes WHERE collection_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var m host.Mode
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, err
		}
		c.Modes = append(c.Modes, m)
	}
	return c, rows.Err()
}

func (s *Store) Variables(ctx context.Context) ([]*host.Variable, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT v.id, v.name, v.collection_id, v.resolved_type, val.mode_id, val.value
FROM token_variables v
LEFT JOIN token_values val ON val.variable_id = v.id
ORDER BY v.position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*host.Variable
	var current *host.Variable
	for rows.Next() {
		v, modeID, raw, err := scanVariable(rows)
		if err != nil {
			return nil, err
		}
		if current == nil || current.ID != v.ID {
			current = v
			out = append(out, current)
		}
		if err := addValue(current, modeID, raw); err != nil {
			return nil, err
		}
	}
	return out, rows.Err()
}

func (s *Store) VariableByID(ctx context.Context, id string) (*host.Variable, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT v.id, v.name, v.collection_id, v.resolved_type, val.mode_id, val.value
FROM token_variables v
LEFT JOIN token_values val ON val.variable_id = v.id
WHERE v.id = $1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out *host.Variable
	for rows.Next() {
		v, modeID, raw, err := scanVariable(rows)
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = v
		}
		if err := addValue(out, modeID, raw); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("variable %q: %w", id, host.ErrNotFound)
	}
	return out, nil
}

func scanVariable(row rowScanner) (*host.Variable, sql.NullString, []byte, error) {
	v := &host.Variable{Values: map[string]host.Value{}}
	var typ string
	var modeID sql.NullString
	var raw []byte
	if err := row.Scan(&v.ID, &v.Name, &v.CollectionID, &typ, &modeID, &raw); err != nil {
		return nil, modeID, nil, err
	}
	v.Type = host.ResolvedType(typ)
	return v, modeID, raw, nil
}

func addValue(v *host.Variable, modeID sql.NullString, raw []byte) error {
	if !modeID.Valid {
		return nil
	}
	val, err := host.UnmarshalValue(raw)
	if err != nil {
		return fmt.Errorf("variable %q mode %q: %w", v.ID, modeID.String, err)
	}
	v.Values[modeID.String] = val
	return nil
}

func (s *Store) CreateCollection(ctx context.Context, name string) (*host.Collection, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("collection name: %w", host.ErrInvalidName)
	}
	c := &host.Collection{
		ID:    uuid.NewString(),
		Name:  name,
		Modes: []host.Mode{{ID: uuid.NewString(), Name: host.DefaultModeName}},
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `INSERT INTO token_collections (id, name) VALUES ($1, $2)`, c.ID, c.Name); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO token_modes (id, collection_id, name) VALUES ($1, $2, $3)`,
		c.Modes[0].ID, c.ID, c.Modes[0].Name); err != nil {
		return nil, err
	}
	if err := bump(ctx, tx); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) AddMode(ctx context.Context, collectionID, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("mode name: %w", host.ErrInvalidName)
	}
	if _, err := s.CollectionByID(ctx, collectionID); err != nil {
		return "", err
	}
	id := uuid.NewString()
	if _, err := s.db.ExecContext(ctx, `INSERT INTO token_modes (id, collection_id, name) VALUES ($1, $2, $3)`,
		id, collectionID, name); err != nil {
		return "", err
	}
	if err := bump(ctx, s.db); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) RenameMode(ctx context.Context, collectionID, modeID, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("mode name: %w", host.ErrInvalidName)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE token_modes SET name = $3 WHERE id = $2 AND collection_id = $1`,
		collectionID, modeID, name)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("mode %q: %w", modeID, host.ErrNotFound)
	}
	return bump(ctx, s.db)
}

func (s *Store) CreateVariable(ctx context.Context, name, collectionID string, t host.ResolvedType) (*host.Variable, error) {
	if err := host.ValidateVariable(name, t); err != nil {
		return nil, err
	}
	if _, err := s.CollectionByID(ctx, collectionID); err != nil {
		return nil, err
	}
	v := &host.Variable{
		ID:           uuid.NewString(),
		Name:         name,
		CollectionID: collectionID,
		Type:         t,
		Values:       map[string]host.Value{},
	}
	res, err := s.db.ExecContext(ctx, `
INSERT INTO token_variables (id, collection_id, name, resolved_type)
VALUES ($1, $2, $3, $4)
ON CONFLICT (collection_id, name) DO NOTHING`,
		v.ID, v.CollectionID, v.Name, string(v.Type))
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("variable %q: %w", name, host.ErrDuplicate)
	}
	if err := bump(ctx, s.db); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Store) SetValue(ctx context.Context, variableID, modeID string, val host.Value) error {
	v, err := s.VariableByID(ctx, variableID)
	if err != nil {
		return err
	}
	if err := host.CheckValue(v.Type, val); err != nil {
		return fmt.Errorf("variable %q: %w", v.Name, err)
	}
	if a, ok := val.(host.Alias); ok {
		if a.ID == v.ID {
			return fmt.Errorf("variable %q: alias to itself", v.Name)
		}
		if _, err := s.VariableByID(ctx, a.ID); err != nil {
			return fmt.Errorf("alias target: %w", err)
		}
	}

	var owner string
	row := s.db.QueryRowContext(ctx, `SELECT collection_id FROM token_modes WHERE id = $1`, modeID)
	if err := row.Scan(&owner); err != nil {
		return notFound("mode", modeID, err)
	}
	if owner != v.CollectionID {
		return fmt.Errorf("mode %q: %w", modeID, host.ErrNotFound)
	}

	raw, err := host.MarshalValue(val)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO token_values (variable_id, mode_id, value)
VALUES ($1, $2, $3)
ON CONFLICT (variable_id, mode_id)
DO UPDATE SET value = EXCLUDED.value`,
		variableID, modeID, string(raw))
	if err != nil {
		return err
	}
	return bump(ctx, s.db)
}

func (s *Store) RemoveCollection(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM token_collections WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("collection %q: %w", id, host.ErrNotFound)
	}
	return bump(ctx, s.db)
}
