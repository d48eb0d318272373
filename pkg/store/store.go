// Package store keeps published orientation fields in a SQLite database.
//
// Every Store session is a run identified by a UUID. Each published request
// becomes one row in fields, with its per-element frames in field_values.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/chazu/csysgen/pkg/field"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned by Load when no field has the requested name.
var ErrNotFound = errors.New("store: field not found")

// Store is a field.Sink backed by SQLite.
type Store struct {
	db *sql.DB

	mu    sync.Mutex
	runID string
	note  string
}

var _ field.Sink = (*Store)(nil)

// Run describes one stored run.
type Run struct {
	ID        string
	Note      string
	CreatedAt time.Time
	Fields    int
}

// Open opens (or creates) the database at path and applies the schema.
// note is recorded with the run created by the first Publish.
func Open(path, note string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// One connection keeps the foreign_keys pragma in effect for every statement.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA busy_timeout = 5000", "PRAGMA journal_mode = WAL"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, note: note}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RunID returns the current run's ID, or "" before the first Publish.
func (s *Store) RunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runID
}

// ensureRun creates the run row on first use.
func (s *Store) ensureRun(ctx context.Context, tx *sql.Tx) (string, error) {
	if s.runID != "" {
		return s.runID, nil
	}
	id := uuid.New().String()
	_, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, note, created_at_ns) VALUES (?, ?, ?)`,
		id, s.note, time.Now().UnixNano())
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// Publish implements field.Sink.
func (s *Store) Publish(ctx context.Context, req field.Request) error {
	if err := req.Validate(); err != nil {
		return err
	}

	// Values are stored row-wise; everything else goes into meta_json.
	meta := req
	meta.Field.Labels = nil
	meta.Field.Values = nil
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode %s: %w", req.Field.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	runID, err := s.ensureRun(ctx, tx)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO fields (run_id, name, part, partial, meta_json, created_at_ns)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		runID, req.Field.Name, req.Part, req.Partial, string(metaJSON), time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("insert field %s: %w", req.Field.Name, err)
	}
	fieldID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("field id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO field_values (field_id, seq, element, ax_x, ax_y, ax_z, ay_x, ay_y, ay_z)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare values: %w", err)
	}
	defer stmt.Close()

	for i, label := range req.Field.Labels {
		v := req.Field.Values[i]
		if _, err := stmt.ExecContext(ctx, fieldID, i, label, v[0], v[1], v[2], v[3], v[4], v[5]); err != nil {
			return fmt.Errorf("insert values for element %d: %w", label, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", req.Field.Name, err)
	}
	s.runID = runID
	return nil
}

// Load returns the most recently stored request for the named field.
func (s *Store) Load(ctx context.Context, name string) (field.Request, error) {
	var (
		fieldID  int64
		metaJSON string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT field_id, meta_json FROM fields WHERE name = ? ORDER BY field_id DESC LIMIT 1`,
		name).Scan(&fieldID, &metaJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return field.Request{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return field.Request{}, fmt.Errorf("query field %s: %w", name, err)
	}

	var req field.Request
	if err := json.Unmarshal([]byte(metaJSON), &req); err != nil {
		return field.Request{}, fmt.Errorf("decode field %s: %w", name, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT element, ax_x, ax_y, ax_z, ay_x, ay_y, ay_z
		 FROM field_values WHERE field_id = ? ORDER BY seq`, fieldID)
	if err != nil {
		return field.Request{}, fmt.Errorf("query values %s: %w", name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			label int
			v     [field.DataWidth]float64
		)
		if err := rows.Scan(&label, &v[0], &v[1], &v[2], &v[3], &v[4], &v[5]); err != nil {
			return field.Request{}, fmt.Errorf("scan values %s: %w", name, err)
		}
		req.Field.Labels = append(req.Field.Labels, label)
		req.Field.Values = append(req.Field.Values, v)
	}
	if err := rows.Err(); err != nil {
		return field.Request{}, fmt.Errorf("read values %s: %w", name, err)
	}
	return req, nil
}

// Fields lists the distinct stored field names in ascending order.
func (s *Store) Fields(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT name FROM fields ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query fields: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan field name: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// Runs lists stored runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.run_id, COALESCE(r.note, ''), r.created_at_ns, COUNT(f.field_id)
		FROM runs r LEFT JOIN fields f ON f.run_id = r.run_id
		GROUP BY r.run_id
		ORDER BY r.created_at_ns DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r  Run
			ns int64
		)
		if err := rows.Scan(&r.ID, &r.Note, &ns, &r.Fields); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.CreatedAt = time.Unix(0, ns)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
