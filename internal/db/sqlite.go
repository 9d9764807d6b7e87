// Package db provides SQLite storage for local submission receipts, the
// visitor counter and cached schedule data.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/cosmelab/labgrid/internal/grid"
	"github.com/cosmelab/labgrid/internal/poll"
)

// SQLite is the local store.
type SQLite struct {
	db *sql.DB
}

// New opens the database at path and runs migrations.
func New(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close releases database resources.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// SaveReceipt records a successful availability submission.
func (s *SQLite) SaveReceipt(ctx context.Context, r *poll.Receipt) error {
	query := `
		INSERT INTO receipts (email, name, cells, submitted_at)
		VALUES (?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		strings.ToLower(r.Email),
		r.Name,
		encodeCells(r.Cells),
		r.SubmittedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting receipt: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	r.ID = id

	return nil
}

// LatestReceipt returns the most recent receipt for email, or nil.
func (s *SQLite) LatestReceipt(ctx context.Context, email string) (*poll.Receipt, error) {
	query := `
		SELECT id, email, name, cells, submitted_at
		FROM receipts
		WHERE email = ?
		ORDER BY submitted_at DESC, id DESC
		LIMIT 1
	`

	r, err := scanReceipt(s.db.QueryRowContext(ctx, query, strings.ToLower(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying receipt: %w", err)
	}
	return r, nil
}

// ListReceipts returns every receipt, newest first.
func (s *SQLite) ListReceipts(ctx context.Context) ([]*poll.Receipt, error) {
	query := `
		SELECT id, email, name, cells, submitted_at
		FROM receipts
		ORDER BY submitted_at DESC, id DESC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying receipts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var receipts []*poll.Receipt
	for rows.Next() {
		r, err := scanReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning receipt: %w", err)
		}
		receipts = append(receipts, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating receipts: %w", err)
	}
	return receipts, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReceipt(row scanner) (*poll.Receipt, error) {
	var (
		r           poll.Receipt
		cells       string
		submittedAt string
	)
	if err := row.Scan(&r.ID, &r.Email, &r.Name, &cells, &submittedAt); err != nil {
		return nil, err
	}

	var err error
	r.Cells, err = decodeCells(cells)
	if err != nil {
		return nil, fmt.Errorf("parsing cells: %w", err)
	}
	r.SubmittedAt, err = parseTimestamp(submittedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing submitted at: %w", err)
	}
	return &r, nil
}

// IncrementCounter atomically bumps the named counter and returns the new value.
func (s *SQLite) IncrementCounter(ctx context.Context, key string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO counters (name, value, updated_at) VALUES (?, 1, ?)
		ON CONFLICT(name) DO UPDATE SET value = value + 1, updated_at = excluded.updated_at
	`, key, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("incrementing counter: %w", err)
	}

	var value int64
	if err := tx.QueryRowContext(ctx, `SELECT value FROM counters WHERE name = ?`, key).Scan(&value); err != nil {
		return 0, fmt.Errorf("reading counter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}
	return value, nil
}

// LoadEstimate returns the cached visitor estimate, if any.
func (s *SQLite) LoadEstimate(ctx context.Context) (int, time.Time, bool, error) {
	var (
		count      int
		computedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT count, computed_at FROM visitor_estimates WHERE id = 1`,
	).Scan(&count, &computedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, time.Time{}, false, nil
	}
	if err != nil {
		return 0, time.Time{}, false, fmt.Errorf("querying estimate: %w", err)
	}

	at, err := parseTimestamp(computedAt)
	if err != nil {
		return 0, time.Time{}, false, fmt.Errorf("parsing computed at: %w", err)
	}
	return count, at, true, nil
}

// SaveEstimate replaces the cached visitor estimate.
func (s *SQLite) SaveEstimate(ctx context.Context, count int, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO visitor_estimates (id, count, computed_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET count = excluded.count, computed_at = excluded.computed_at
	`, count, at.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving estimate: %w", err)
	}
	return nil
}

// Snapshot is a cached schedule payload.
type Snapshot struct {
	Rows      []byte // JSON array of rows as fetched
	FetchedAt time.Time
}

// SaveSnapshot stores the latest fetched schedule rows, keeping only the
// most recent keep snapshots.
func (s *SQLite) SaveSnapshot(ctx context.Context, rows []byte, at time.Time, keep int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schedule_snapshots (payload, fetched_at) VALUES (?, ?)`,
		string(rows), at.UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("inserting snapshot: %w", err)
	}

	if keep > 0 {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM schedule_snapshots
			WHERE id NOT IN (SELECT id FROM schedule_snapshots ORDER BY id DESC LIMIT ?)
		`, keep); err != nil {
			return fmt.Errorf("pruning snapshots: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// LatestSnapshot returns the newest snapshot, or nil.
func (s *SQLite) LatestSnapshot(ctx context.Context) (*Snapshot, error) {
	var (
		rows      string
		fetchedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, fetched_at FROM schedule_snapshots ORDER BY id DESC LIMIT 1`,
	).Scan(&rows, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying snapshot: %w", err)
	}

	at, err := parseTimestamp(fetchedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing fetched at: %w", err)
	}
	return &Snapshot{Rows: []byte(rows), FetchedAt: at}, nil
}

func encodeCells(cells []grid.Cell) string {
	keys := make([]string, 0, len(cells))
	for _, c := range cells {
		keys = append(keys, c.Key())
	}
	return strings.Join(keys, ",")
}

func decodeCells(s string) ([]grid.Cell, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	cells := make([]grid.Cell, 0, len(parts))
	for _, p := range parts {
		c, err := grid.ParseKey(p)
		if err != nil {
			return nil, err
		}
		cells = append(cells, c)
	}
	return cells, nil
}

// parseTimestamp parses the timestamp formats SQLite might return.
func parseTimestamp(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339,
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format: %s", s)
}
