// Package sqlite persists cookie records in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/artpar/biscuit/internal/jar"
	"github.com/artpar/biscuit/internal/where"
)

// Store implements jar.Store using SQLite. Times are stored as epoch
// milliseconds, a zero meaning unset, so expiry predicates compare as
// plain integers.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	closed bool
}

// New creates a SQLite-backed store at dbPath.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open cookie database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cookie database: %w", err)
	}

	return store, nil
}

// NewInMemory creates a new in-memory SQLite store (useful for testing).
func NewInMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

// initialize creates the necessary tables and indexes.
func (s *Store) initialize() error {
	schema := `
		CREATE TABLE IF NOT EXISTS cookies (
			id TEXT PRIMARY KEY,
			uri TEXT NOT NULL DEFAULT '',
			domain TEXT NOT NULL DEFAULT '',
			path TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL,
			value TEXT NOT NULL DEFAULT '',
			secure INTEGER NOT NULL DEFAULT 0,
			http_only INTEGER NOT NULL DEFAULT 0,
			same_site TEXT NOT NULL DEFAULT '',
			expiry INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			UNIQUE(domain, path, name)
		);

		CREATE INDEX IF NOT EXISTS idx_cookies_domain ON cookies(domain);
		CREATE INDEX IF NOT EXISTS idx_cookies_expiry ON cookies(expiry);
		CREATE INDEX IF NOT EXISTS idx_cookies_uri ON cookies(uri);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Replace stores the record, overwriting any row with the same domain,
// path, and name while keeping that row's id and creation time.
func (s *Store) Replace(ctx context.Context, rec *jar.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return jar.ErrStoreClosed
	}

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	rec.UpdatedAt = time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = rec.UpdatedAt
	}

	// Use INSERT OR REPLACE for upsert behavior
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO cookies
		(id, uri, domain, path, name, value, secure, http_only, same_site, expiry, created_at, updated_at)
		VALUES (
			COALESCE((SELECT id FROM cookies WHERE domain = ? AND path = ? AND name = ?), ?),
			?, ?, ?, ?, ?, ?, ?, ?, ?,
			COALESCE((SELECT created_at FROM cookies WHERE domain = ? AND path = ? AND name = ?), ?),
			?
		)
	`,
		rec.Domain, rec.Path, rec.Name, rec.ID,
		rec.URI, rec.Domain, rec.Path, rec.Name, rec.Value,
		boolToInt(rec.Secure), boolToInt(rec.HttpOnly), rec.SameSite,
		jar.TimeToMillis(rec.Expiry),
		rec.Domain, rec.Path, rec.Name, jar.TimeToMillis(rec.CreatedAt),
		jar.TimeToMillis(rec.UpdatedAt),
	)
	return err
}

// List returns the records matching the query.
func (s *Store) List(ctx context.Context, q jar.Query) ([]*jar.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, jar.ErrStoreClosed
	}

	query := "SELECT id, uri, domain, path, name, value, secure, http_only, same_site, expiry, created_at, updated_at FROM cookies"

	cond, args := q.Where.SQL()
	if cond != "" {
		query += " WHERE " + cond
	}

	query += " ORDER BY " + orderColumns(q.OrderBy)
	if q.Desc {
		query += " DESC"
	}

	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
		if q.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", q.Offset)
		}
	} else if q.Offset > 0 {
		query += fmt.Sprintf(" LIMIT -1 OFFSET %d", q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Distinct returns the sorted distinct values of a field.
func (s *Store) Distinct(ctx context.Context, field string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, jar.ErrStoreClosed
	}

	col, ok := column(field)
	if !ok {
		return nil, fmt.Errorf("unknown field: %s", field)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT DISTINCT %s FROM cookies ORDER BY %s", col, col,
	))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// Delete removes the records matching the clause and reports how many
// rows went. A nil clause removes everything.
func (s *Store) Delete(ctx context.Context, w *where.Clause) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, jar.ErrStoreClosed
	}

	query := "DELETE FROM cookies"
	cond, args := w.SQL()
	if cond != "" {
		query += " WHERE " + cond
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// DeleteRecords removes the given records by id.
func (s *Store) DeleteRecords(ctx context.Context, recs []*jar.Record) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, jar.ErrStoreClosed
	}
	if len(recs) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(recs)), ",")
	args := make([]interface{}, 0, len(recs))
	for _, rec := range recs {
		args = append(args, rec.ID)
	}

	result, err := s.db.ExecContext(ctx,
		"DELETE FROM cookies WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// DeleteAll removes every record.
func (s *Store) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return jar.ErrStoreClosed
	}

	_, err := s.db.ExecContext(ctx, `DELETE FROM cookies`)
	return err
}

// Count returns total number of records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, jar.ErrStoreClosed
	}

	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cookies`).Scan(&count)
	return count, err
}

// Close closes the store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}

// Helper functions

// orderColumns maps a field name to an ORDER BY expression, falling
// back to the default cookie ordering.
func orderColumns(field string) string {
	if col, ok := column(field); ok {
		return col
	}
	return "domain, path, name"
}

// column whitelists field names for interpolation into SQL.
func column(field string) (string, bool) {
	switch field {
	case jar.FieldURI, jar.FieldDomain, jar.FieldPath, jar.FieldName,
		jar.FieldValue, jar.FieldSecure, jar.FieldHTTPOnly, jar.FieldSameSite,
		jar.FieldExpiry, jar.FieldCreatedAt, jar.FieldUpdatedAt:
		return field, true
	}
	return "", false
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func intToBool(i int) bool {
	return i != 0
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scannable) (*jar.Record, error) {
	var rec jar.Record
	var secure, httpOnly int
	var expiry, createdAt, updatedAt int64

	err := row.Scan(
		&rec.ID, &rec.URI, &rec.Domain, &rec.Path, &rec.Name, &rec.Value,
		&secure, &httpOnly, &rec.SameSite,
		&expiry, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Secure = intToBool(secure)
	rec.HttpOnly = intToBool(httpOnly)
	rec.Expiry = jar.MillisToTime(expiry)
	rec.CreatedAt = jar.MillisToTime(createdAt)
	rec.UpdatedAt = jar.MillisToTime(updatedAt)

	return &rec, nil
}

func scanRecords(rows *sql.Rows) ([]*jar.Record, error) {
	var result []*jar.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}
