// Package memory provides an in-memory cookie record store. It backs
// tests and ephemeral runs where nothing should touch disk.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/artpar/biscuit/internal/jar"
	"github.com/artpar/biscuit/internal/where"
)

// Store keeps records in a map guarded by a mutex. Records are copied
// on the way in and out, so callers can mutate what they hold without
// reaching into the store.
type Store struct {
	mu     sync.RWMutex
	recs   map[string]*jar.Record
	closed bool
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{recs: make(map[string]*jar.Record)}
}

// Replace inserts the record, overwriting any record with the same
// domain, path, and name while keeping that record's id and creation
// time. The passed record's ID, CreatedAt, and UpdatedAt are filled in.
func (s *Store) Replace(ctx context.Context, rec *jar.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return jar.ErrStoreClosed
	}

	for _, existing := range s.recs {
		if existing.Domain == rec.Domain && existing.Path == rec.Path && existing.Name == rec.Name {
			rec.ID = existing.ID
			rec.CreatedAt = existing.CreatedAt
			break
		}
	}
	now := time.Now()
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	cp := *rec
	s.recs[rec.ID] = &cp
	return nil
}

// List returns the records matching the query.
func (s *Store) List(ctx context.Context, q jar.Query) ([]*jar.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, jar.ErrStoreClosed
	}

	var out []*jar.Record
	for _, rec := range s.recs {
		if q.Where.Match(rec) {
			cp := *rec
			out = append(out, &cp)
		}
	}
	jar.SortRecords(out, q.OrderBy, q.Desc)
	return jar.Window(out, q.Limit, q.Offset), nil
}

// Distinct returns the sorted distinct values of a string field.
func (s *Store) Distinct(ctx context.Context, field string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, jar.ErrStoreClosed
	}

	seen := make(map[string]struct{})
	for _, rec := range s.recs {
		v, ok := rec.Field(field)
		if !ok {
			continue
		}
		if str, ok := v.(string); ok {
			seen[str] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}

// Delete removes the records matching the clause and reports how many
// went. A nil clause removes everything.
func (s *Store) Delete(ctx context.Context, w *where.Clause) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, jar.ErrStoreClosed
	}

	var n int64
	for id, rec := range s.recs {
		if w.Match(rec) {
			delete(s.recs, id)
			n++
		}
	}
	return n, nil
}

// DeleteRecords removes the given records by id.
func (s *Store) DeleteRecords(ctx context.Context, recs []*jar.Record) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, jar.ErrStoreClosed
	}

	var n int64
	for _, rec := range recs {
		if _, ok := s.recs[rec.ID]; ok {
			delete(s.recs, rec.ID)
			n++
		}
	}
	return n, nil
}

// DeleteAll removes every record.
func (s *Store) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return jar.ErrStoreClosed
	}
	s.recs = make(map[string]*jar.Record)
	return nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, jar.ErrStoreClosed
	}
	return int64(len(s.recs)), nil
}

// Close marks the store closed. Further operations fail with
// jar.ErrStoreClosed. Closing twice is fine.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
