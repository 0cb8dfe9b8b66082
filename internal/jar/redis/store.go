// Package redis persists cookie records in Redis, for setups where
// several processes share one jar. Records live in a hash keyed by id,
// with a second hash mapping each domain, path, and name identity to
// its id so replacement stays exact.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/artpar/biscuit/internal/jar"
	"github.com/artpar/biscuit/internal/where"
)

// DefaultPrefix namespaces the keys when none is given.
const DefaultPrefix = "biscuit:cookies"

// identitySep joins domain, path, and name into one hash field.
const identitySep = "\x1f"

// Store implements jar.Store on a Redis client. Writes are serialized
// through the store's mutex; the identity hash is only consistent when
// a single store owns the prefix.
type Store struct {
	mu     sync.RWMutex
	client *redis.Client
	prefix string
	closed bool
}

// Open connects to the Redis at url and returns a store under prefix.
func Open(ctx context.Context, url, prefix string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return New(client, prefix), nil
}

// New wraps an existing client. The store takes ownership and closes
// the client with Close.
func New(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) recordsKey() string {
	return s.prefix + ":records"
}

func (s *Store) identityHashKey() string {
	return s.prefix + ":identity"
}

func identityField(rec *jar.Record) string {
	return strings.Join([]string{rec.Domain, rec.Path, rec.Name}, identitySep)
}

// Replace stores the record, overwriting any record with the same
// domain, path, and name while keeping that record's id and creation
// time.
func (s *Store) Replace(ctx context.Context, rec *jar.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return jar.ErrStoreClosed
	}

	identity := identityField(rec)
	id, err := s.client.HGet(ctx, s.identityHashKey(), identity).Result()
	switch {
	case err == nil:
		rec.ID = id
		if raw, err := s.client.HGet(ctx, s.recordsKey(), id).Result(); err == nil {
			var existing jar.Record
			if err := json.Unmarshal([]byte(raw), &existing); err == nil {
				rec.CreatedAt = existing.CreatedAt
			}
		}
	case !errors.Is(err, redis.Nil):
		return err
	}

	now := time.Now()
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.recordsKey(), rec.ID, payload)
	pipe.HSet(ctx, s.identityHashKey(), identity, rec.ID)
	_, err = pipe.Exec(ctx)
	return err
}

// List returns the records matching the query.
func (s *Store) List(ctx context.Context, q jar.Query) ([]*jar.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, jar.ErrStoreClosed
	}

	recs, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	var out []*jar.Record
	for _, rec := range recs {
		if q.Where.Match(rec) {
			out = append(out, rec)
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

	recs, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, rec := range recs {
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

	recs, err := s.load(ctx)
	if err != nil {
		return 0, err
	}

	var victims []*jar.Record
	for _, rec := range recs {
		if w.Match(rec) {
			victims = append(victims, rec)
		}
	}
	return s.deleteRecords(ctx, victims)
}

// DeleteRecords removes the given records by id.
func (s *Store) DeleteRecords(ctx context.Context, recs []*jar.Record) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, jar.ErrStoreClosed
	}
	return s.deleteRecords(ctx, recs)
}

// deleteRecords drops the records and their identity entries. Callers
// hold s.mu.
func (s *Store) deleteRecords(ctx context.Context, recs []*jar.Record) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(recs))
	identities := make([]string, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.ID)
		identities = append(identities, identityField(rec))
	}

	pipe := s.client.TxPipeline()
	deleted := pipe.HDel(ctx, s.recordsKey(), ids...)
	pipe.HDel(ctx, s.identityHashKey(), identities...)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return deleted.Val(), nil
}

// DeleteAll removes every record.
func (s *Store) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return jar.ErrStoreClosed
	}
	return s.client.Del(ctx, s.recordsKey(), s.identityHashKey()).Err()
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, jar.ErrStoreClosed
	}
	return s.client.HLen(ctx, s.recordsKey()).Result()
}

// Close marks the store closed and releases the client.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.client.Close()
}

// load fetches and decodes every stored record. Callers hold s.mu.
func (s *Store) load(ctx context.Context) ([]*jar.Record, error) {
	raw, err := s.client.HGetAll(ctx, s.recordsKey()).Result()
	if err != nil {
		return nil, err
	}

	recs := make([]*jar.Record, 0, len(raw))
	for id, payload := range raw {
		var rec jar.Record
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode record %s: %w", id, err)
		}
		recs = append(recs, &rec)
	}
	return recs, nil
}
