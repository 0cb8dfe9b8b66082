package jar

import (
	"context"
	"errors"
	"sort"

	"github.com/artpar/biscuit/internal/where"
)

// Common errors.
var (
	ErrStoreClosed = errors.New("cookie store is closed")
)

// Query selects records from a Store.
type Query struct {
	Where   *where.Clause // nil selects everything
	OrderBy string        // a Field constant; empty applies the default (domain, path, name) order
	Desc    bool
	Limit   int // 0 = no limit
	Offset  int
}

// Store defines the persistence engine interface for cookie records.
// Engines stamp ID, CreatedAt, and UpdatedAt on the records passed to
// Replace.
type Store interface {
	// Replace inserts rec, overwriting any record sharing its
	// (domain, path, name) identity while keeping that record's ID
	// and CreatedAt.
	Replace(ctx context.Context, rec *Record) error

	// List returns records matching q.
	List(ctx context.Context, q Query) ([]*Record, error)

	// Distinct returns the distinct stored values of field, sorted.
	Distinct(ctx context.Context, field string) ([]string, error)

	// Delete removes records matching w and returns the number
	// removed. A nil clause removes everything.
	Delete(ctx context.Context, w *where.Clause) (int64, error)

	// DeleteRecords removes the given records by ID.
	DeleteRecords(ctx context.Context, recs []*Record) (int64, error)

	// DeleteAll removes every record.
	DeleteAll(ctx context.Context) error

	// Count returns the total number of records.
	Count(ctx context.Context) (int64, error)

	// Close closes the store.
	Close() error
}

// SortRecords orders recs in place for engines without a native query
// planner. An empty orderBy applies the default (domain, path, name)
// listing order; otherwise records sort by the named field.
func SortRecords(recs []*Record, orderBy string, desc bool) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if desc {
			a, b = b, a
		}
		if orderBy == "" {
			if a.Domain != b.Domain {
				return a.Domain < b.Domain
			}
			if a.Path != b.Path {
				return a.Path < b.Path
			}
			return a.Name < b.Name
		}
		return fieldLess(a, b, orderBy)
	})
}

func fieldLess(a, b *Record, field string) bool {
	av, _ := a.Field(field)
	bv, _ := b.Field(field)
	switch x := av.(type) {
	case string:
		y, _ := bv.(string)
		return x < y
	case int64:
		y, _ := bv.(int64)
		return x < y
	case bool:
		y, _ := bv.(bool)
		return !x && y
	}
	return false
}

// Window applies limit and offset to an already sorted record slice.
func Window(recs []*Record, limit, offset int) []*Record {
	if offset > 0 {
		if offset >= len(recs) {
			return nil
		}
		recs = recs[offset:]
	}
	if limit > 0 && limit < len(recs) {
		recs = recs[:limit]
	}
	return recs
}
