package jar

import (
	"context"
	"testing"
	"time"

	"github.com/artpar/biscuit/internal/where"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStoreTests runs the standard store test suite against any Store
// implementation. Use this to verify that a Store implementation
// correctly implements the interface.
func RunStoreTests(t *testing.T, newStore func() (Store, func())) {
	t.Run("Replace", func(t *testing.T) {
		runReplaceTests(t, newStore)
	})
	t.Run("List", func(t *testing.T) {
		runListTests(t, newStore)
	})
	t.Run("Distinct", func(t *testing.T) {
		runDistinctTests(t, newStore)
	})
	t.Run("Delete", func(t *testing.T) {
		runDeleteTests(t, newStore)
	})
	t.Run("Count", func(t *testing.T) {
		runCountTests(t, newStore)
	})
	t.Run("Closed", func(t *testing.T) {
		runClosedTests(t, newStore)
	})
}

func runReplaceTests(t *testing.T, newStore func() (Store, func())) {
	t.Run("stores a record and stamps metadata", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		rec := &Record{
			URI:    "https://example.com/login",
			Domain: "example.com",
			Path:   "/",
			Name:   "sid",
			Value:  "abc123",
			Secure: true,
			Expiry: time.Now().Add(time.Hour),
		}

		err := store.Replace(context.Background(), rec)

		require.NoError(t, err)
		assert.NotEmpty(t, rec.ID)
		assert.False(t, rec.CreatedAt.IsZero())
		assert.False(t, rec.UpdatedAt.IsZero())
	})

	t.Run("overwrites by identity keeping id and created_at", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()
		ctx := context.Background()

		created := time.Now().Add(-time.Hour).Truncate(time.Millisecond)
		first := &Record{
			Domain: "example.com", Path: "/", Name: "sid", Value: "old",
			CreatedAt: created,
		}
		require.NoError(t, store.Replace(ctx, first))

		second := &Record{Domain: "example.com", Path: "/", Name: "sid", Value: "new"}
		require.NoError(t, store.Replace(ctx, second))

		recs, err := store.List(ctx, Query{})
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, "new", recs[0].Value)
		assert.Equal(t, first.ID, recs[0].ID)
		assert.Equal(t, TimeToMillis(created), TimeToMillis(recs[0].CreatedAt))
	})

	t.Run("keeps records with empty domain and path apart from scoped ones", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()
		ctx := context.Background()

		require.NoError(t, store.Replace(ctx, &Record{
			URI: "https://example.com/login", Name: "sid", Value: "origin-only",
		}))
		require.NoError(t, store.Replace(ctx, &Record{
			Domain: "example.com", Path: "/", Name: "sid", Value: "scoped",
		}))

		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("round-trips every field", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()
		ctx := context.Background()

		expiry := time.Now().Add(2 * time.Hour).Truncate(time.Millisecond)
		rec := &Record{
			URI:      "https://api.example.com/v1",
			Domain:   ".example.com",
			Path:     "/v1",
			Name:     "token",
			Value:    "xyz",
			Secure:   true,
			HttpOnly: true,
			SameSite: "strict",
			Expiry:   expiry,
		}
		require.NoError(t, store.Replace(ctx, rec))

		recs, err := store.List(ctx, Query{})
		require.NoError(t, err)
		require.Len(t, recs, 1)

		got := recs[0]
		assert.Equal(t, rec.URI, got.URI)
		assert.Equal(t, rec.Domain, got.Domain)
		assert.Equal(t, rec.Path, got.Path)
		assert.Equal(t, rec.Name, got.Name)
		assert.Equal(t, rec.Value, got.Value)
		assert.True(t, got.Secure)
		assert.True(t, got.HttpOnly)
		assert.Equal(t, "strict", got.SameSite)
		assert.Equal(t, TimeToMillis(expiry), TimeToMillis(got.Expiry))
	})
}

func runListTests(t *testing.T, newStore func() (Store, func())) {
	seed := func(t *testing.T, store Store) {
		t.Helper()
		ctx := context.Background()
		base := time.Now().Add(-time.Hour)
		recs := []*Record{
			{Domain: "a.com", Path: "/", Name: "c1", Value: "v1", CreatedAt: base},
			{Domain: "a.com", Path: "/api", Name: "c2", Value: "v2", CreatedAt: base.Add(time.Minute)},
			{Domain: "b.com", Path: "/", Name: "c3", Value: "v3", CreatedAt: base.Add(2 * time.Minute)},
			{URI: "https://c.com/login", Name: "c4", Value: "v4", CreatedAt: base.Add(3 * time.Minute)},
		}
		for _, rec := range recs {
			require.NoError(t, store.Replace(ctx, rec))
		}
	}

	t.Run("returns everything in domain, path, name order by default", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()
		seed(t, store)

		recs, err := store.List(context.Background(), Query{})

		require.NoError(t, err)
		require.Len(t, recs, 4)
		assert.Equal(t, "c4", recs[0].Name) // empty domain sorts first
		assert.Equal(t, "c1", recs[1].Name)
		assert.Equal(t, "c2", recs[2].Name)
		assert.Equal(t, "c3", recs[3].Name)
	})

	t.Run("filters with a where clause", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()
		seed(t, store)

		recs, err := store.List(context.Background(), Query{
			Where: where.Eq(FieldDomain, "a.com"),
		})

		require.NoError(t, err)
		assert.Len(t, recs, 2)
	})

	t.Run("honors grouped alternatives", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()
		seed(t, store)

		w := where.Eq(FieldDomain, "a.com").OrEq(FieldDomain, "b.com").Bracket().
			And(where.Eq(FieldPath, "/").OrNull(FieldPath).Bracket())
		recs, err := store.List(context.Background(), Query{Where: w})

		require.NoError(t, err)
		assert.Len(t, recs, 2)
	})

	t.Run("matches unset fields through null tests", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()
		seed(t, store)

		recs, err := store.List(context.Background(), Query{Where: where.Null(FieldDomain)})

		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, "c4", recs[0].Name)
	})

	t.Run("orders by created_at ascending and descending", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()
		seed(t, store)

		asc, err := store.List(context.Background(), Query{OrderBy: FieldCreatedAt})
		require.NoError(t, err)
		require.Len(t, asc, 4)
		assert.Equal(t, "c1", asc[0].Name)
		assert.Equal(t, "c4", asc[3].Name)

		desc, err := store.List(context.Background(), Query{OrderBy: FieldCreatedAt, Desc: true})
		require.NoError(t, err)
		require.Len(t, desc, 4)
		assert.Equal(t, "c4", desc[0].Name)
	})

	t.Run("applies limit and offset", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()
		seed(t, store)

		page1, err := store.List(context.Background(), Query{OrderBy: FieldCreatedAt, Limit: 2})
		require.NoError(t, err)
		require.Len(t, page1, 2)

		page2, err := store.List(context.Background(), Query{OrderBy: FieldCreatedAt, Limit: 2, Offset: 2})
		require.NoError(t, err)
		require.Len(t, page2, 2)

		assert.NotEqual(t, page1[0].Name, page2[0].Name)
	})

	t.Run("filters expiry in epoch milliseconds", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()
		ctx := context.Background()

		now := time.Now()
		require.NoError(t, store.Replace(ctx, &Record{
			Domain: "a.com", Path: "/", Name: "dead", Expiry: now.Add(-time.Hour),
		}))
		require.NoError(t, store.Replace(ctx, &Record{
			Domain: "a.com", Path: "/", Name: "live", Expiry: now.Add(time.Hour),
		}))
		require.NoError(t, store.Replace(ctx, &Record{
			Domain: "a.com", Path: "/", Name: "session",
		}))

		w := where.Gt(FieldExpiry, int64(0)).And(where.Lt(FieldExpiry, now.UnixMilli()))
		recs, err := store.List(ctx, Query{Where: w})

		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, "dead", recs[0].Name)
	})
}

func runDistinctTests(t *testing.T, newStore func() (Store, func())) {
	t.Run("returns sorted distinct values", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()
		ctx := context.Background()

		uris := []string{"https://b.com/", "https://a.com/", "https://b.com/"}
		for i, uri := range uris {
			require.NoError(t, store.Replace(ctx, &Record{
				URI: uri, Domain: "x.com", Path: "/", Name: string(rune('a' + i)),
			}))
		}

		values, err := store.Distinct(ctx, FieldURI)

		require.NoError(t, err)
		assert.Equal(t, []string{"https://a.com/", "https://b.com/"}, values)
	})
}

func runDeleteTests(t *testing.T, newStore func() (Store, func())) {
	t.Run("deletes matching records and reports the count", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()
		ctx := context.Background()

		for _, name := range []string{"c1", "c2", "c3"} {
			domain := "a.com"
			if name == "c3" {
				domain = "b.com"
			}
			require.NoError(t, store.Replace(ctx, &Record{Domain: domain, Path: "/", Name: name}))
		}

		deleted, err := store.Delete(ctx, where.Eq(FieldDomain, "a.com"))

		require.NoError(t, err)
		assert.Equal(t, int64(2), deleted)

		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("deletes everything on a nil clause", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()
		ctx := context.Background()

		require.NoError(t, store.Replace(ctx, &Record{Domain: "a.com", Path: "/", Name: "c1"}))
		require.NoError(t, store.Replace(ctx, &Record{Domain: "b.com", Path: "/", Name: "c2"}))

		deleted, err := store.Delete(ctx, nil)

		require.NoError(t, err)
		assert.Equal(t, int64(2), deleted)
	})

	t.Run("deletes records by id", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()
		ctx := context.Background()

		require.NoError(t, store.Replace(ctx, &Record{Domain: "a.com", Path: "/", Name: "c1"}))
		require.NoError(t, store.Replace(ctx, &Record{Domain: "b.com", Path: "/", Name: "c2"}))

		recs, err := store.List(ctx, Query{Where: where.Eq(FieldDomain, "a.com")})
		require.NoError(t, err)
		require.Len(t, recs, 1)

		deleted, err := store.DeleteRecords(ctx, recs)
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)

		deleted, err = store.DeleteRecords(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(0), deleted)

		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("delete all empties the store", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()
		ctx := context.Background()

		require.NoError(t, store.Replace(ctx, &Record{Domain: "a.com", Path: "/", Name: "c1"}))

		require.NoError(t, store.DeleteAll(ctx))

		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})
}

func runCountTests(t *testing.T, newStore func() (Store, func())) {
	t.Run("counts stored records", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()
		ctx := context.Background()

		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)

		require.NoError(t, store.Replace(ctx, &Record{Domain: "a.com", Path: "/", Name: "c1"}))
		require.NoError(t, store.Replace(ctx, &Record{Domain: "b.com", Path: "/", Name: "c2"}))

		count, err = store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})
}

func runClosedTests(t *testing.T, newStore func() (Store, func())) {
	t.Run("operations fail after close", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()
		ctx := context.Background()

		require.NoError(t, store.Close())

		err := store.Replace(ctx, &Record{Domain: "a.com", Path: "/", Name: "c1"})
		assert.ErrorIs(t, err, ErrStoreClosed)

		_, err = store.List(ctx, Query{})
		assert.ErrorIs(t, err, ErrStoreClosed)

		_, err = store.Distinct(ctx, FieldURI)
		assert.ErrorIs(t, err, ErrStoreClosed)

		_, err = store.Delete(ctx, nil)
		assert.ErrorIs(t, err, ErrStoreClosed)

		_, err = store.DeleteRecords(ctx, []*Record{{ID: "x"}})
		assert.ErrorIs(t, err, ErrStoreClosed)

		err = store.DeleteAll(ctx)
		assert.ErrorIs(t, err, ErrStoreClosed)

		_, err = store.Count(ctx)
		assert.ErrorIs(t, err, ErrStoreClosed)
	})

	t.Run("close is idempotent", func(t *testing.T) {
		store, cleanup := newStore()
		defer cleanup()

		require.NoError(t, store.Close())
		assert.NoError(t, store.Close())
	})
}
