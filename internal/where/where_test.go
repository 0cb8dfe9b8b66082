package where

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapValuer backs Match tests with a plain map. Missing keys report
// the field as not provided.
type mapValuer map[string]any

func (m mapValuer) Field(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

func TestClause_SQLSimple(t *testing.T) {
	sql, args := Eq("domain", "example.com").SQL()
	assert.Equal(t, "domain = ?", sql)
	assert.Equal(t, []any{"example.com"}, args)
}

func TestClause_SQLOperators(t *testing.T) {
	tests := []struct {
		name   string
		clause *Clause
		sql    string
		args   []any
	}{
		{"eq", Eq("name", "sid"), "name = ?", []any{"sid"}},
		{"ne", Ne("name", "sid"), "name != ?", []any{"sid"}},
		{"lt", Lt("expiry", int64(100)), "expiry < ?", []any{int64(100)}},
		{"gt", Gt("expiry", int64(0)), "expiry > ?", []any{int64(0)}},
		{"cond", Cond("value", OpEq, "x"), "value = ?", []any{"x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := tt.clause.SQL()
			assert.Equal(t, tt.sql, sql)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestClause_SQLNull(t *testing.T) {
	sql, args := Null("path").SQL()
	assert.Equal(t, "(path IS NULL OR path = '')", sql)
	assert.Empty(t, args)
}

func TestClause_SQLChained(t *testing.T) {
	c := Eq("path", "/a/b").OrEq("path", "/").OrNull("path").OrEq("path", "/a")
	sql, args := c.SQL()
	assert.Equal(t, "path = ? OR path = ? OR (path IS NULL OR path = '') OR path = ?", sql)
	assert.Equal(t, []any{"/a/b", "/", "/a"}, args)
}

func TestClause_SQLGrouping(t *testing.T) {
	domain := Eq("domain", "www.example.com").OrEq("domain", "example.com").Bracket()
	path := Eq("path", "/a").OrEq("path", "/").Bracket()
	c := domain.And(path).Or(Eq("uri", "https://www.example.com/a"))

	sql, args := c.SQL()
	assert.Equal(t, "(domain = ? OR domain = ?) AND (path = ? OR path = ?) OR uri = ?", sql)
	assert.Equal(t, []any{"www.example.com", "example.com", "/a", "/", "https://www.example.com/a"}, args)
}

func TestClause_AndWrapsMultiNodeArgument(t *testing.T) {
	// The appended side is grouped even without an explicit Bracket.
	c := Eq("a", 1).And(Eq("b", 2).OrEq("b", 3))
	sql, _ := c.SQL()
	assert.Equal(t, "a = ? AND (b = ? OR b = ?)", sql)
}

func TestClause_NilAndEmpty(t *testing.T) {
	var nilClause *Clause

	sql, args := nilClause.SQL()
	assert.Equal(t, "", sql)
	assert.Nil(t, args)
	assert.True(t, nilClause.Match(mapValuer{}))

	// Combining with nil keeps the other side intact.
	c := Eq("a", 1)
	assert.Same(t, c, nilClause.And(c))
	assert.Same(t, c, nilClause.Or(c))
	assert.Same(t, c, c.And(nil))
	assert.Same(t, c, c.Or(nil))

	// Append methods on nil start a fresh clause.
	sql, args = nilClause.OrEq("domain", "x").SQL()
	assert.Equal(t, "domain = ?", sql)
	assert.Equal(t, []any{"x"}, args)
}

func TestClause_MatchOperators(t *testing.T) {
	rec := mapValuer{
		"name":   "sid",
		"expiry": int64(500),
		"secure": true,
	}

	tests := []struct {
		name   string
		clause *Clause
		want   bool
	}{
		{"eq hit", Eq("name", "sid"), true},
		{"eq miss", Eq("name", "other"), false},
		{"ne hit", Ne("name", "other"), true},
		{"ne miss", Ne("name", "sid"), false},
		{"lt hit", Lt("expiry", int64(600)), true},
		{"lt miss", Lt("expiry", int64(400)), false},
		{"gt hit", Gt("expiry", int64(400)), true},
		{"gt miss", Gt("expiry", int64(600)), false},
		{"mixed int kinds", Gt("expiry", 0), true},
		{"bool as int", Eq("secure", 1), true},
		{"absent field", Eq("missing", "x"), false},
		{"absent field ne", Ne("missing", "x"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.clause.Match(rec))
		})
	}
}

func TestClause_MatchNull(t *testing.T) {
	assert.True(t, Null("path").Match(mapValuer{}))
	assert.True(t, Null("path").Match(mapValuer{"path": nil}))
	assert.True(t, Null("path").Match(mapValuer{"path": ""}))
	assert.False(t, Null("path").Match(mapValuer{"path": "/a"}))
}

func TestClause_MatchPrecedence(t *testing.T) {
	// AND binds tighter than OR: a = 1 OR b = 1 AND c = 1.
	c := Eq("a", 1).OrEq("b", 1).AndEq("c", 1)

	require.True(t, c.Match(mapValuer{"a": 1, "b": 0, "c": 0}))
	require.True(t, c.Match(mapValuer{"a": 0, "b": 1, "c": 1}))
	assert.False(t, c.Match(mapValuer{"a": 0, "b": 1, "c": 0}))
	assert.False(t, c.Match(mapValuer{"a": 0, "b": 0, "c": 1}))
}

func TestClause_MatchGrouping(t *testing.T) {
	// (a = 1 OR b = 1) AND c = 1 via Bracket.
	c := Eq("a", 1).OrEq("b", 1).Bracket().AndEq("c", 1)

	assert.True(t, c.Match(mapValuer{"a": 1, "b": 0, "c": 1}))
	assert.True(t, c.Match(mapValuer{"a": 0, "b": 1, "c": 1}))
	assert.False(t, c.Match(mapValuer{"a": 1, "b": 1, "c": 0}))
}

func TestClause_MatchMirrorsSQLShape(t *testing.T) {
	// The lookup filter used for cookie matching: grouped domain and
	// path alternatives ANDed together, with an origin fallback OR'd on.
	domain := Eq("domain", "www.example.com").OrEq("domain", "example.com").Bracket()
	path := Eq("path", "/a/b").OrEq("path", "/").OrNull("path").Bracket()
	c := domain.And(path).Or(Eq("uri", "https://other.test/"))

	assert.True(t, c.Match(mapValuer{"domain": "example.com", "path": "/", "uri": "x"}))
	assert.True(t, c.Match(mapValuer{"domain": "example.com", "path": "", "uri": "x"}))
	assert.False(t, c.Match(mapValuer{"domain": "example.com", "path": "/c", "uri": "x"}))
	assert.False(t, c.Match(mapValuer{"domain": "other.test", "path": "/", "uri": "x"}))
	assert.True(t, c.Match(mapValuer{"domain": "other.test", "path": "/c", "uri": "https://other.test/"}))
}

func TestClause_MatchIncompatibleKinds(t *testing.T) {
	rec := mapValuer{"expiry": "soon"}

	assert.False(t, Eq("expiry", int64(5)).Match(rec))
	assert.False(t, Lt("expiry", int64(5)).Match(rec))
	assert.True(t, Ne("expiry", int64(5)).Match(rec))
}

func TestClause_BracketSingleNodeNoop(t *testing.T) {
	c := Eq("a", 1).Bracket()
	sql, _ := c.SQL()
	assert.Equal(t, "a = ?", sql)
}
