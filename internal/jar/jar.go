// Package jar implements a persistent cookie store with browser-style
// domain and path matching. Cookies observed on responses are stored
// through a pluggable persistence engine and answered back for request
// URIs; expired records are swept lazily on reads and the total record
// count is kept under a configured cap.
package jar

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/artpar/biscuit/internal/where"
)

// Capacity defaults. The cap is soft: overshoot up to the hysteresis
// margin is tolerated before a trim runs.
const (
	DefaultMaxCookies = 8888
	DefaultHysteresis = 10
)

// Jar is the cookie store orchestrator. One mutex serializes every
// public operation, so callers never observe a partially written
// record set.
type Jar struct {
	mu       sync.Mutex
	store    Store
	listener Listener
	logger   *slog.Logger
	now      func() time.Time

	maxCookies        int
	hysteresis        int
	legacyRemoveGuard bool
}

// Option configures a Jar.
type Option func(*Jar)

// WithListener sets the listener notified on save and remove.
func WithListener(l Listener) Option {
	return func(j *Jar) { j.listener = l }
}

// WithLogger sets the logger for non-fatal repair events.
func WithLogger(logger *slog.Logger) Option {
	return func(j *Jar) { j.logger = logger }
}

// WithMaxCookies overrides the record cap.
func WithMaxCookies(n int) Option {
	return func(j *Jar) { j.maxCookies = n }
}

// WithHysteresis overrides the tolerated overshoot above the cap.
func WithHysteresis(n int) Option {
	return func(j *Jar) { j.hysteresis = n }
}

// WithLegacyRemoveGuard restores the historical Remove guard, which
// proceeds only when the URI is nil and the cookie is not. The default
// guard requires both to be non-nil.
func WithLegacyRemoveGuard() Option {
	return func(j *Jar) { j.legacyRemoveGuard = true }
}

// WithClock overrides the time source. Expiry sweeps and max-age
// resolution use it, which lets tests advance time.
func WithClock(now func() time.Time) Option {
	return func(j *Jar) { j.now = now }
}

// New creates a Jar backed by store.
func New(store Store, opts ...Option) *Jar {
	j := &Jar{
		store:      store,
		logger:     slog.Default(),
		now:        time.Now,
		maxCookies: DefaultMaxCookies,
		hysteresis: DefaultHysteresis,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// SetListener replaces the listener. It takes the jar lock so the swap
// cannot race an in-flight Add or Remove.
func (j *Jar) SetListener(l Listener) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.listener = l
}

// Add stores cookie as observed on a response from uri. A nil cookie
// is ignored. The listener is notified first, with the URI as passed;
// the stored record carries the effective URI. A successful add
// triggers a trim check.
func (j *Jar) Add(ctx context.Context, uri *url.URL, cookie *http.Cookie) error {
	if cookie == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.listener != nil {
		j.listener.OnSaveCookie(uri, cookie)
	}
	rec := FromHTTPCookie(effectiveURI(uri), cookie, j.now())
	if err := j.store.Replace(ctx, rec); err != nil {
		return err
	}
	return j.trim(ctx)
}

// Get returns the live cookies applying to uri. Expired records are
// swept first. A nil uri yields no cookies.
func (j *Jar) Get(ctx context.Context, uri *url.URL) ([]*http.Cookie, error) {
	if uri == nil {
		return nil, nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	if _, err := j.sweep(ctx); err != nil {
		return nil, err
	}
	origin := effectiveURI(uri)
	recs, err := j.store.List(ctx, Query{Where: matchClause(uri.Hostname(), uri.Path, origin)})
	if err != nil {
		return nil, err
	}
	return hydrate(recs), nil
}

// All returns every live cookie, sweeping expired records first.
func (j *Jar) All(ctx context.Context) ([]*http.Cookie, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if _, err := j.sweep(ctx); err != nil {
		return nil, err
	}
	recs, err := j.store.List(ctx, Query{})
	if err != nil {
		return nil, err
	}
	return hydrate(recs), nil
}

// Origins returns the distinct origin URIs cookies were stored from.
// A stored value that no longer parses is treated as corrupt: its
// records are deleted and the damage is logged, never surfaced.
func (j *Jar) Origins(ctx context.Context) ([]*url.URL, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	values, err := j.store.Distinct(ctx, FieldURI)
	if err != nil {
		return nil, err
	}
	uris := make([]*url.URL, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		u, err := url.Parse(v)
		if err != nil {
			j.logger.Warn("dropping records with unparsable origin", "uri", v, "error", err)
			if _, derr := j.store.Delete(ctx, where.Eq(FieldURI, v)); derr != nil {
				j.logger.Warn("failed to drop corrupt origin records", "uri", v, "error", derr)
			}
			continue
		}
		uris = append(uris, u)
	}
	return uris, nil
}

// Remove deletes the record matching cookie's identity: its name,
// narrowed by domain and path when the cookie carries them. The
// listener is notified before the delete. The bool reports the no-op
// cases as success, mirroring the delete's own outcome otherwise.
func (j *Jar) Remove(ctx context.Context, uri *url.URL, cookie *http.Cookie) (bool, error) {
	if j.legacyRemoveGuard {
		if uri != nil || cookie == nil {
			return true, nil
		}
	} else if uri == nil || cookie == nil {
		return true, nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.listener != nil {
		j.listener.OnRemoveCookie(uri, cookie)
	}
	c := where.Eq(FieldName, cookie.Name)
	if cookie.Domain != "" {
		c.AndEq(FieldDomain, cookie.Domain)
	}
	if cookie.Path != "" {
		c.AndEq(FieldPath, cookie.Path)
	}
	if _, err := j.store.Delete(ctx, c); err != nil {
		return false, err
	}
	return true, nil
}

// RemoveAll deletes every stored cookie.
func (j *Jar) RemoveAll(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.store.DeleteAll(ctx)
}

// Sweep deletes expired records immediately and reports how many were
// removed. Reads sweep on their own; this exists for explicit
// maintenance.
func (j *Jar) Sweep(ctx context.Context) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.sweep(ctx)
}

// Count returns the number of stored records, expired ones included.
func (j *Jar) Count(ctx context.Context) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.store.Count(ctx)
}

// sweep deletes records past their expiry. Session records store a
// zero expiry and are never swept. Callers hold j.mu.
func (j *Jar) sweep(ctx context.Context) (int64, error) {
	now := j.now().UnixMilli()
	return j.store.Delete(ctx, where.Gt(FieldExpiry, int64(0)).And(where.Lt(FieldExpiry, now)))
}

// trim enforces the record cap. Once the count passes the cap plus the
// hysteresis margin, the oldest records are deleted down to the cap.
// Callers hold j.mu.
func (j *Jar) trim(ctx context.Context) error {
	count, err := j.store.Count(ctx)
	if err != nil {
		return err
	}
	if int(count) <= j.maxCookies+j.hysteresis {
		return nil
	}
	victims, err := j.store.List(ctx, Query{OrderBy: FieldCreatedAt, Limit: int(count) - j.maxCookies})
	if err != nil {
		return err
	}
	deleted, err := j.store.DeleteRecords(ctx, victims)
	if err != nil {
		return err
	}
	j.logger.Debug("trimmed cookie records", "deleted", deleted, "count", count)
	return nil
}

// matchClause builds the lookup filter for a request URI: stored
// domain equal to the host or its parent domain, ANDed with a path
// equal to the request path, the root, an ancestor directory, or
// absent. An exact origin match is OR'd on as a fallback for records
// stored without domain and path attributes.
func matchClause(host, path, origin string) *where.Clause {
	var c *where.Clause
	if host != "" {
		domain := where.Eq(FieldDomain, host)
		if parent := parentDomain(host); parent != "" {
			domain.OrEq(FieldDomain, parent).OrEq(FieldDomain, "."+parent)
		}
		c = domain.Bracket()
	}
	if path != "" {
		p := where.Eq(FieldPath, path).OrEq(FieldPath, "/").OrNull(FieldPath)
		for _, ancestor := range ancestorPaths(path) {
			p.OrEq(FieldPath, ancestor)
		}
		c = c.And(p.Bracket())
	}
	return c.Or(where.Eq(FieldURI, origin))
}

// parentDomain returns the suffix of host starting after its
// second-to-last dot, so a cookie set for example.com also matches
// www.example.com. Hosts without two qualifying dots have no parent.
func parentDomain(host string) string {
	last := strings.LastIndex(host, ".")
	if last <= 1 {
		return ""
	}
	prev := strings.LastIndex(host[:last], ".")
	if prev <= 0 {
		return ""
	}
	return host[prev+1:]
}

// ancestorPaths lists the proper ancestor directories of path, nearest
// first, excluding the root.
func ancestorPaths(path string) []string {
	var out []string
	for {
		i := strings.LastIndex(path, "/")
		if i <= 0 {
			return out
		}
		path = path[:i]
		out = append(out, path)
	}
}

// effectiveURI reduces uri to scheme, host, and path, dropping query,
// fragment, port, and user info. A nil uri reduces to the empty
// string; a uri that reduces to nothing is kept as passed.
func effectiveURI(uri *url.URL) string {
	if uri == nil {
		return ""
	}
	eff := url.URL{Scheme: uri.Scheme, Host: uri.Hostname(), Path: uri.Path}
	if s := eff.String(); s != "" {
		return s
	}
	return uri.String()
}

func hydrate(recs []*Record) []*http.Cookie {
	cookies := make([]*http.Cookie, 0, len(recs))
	for _, rec := range recs {
		cookies = append(cookies, rec.ToHTTPCookie())
	}
	return cookies
}
