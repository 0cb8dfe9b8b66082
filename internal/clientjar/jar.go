// Package clientjar adapts the persistent cookie jar to net/http's
// CookieJar interface, filling in the request-derived defaults a raw
// Set-Cookie line leaves out.
package clientjar

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/artpar/biscuit/internal/jar"
)

// Jar implements http.CookieJar over a persistent jar. The interface
// cannot report errors, so failures are logged and lookups degrade to
// an empty result.
type Jar struct {
	jar    *jar.Jar
	logger *slog.Logger
}

// Option configures the Jar.
type Option func(*Jar)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cj *Jar) {
		cj.logger = logger
	}
}

// New wraps a persistent jar.
func New(j *jar.Jar, opts ...Option) *Jar {
	cj := &Jar{
		jar:    j,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(cj)
	}
	return cj
}

// SetCookies implements http.CookieJar. Cookies without a Domain or
// Path attribute are scoped to the request host and the request path's
// directory; a negative MaxAge removes the cookie instead of storing a
// dead record.
func (cj *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	if u == nil {
		return
	}
	ctx := context.Background()
	for _, hc := range cookies {
		c := cj.scope(u, hc)
		if c == nil {
			continue
		}
		if c.MaxAge < 0 {
			if _, err := cj.jar.Remove(ctx, u, c); err != nil {
				cj.logger.Warn("failed to remove cookie", "name", c.Name, "error", err)
			}
			continue
		}
		if err := cj.jar.Add(ctx, u, c); err != nil {
			cj.logger.Warn("failed to save cookie", "name", c.Name, "error", err)
		}
	}
}

// Cookies implements http.CookieJar.
func (cj *Jar) Cookies(u *url.URL) []*http.Cookie {
	cookies, err := cj.jar.Get(context.Background(), u)
	if err != nil {
		cj.logger.Warn("cookie lookup failed", "url", u.String(), "error", err)
		return nil
	}
	return cookies
}

// scope copies the cookie with absent attributes defaulted from the
// request. A cookie claiming a bare public suffix as its domain is
// rejected and scope returns nil.
func (cj *Jar) scope(u *url.URL, hc *http.Cookie) *http.Cookie {
	c := *hc
	if c.Domain == "" {
		c.Domain = u.Hostname()
	} else if rejectsDomain(u, c.Domain) {
		cj.logger.Warn("rejected cookie scoped to a public suffix",
			"name", c.Name, "domain", c.Domain)
		return nil
	}
	if c.Path == "" {
		c.Path = defaultPath(u.Path)
	}
	return &c
}

// rejectsDomain reports whether the Domain attribute names a bare
// public suffix. The one allowed case is the request host being that
// suffix itself, e.g. Domain=localhost set by localhost.
func rejectsDomain(u *url.URL, domain string) bool {
	domain = strings.TrimPrefix(domain, ".")
	if domain == "" {
		return false
	}
	if suffix, _ := publicsuffix.PublicSuffix(domain); suffix != domain {
		return false
	}
	return u.Hostname() != domain
}

// defaultPath derives the cookie path from the request path: the
// directory of the request path, or "/" when there is none.
func defaultPath(p string) string {
	if p == "" || p[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(p, "/")
	if i == 0 {
		return "/"
	}
	return p[:i]
}
