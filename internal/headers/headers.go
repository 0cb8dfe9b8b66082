// Package headers implements the HTTP header container the cookie jar
// works against: a case-insensitive multimap with typed accessors for
// the cookie, cache, and date headers an HTTP client cares about.
package headers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Headers implements a case-insensitive HTTP header store.
type Headers struct {
	data     map[string][]string
	keyOrder []string // Preserves original casing for keys
	logger   *slog.Logger
}

// New creates an empty headers collection.
func New() *Headers {
	return &Headers{
		data:     make(map[string][]string),
		keyOrder: make([]string, 0),
		logger:   slog.Default(),
	}
}

// SetLogger replaces the logger used to report malformed header values.
func (h *Headers) SetLogger(logger *slog.Logger) {
	h.logger = logger
}

// FromHTTP copies a net/http header map, keeping a stable key order.
func FromHTTP(hdr http.Header) *Headers {
	keys := make([]string, 0, len(hdr))
	for key := range hdr {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	h := New()
	for _, key := range keys {
		for _, v := range hdr[key] {
			h.Add(key, v)
		}
	}
	return h
}

func (h *Headers) normalize(key string) string {
	return strings.ToLower(key)
}

func (h *Headers) Set(key, value string) {
	normalized := h.normalize(key)
	if _, exists := h.data[normalized]; !exists {
		h.keyOrder = append(h.keyOrder, key)
	} else {
		// Update keyOrder with new casing
		for i, k := range h.keyOrder {
			if h.normalize(k) == normalized {
				h.keyOrder[i] = key
				break
			}
		}
	}
	h.data[normalized] = []string{value}
}

func (h *Headers) Add(key, value string) {
	normalized := h.normalize(key)
	if _, exists := h.data[normalized]; !exists {
		h.keyOrder = append(h.keyOrder, key)
	}
	h.data[normalized] = append(h.data[normalized], value)
}

func (h *Headers) Get(key string) string {
	values := h.data[h.normalize(key)]
	if len(values) > 0 {
		return values[0]
	}
	return ""
}

func (h *Headers) GetAll(key string) []string {
	values := h.data[h.normalize(key)]
	if values == nil {
		return []string{}
	}
	result := make([]string, len(values))
	copy(result, values)
	return result
}

func (h *Headers) Del(key string) {
	normalized := h.normalize(key)
	delete(h.data, normalized)
	// Remove from keyOrder
	for i, k := range h.keyOrder {
		if h.normalize(k) == normalized {
			h.keyOrder = append(h.keyOrder[:i], h.keyOrder[i+1:]...)
			break
		}
	}
}

func (h *Headers) Keys() []string {
	result := make([]string, len(h.keyOrder))
	copy(result, h.keyOrder)
	return result
}

func (h *Headers) Clone() *Headers {
	clone := New()
	clone.logger = h.logger
	for _, key := range h.keyOrder {
		normalized := h.normalize(key)
		for _, v := range h.data[normalized] {
			clone.Add(key, v)
		}
	}
	return clone
}

func (h *Headers) ToMap() map[string][]string {
	result := make(map[string][]string)
	for _, key := range h.keyOrder {
		normalized := h.normalize(key)
		result[key] = make([]string, len(h.data[normalized]))
		copy(result[key], h.data[normalized])
	}
	return result
}

// HTTPHeader converts to a net/http header map.
func (h *Headers) HTTPHeader() http.Header {
	hdr := make(http.Header, len(h.keyOrder))
	for _, key := range h.keyOrder {
		for _, v := range h.data[h.normalize(key)] {
			hdr.Add(key, v)
		}
	}
	return hdr
}

// Cookies parses every Set-Cookie and Set-Cookie2 value into cookies.
// Lines that do not parse are skipped.
func (h *Headers) Cookies() []*http.Cookie {
	lines := h.GetAll("Set-Cookie")
	lines = append(lines, h.GetAll("Set-Cookie2")...)

	cookies := make([]*http.Cookie, 0, len(lines))
	for _, line := range lines {
		// http.Response.Cookies runs the stdlib Set-Cookie parser and
		// yields nothing for an unparseable line (http.ParseSetCookie
		// needs Go 1.23+).
		parsed := (&http.Response{Header: http.Header{"Set-Cookie": {line}}}).Cookies()
		if len(parsed) == 0 {
			continue
		}
		cookies = append(cookies, parsed[0])
	}
	return cookies
}

// SetCookies writes the outgoing Cookie header, pairs joined with "; ".
// An empty slice clears it.
func (h *Headers) SetCookies(cookies []*http.Cookie) {
	if len(cookies) == 0 {
		h.Del("Cookie")
		return
	}
	pairs := make([]string, 0, len(cookies))
	for _, c := range cookies {
		pairs = append(pairs, c.Name+"="+c.Value)
	}
	h.Set("Cookie", strings.Join(pairs, "; "))
}

// CacheControl returns the Cache-Control values joined with a comma.
// Pragma is the HTTP/1.0 spelling and serves as the fallback.
func (h *Headers) CacheControl() string {
	values := h.GetAll("Cache-Control")
	if len(values) == 0 {
		values = h.GetAll("Pragma")
	}
	return strings.Join(values, ",")
}

// ContentLength parses the Content-Length value. Missing or malformed
// values come back as 0; a malformed value is logged, never surfaced.
func (h *Headers) ContentLength() int64 {
	value := h.Get("Content-Length")
	if value == "" {
		return 0
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		h.logger.Warn("malformed Content-Length header", "value", value, "error", err)
		return 0
	}
	return n
}

func (h *Headers) ContentType() string {
	return h.Get("Content-Type")
}

func (h *Headers) ContentEncoding() string {
	return h.Get("Content-Encoding")
}

func (h *Headers) ContentRange() string {
	return h.Get("Content-Range")
}

func (h *Headers) ETag() string {
	return h.Get("ETag")
}

func (h *Headers) Location() string {
	return h.Get("Location")
}

// Date parses the Date header.
func (h *Headers) Date() time.Time {
	return h.date("Date")
}

// Expiration parses the Expires header.
func (h *Headers) Expiration() time.Time {
	return h.date("Expires")
}

// LastModified parses the Last-Modified header.
func (h *Headers) LastModified() time.Time {
	return h.date("Last-Modified")
}

// date parses a date-valued header. Missing or malformed values come
// back as the zero time; a malformed value is logged, never surfaced.
func (h *Headers) date(key string) time.Time {
	value := h.Get(key)
	if value == "" {
		return time.Time{}
	}
	t, err := ParseDate(value)
	if err != nil {
		h.logger.Warn("malformed date header", "header", key, "value", value, "error", err)
		return time.Time{}
	}
	return t
}

// ParseDate parses an HTTP date in any of the three allowed formats.
func ParseDate(value string) (time.Time, error) {
	t, err := http.ParseTime(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed date %q: %w", value, err)
	}
	return t, nil
}

// MarshalJSON serializes the headers as a plain map with original key
// casing.
func (h *Headers) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.ToMap())
}

// UnmarshalJSON rebuilds the headers from a map, keys sorted so the
// order is stable.
func (h *Headers) UnmarshalJSON(data []byte) error {
	var m map[string][]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}

	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	h.data = make(map[string][]string)
	h.keyOrder = make([]string, 0, len(keys))
	if h.logger == nil {
		h.logger = slog.Default()
	}
	for _, key := range keys {
		for _, v := range m[key] {
			h.Add(key, v)
		}
	}
	return nil
}
