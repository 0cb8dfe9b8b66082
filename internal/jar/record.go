package jar

import (
	"net/http"
	"time"
)

// Queryable record fields. These are the names understood by where
// clauses, Query.OrderBy, and Store.Distinct.
const (
	FieldURI       = "uri"
	FieldDomain    = "domain"
	FieldPath      = "path"
	FieldName      = "name"
	FieldValue     = "value"
	FieldSecure    = "secure"
	FieldHTTPOnly  = "http_only"
	FieldSameSite  = "same_site"
	FieldExpiry    = "expiry"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
)

// Record is a stored cookie together with the origin URI it was
// received from. Identity for replace semantics is (domain, path,
// name); storing a record with an existing identity overwrites the
// prior one. Domain and path stay exactly as the cookie carried them,
// empty when the attribute was absent, so such records match by origin
// URI alone.
type Record struct {
	ID        string    `json:"id"`
	URI       string    `json:"uri"`
	Domain    string    `json:"domain"`
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	Value     string    `json:"value"`
	Secure    bool      `json:"secure"`
	HttpOnly  bool      `json:"http_only"`
	SameSite  string    `json:"same_site"`
	Expiry    time.Time `json:"expiry"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsExpired returns true if the record is past its expiry at now.
func (r *Record) IsExpired(now time.Time) bool {
	if r.Expiry.IsZero() {
		return false // Session cookie, never expires
	}
	return now.After(r.Expiry)
}

// IsSession returns true if this is a session cookie (no expiry).
func (r *Record) IsSession() bool {
	return r.Expiry.IsZero()
}

// Field implements where.Valuer. Time fields are exposed as epoch
// milliseconds, matching their stored form; a zero time reports 0.
func (r *Record) Field(name string) (any, bool) {
	switch name {
	case FieldURI:
		return r.URI, true
	case FieldDomain:
		return r.Domain, true
	case FieldPath:
		return r.Path, true
	case FieldName:
		return r.Name, true
	case FieldValue:
		return r.Value, true
	case FieldSecure:
		return r.Secure, true
	case FieldHTTPOnly:
		return r.HttpOnly, true
	case FieldSameSite:
		return r.SameSite, true
	case FieldExpiry:
		return TimeToMillis(r.Expiry), true
	case FieldCreatedAt:
		return TimeToMillis(r.CreatedAt), true
	case FieldUpdatedAt:
		return TimeToMillis(r.UpdatedAt), true
	}
	return nil, false
}

// ToHTTPCookie converts to standard http.Cookie.
func (r *Record) ToHTTPCookie() *http.Cookie {
	sameSite := http.SameSiteDefaultMode
	switch r.SameSite {
	case "lax":
		sameSite = http.SameSiteLaxMode
	case "strict":
		sameSite = http.SameSiteStrictMode
	case "none":
		sameSite = http.SameSiteNoneMode
	}

	return &http.Cookie{
		Name:     r.Name,
		Value:    r.Value,
		Domain:   r.Domain,
		Path:     r.Path,
		Secure:   r.Secure,
		HttpOnly: r.HttpOnly,
		SameSite: sameSite,
		Expires:  r.Expiry,
	}
}

// FromHTTPCookie creates a Record from a cookie received at origin.
// A positive MaxAge wins over Expires; a negative MaxAge means the
// cookie is already dead and gets an expiry in the past. Neither set
// leaves a zero expiry, marking a session cookie.
func FromHTTPCookie(origin string, hc *http.Cookie, now time.Time) *Record {
	sameSite := ""
	switch hc.SameSite {
	case http.SameSiteLaxMode:
		sameSite = "lax"
	case http.SameSiteStrictMode:
		sameSite = "strict"
	case http.SameSiteNoneMode:
		sameSite = "none"
	}

	expiry := hc.Expires
	if hc.MaxAge > 0 {
		expiry = now.Add(time.Duration(hc.MaxAge) * time.Second)
	} else if hc.MaxAge < 0 {
		// MaxAge < 0 means delete cookie immediately. A zero expiry
		// would read as a session cookie, so back-date by a second.
		expiry = now.Add(-time.Second)
	}

	return &Record{
		URI:       origin,
		Domain:    hc.Domain,
		Path:      hc.Path,
		Name:      hc.Name,
		Value:     hc.Value,
		Secure:    hc.Secure,
		HttpOnly:  hc.HttpOnly,
		SameSite:  sameSite,
		Expiry:    expiry,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TimeToMillis converts t to epoch milliseconds, the form time fields
// are stored and queried in. A zero time maps to 0.
func TimeToMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// MillisToTime is the inverse of TimeToMillis.
func MillisToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
