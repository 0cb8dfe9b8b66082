package jar

import (
	"net/http"
	"net/url"
)

// Listener receives save and remove notifications from a Jar. Both
// callbacks run synchronously under the jar lock, before the
// persistence call, so a listener observes intent even when
// persistence later fails. The URI arrives as the caller passed it,
// not in effective form, and may be nil.
type Listener interface {
	OnSaveCookie(uri *url.URL, cookie *http.Cookie)
	OnRemoveCookie(uri *url.URL, cookie *http.Cookie)
}
