package clientjar

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/artpar/biscuit/internal/jar"
	"github.com/artpar/biscuit/internal/jar/memory"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestJar_RoundTrip(t *testing.T) {
	store := memory.New()
	defer store.Close()
	cj := New(jar.New(store))

	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "abc123"})
	})
	mux.HandleFunc("/profile", func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("sid")
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, c.Value)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := &http.Client{Jar: cj}

	resp, err := client.Get(srv.URL + "/login")
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	resp.Body.Close()

	resp, err = client.Get(srv.URL + "/profile")
	if err != nil {
		t.Fatalf("profile request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected the session cookie to come back, got status %d", resp.StatusCode)
	}
	if string(body) != "abc123" {
		t.Errorf("expected cookie value echoed back, got %q", string(body))
	}
}

func TestJar_SetCookies(t *testing.T) {
	t.Run("defaults domain and path from the request", func(t *testing.T) {
		store := memory.New()
		defer store.Close()
		cj := New(jar.New(store))
		u, _ := url.Parse("https://example.com/account/settings")

		cj.SetCookies(u, []*http.Cookie{{Name: "sid", Value: "x"}})

		recs, err := store.List(context.Background(), jar.Query{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(recs) != 1 {
			t.Fatalf("expected 1 record, got %d", len(recs))
		}
		if recs[0].Domain != "example.com" {
			t.Errorf("expected domain defaulted to the host, got %q", recs[0].Domain)
		}
		if recs[0].Path != "/account" {
			t.Errorf("expected path defaulted to the request directory, got %q", recs[0].Path)
		}
	})

	t.Run("keeps explicit attributes", func(t *testing.T) {
		store := memory.New()
		defer store.Close()
		cj := New(jar.New(store))
		u, _ := url.Parse("https://www.example.com/account")

		cj.SetCookies(u, []*http.Cookie{{Name: "sid", Value: "x", Domain: ".example.com", Path: "/"}})

		recs, _ := store.List(context.Background(), jar.Query{})
		if len(recs) != 1 || recs[0].Domain != ".example.com" || recs[0].Path != "/" {
			t.Fatalf("expected attributes kept verbatim, got %+v", recs)
		}
	})

	t.Run("negative max-age removes the cookie", func(t *testing.T) {
		store := memory.New()
		defer store.Close()
		j := jar.New(store)
		cj := New(j)
		ctx := context.Background()
		u, _ := url.Parse("https://example.com/")

		cj.SetCookies(u, []*http.Cookie{{Name: "sid", Value: "x"}})
		got, _ := j.Get(ctx, u)
		if len(got) != 1 {
			t.Fatalf("expected cookie stored, got %d", len(got))
		}

		cj.SetCookies(u, []*http.Cookie{{Name: "sid", MaxAge: -1}})
		got, _ = j.Get(ctx, u)
		if len(got) != 0 {
			t.Errorf("expected cookie removed, got %d", len(got))
		}
	})

	t.Run("rejects cookies scoped to a public suffix", func(t *testing.T) {
		store := memory.New()
		defer store.Close()
		j := jar.New(store)
		cj := New(j, WithLogger(quietLogger()))
		u, _ := url.Parse("https://example.com/")

		cj.SetCookies(u, []*http.Cookie{{Name: "evil", Value: "x", Domain: "com"}})

		count, _ := j.Count(context.Background())
		if count != 0 {
			t.Errorf("expected the cookie rejected, got %d records", count)
		}
	})

	t.Run("allows the suffix when the host is the suffix", func(t *testing.T) {
		store := memory.New()
		defer store.Close()
		j := jar.New(store)
		cj := New(j)
		u, _ := url.Parse("http://localhost/")

		cj.SetCookies(u, []*http.Cookie{{Name: "dev", Value: "x", Domain: "localhost"}})

		count, _ := j.Count(context.Background())
		if count != 1 {
			t.Errorf("expected the cookie stored, got %d records", count)
		}
	})
}

func TestJar_CookiesDegradesOnFailure(t *testing.T) {
	store := memory.New()
	store.Close()
	cj := New(jar.New(store), WithLogger(quietLogger()))
	u, _ := url.Parse("https://example.com/")

	if got := cj.Cookies(u); got != nil {
		t.Errorf("expected nil on lookup failure, got %v", got)
	}
}

func TestDefaultPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"", "/"},
		{"/", "/"},
		{"/login", "/"},
		{"/a/b", "/a"},
		{"/a/b/", "/a/b"},
		{"relative", "/"},
	}
	for _, tt := range tests {
		if got := defaultPath(tt.path); got != tt.want {
			t.Errorf("defaultPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestRejectsDomain(t *testing.T) {
	tests := []struct {
		host   string
		domain string
		want   bool
	}{
		{"https://example.com/", "com", true},
		{"https://example.com/", "example.com", false},
		{"https://www.example.com/", ".example.com", false},
		{"https://foo.co.uk/", "co.uk", true},
		{"http://localhost/", "localhost", false},
	}
	for _, tt := range tests {
		u, _ := url.Parse(tt.host)
		if got := rejectsDomain(u, tt.domain); got != tt.want {
			t.Errorf("rejectsDomain(%s, %q) = %v, want %v", tt.host, tt.domain, got, tt.want)
		}
	}
}
