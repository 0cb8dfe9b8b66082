//go:build integration

package redis

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/artpar/biscuit/internal/jar"
)

// Run with a live Redis:
//
//	REDIS_URL=redis://localhost:6379/0 go test -tags integration ./internal/jar/redis/
func TestStore(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}

	jar.RunStoreTests(t, func() (jar.Store, func()) {
		s, err := Open(context.Background(), url, "biscuit:test")
		require.NoError(t, err)
		require.NoError(t, s.DeleteAll(context.Background()))
		return s, func() {
			_ = s.DeleteAll(context.Background())
			_ = s.Close()
		}
	})
}
