package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetCommand(t *testing.T) {
	t.Run("stores a cookie scoped to the url", func(t *testing.T) {
		root := testRootOptions(t)

		out := execute(t, NewSetCommand(root), "https://example.com/login", "sid", "abc123")
		assert.Contains(t, out, "Stored sid for example.com")

		listOut := execute(t, NewListCommand(root))
		assert.Contains(t, listOut, "sid")
		assert.Contains(t, listOut, "example.com")
		assert.Contains(t, listOut, "session")
	})

	t.Run("keeps explicit attributes", func(t *testing.T) {
		root := testRootOptions(t)

		execute(t, NewSetCommand(root),
			"https://example.com/", "pref", "dark",
			"--domain", ".example.com", "--path", "/settings", "--max-age", "3600")

		listOut := execute(t, NewListCommand(root))
		assert.Contains(t, listOut, ".example.com")
		assert.Contains(t, listOut, "/settings")
		assert.NotContains(t, listOut, "session")
	})

	t.Run("overwrites by identity", func(t *testing.T) {
		root := testRootOptions(t)

		execute(t, NewSetCommand(root), "https://example.com/", "sid", "old")
		execute(t, NewSetCommand(root), "https://example.com/", "sid", "new")

		out := execute(t, NewGetCommand(root), "https://example.com/")
		assert.Contains(t, out, "sid=new")
		assert.NotContains(t, out, "old")
	})

	t.Run("rejects an unknown same-site value", func(t *testing.T) {
		root := testRootOptions(t)

		cmd := NewSetCommand(root)
		cmd.SetArgs([]string{"https://example.com/", "sid", "abc", "--same-site", "maybe"})
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})

		err := cmd.Execute()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown same-site value")
	})
}

func TestParseSameSite(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"", false},
		{"strict", false},
		{"Lax", false},
		{"NONE", false},
		{"maybe", true},
	}

	for _, tt := range tests {
		_, err := parseSameSite(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
		} else {
			assert.NoError(t, err, tt.in)
		}
	}
}
