package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCommand(t *testing.T) {
	t.Run("matches a subdomain against the parent domain", func(t *testing.T) {
		root := testRootOptions(t)
		execute(t, NewSetCommand(root), "https://example.com/", "sid", "abc123")

		out := execute(t, NewGetCommand(root), "http://www.example.com/profile")
		assert.Contains(t, out, "sid=abc123")
	})

	t.Run("prints a ready cookie header line", func(t *testing.T) {
		root := testRootOptions(t)
		execute(t, NewSetCommand(root), "https://example.com/", "a", "1")
		execute(t, NewSetCommand(root), "https://example.com/", "b", "2")

		out := execute(t, NewGetCommand(root), "https://example.com/", "--header")
		assert.Contains(t, out, "a=1")
		assert.Contains(t, out, "b=2")
		assert.Contains(t, out, "; ")
	})

	t.Run("outputs json", func(t *testing.T) {
		root := testRootOptions(t)
		execute(t, NewSetCommand(root), "https://example.com/", "sid", "abc123")

		out := execute(t, NewGetCommand(root), "https://example.com/", "--json")
		assert.Contains(t, out, `"name": "sid"`)
		assert.Contains(t, out, `"value": "abc123"`)
	})

	t.Run("reports when nothing matches", func(t *testing.T) {
		root := testRootOptions(t)
		execute(t, NewSetCommand(root), "https://example.com/", "sid", "abc123")

		out := execute(t, NewGetCommand(root), "https://other.com/")
		assert.Contains(t, out, "No cookies match")
	})

	t.Run("rejects a url without a host", func(t *testing.T) {
		root := testRootOptions(t)

		cmd := NewGetCommand(root)
		cmd.SetArgs([]string{"/just/a/path"})
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})

		err := cmd.Execute()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing host")
	})
}
