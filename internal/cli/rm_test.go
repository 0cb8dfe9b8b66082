package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRmCommand(t *testing.T) {
	t.Run("removes every spelling of the name", func(t *testing.T) {
		root := testRootOptions(t)
		execute(t, NewSetCommand(root), "https://example.com/", "sid", "a")
		execute(t, NewSetCommand(root), "https://other.org/", "sid", "b")

		out := execute(t, NewRmCommand(root), "https://example.com/", "sid")
		assert.Contains(t, out, "Removed sid")

		listOut := execute(t, NewListCommand(root))
		assert.Contains(t, listOut, "No cookies stored")
	})

	t.Run("narrows to one identity with domain and path", func(t *testing.T) {
		root := testRootOptions(t)
		execute(t, NewSetCommand(root), "https://example.com/", "sid", "a")
		execute(t, NewSetCommand(root), "https://other.org/", "sid", "b")

		execute(t, NewRmCommand(root), "https://example.com/", "sid",
			"--domain", "example.com", "--path", "/")

		listOut := execute(t, NewListCommand(root))
		assert.NotContains(t, listOut, "example.com")
		assert.Contains(t, listOut, "other.org")
	})
}
