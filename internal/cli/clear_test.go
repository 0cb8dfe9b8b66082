package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClearCommand(t *testing.T) {
	t.Run("clears everything with --yes", func(t *testing.T) {
		root := testRootOptions(t)
		execute(t, NewSetCommand(root), "https://example.com/", "a", "1")
		execute(t, NewSetCommand(root), "https://example.com/", "b", "2")

		out := execute(t, NewClearCommand(root), "--yes")
		assert.Contains(t, out, "Cleared 2 cookies")

		listOut := execute(t, NewListCommand(root))
		assert.Contains(t, listOut, "No cookies stored")
	})

	t.Run("reports an empty store", func(t *testing.T) {
		root := testRootOptions(t)
		out := execute(t, NewClearCommand(root))
		assert.Contains(t, out, "No cookies stored")
	})

	t.Run("asks before clearing and honors no", func(t *testing.T) {
		root := testRootOptions(t)
		execute(t, NewSetCommand(root), "https://example.com/", "keepme", "1")

		cmd := NewClearCommand(root)
		out := &bytes.Buffer{}
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SetIn(strings.NewReader("n\n"))
		cmd.SetArgs(nil)
		require.NoError(t, cmd.Execute())

		assert.Contains(t, out.String(), "Remove all 1 cookies?")
		assert.Contains(t, out.String(), "Aborted")

		listOut := execute(t, NewListCommand(root))
		assert.Contains(t, listOut, "keepme")
	})

	t.Run("proceeds on yes", func(t *testing.T) {
		root := testRootOptions(t)
		execute(t, NewSetCommand(root), "https://example.com/", "a", "1")

		cmd := NewClearCommand(root)
		out := &bytes.Buffer{}
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SetIn(strings.NewReader("y\n"))
		cmd.SetArgs(nil)
		require.NoError(t, cmd.Execute())

		assert.Contains(t, out.String(), "Cleared 1 cookies")
	})
}
