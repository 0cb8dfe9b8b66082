package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// testRootOptions points every command at a throwaway sqlite database
// so state survives across command invocations within one test.
func testRootOptions(t *testing.T) *rootOptions {
	t.Helper()
	dir := t.TempDir()
	return &rootOptions{
		configPath: filepath.Join(dir, "no-config.yaml"),
		backend:    "sqlite",
		dbPath:     filepath.Join(dir, "cookies.db"),
	}
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) string {
	t.Helper()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}
