package harness

import (
	"bytes"
	"context"
	"path/filepath"
	"time"

	"github.com/artpar/biscuit/internal/cli"
)

// CLIResult holds CLI execution results.
type CLIResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// CLIRunner executes CLI commands against the harness database.
type CLIRunner struct {
	harness *E2EHarness
}

// Run executes a CLI command with the given arguments. The global
// storage flags point at the harness directory so state persists
// between runs and never touches the tester's real cookie database.
func (r *CLIRunner) Run(args ...string) (*CLIResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.harness.timeout)
	defer cancel()

	start := time.Now()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	full := append([]string{
		"--backend", "sqlite",
		"--db", filepath.Join(r.harness.tmpDir, "cookies.db"),
		"--config", filepath.Join(r.harness.tmpDir, "no-config.yaml"),
	}, args...)

	cmd := cli.NewRootCommand("test")
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(full)

	err := cmd.ExecuteContext(ctx)

	result := &CLIResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		result.ExitCode = 1
	}

	return result, err
}

// Set is a convenience method for the set command.
func (r *CLIRunner) Set(url, name, value string, opts ...string) (*CLIResult, error) {
	args := []string{"set", url, name, value}
	args = append(args, opts...)
	return r.Run(args...)
}

// Get is a convenience method for the get command.
func (r *CLIRunner) Get(url string, opts ...string) (*CLIResult, error) {
	args := []string{"get", url}
	args = append(args, opts...)
	return r.Run(args...)
}

// List is a convenience method for the list command.
func (r *CLIRunner) List(opts ...string) (*CLIResult, error) {
	args := []string{"list"}
	args = append(args, opts...)
	return r.Run(args...)
}
