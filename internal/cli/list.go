package cli

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/artpar/biscuit/internal/jar"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)

// ListOptions holds options for the list command.
type ListOptions struct {
	JSON bool
}

// NewListCommand creates the list command.
func NewListCommand(root *rootOptions) *cobra.Command {
	opts := &ListOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all live cookies",
		Long:  "List every stored cookie that has not expired. Expired records are deleted on the way.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, root, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output as JSON")

	return cmd
}

func runList(cmd *cobra.Command, root *rootOptions, opts *ListOptions) error {
	ctx := cmd.Context()

	j, store, err := openJar(ctx, root)
	if err != nil {
		return err
	}
	defer store.Close()

	if _, err := j.Sweep(ctx); err != nil {
		return fmt.Errorf("failed to sweep expired cookies: %w", err)
	}

	recs, err := store.List(ctx, jar.Query{})
	if err != nil {
		return fmt.Errorf("failed to list cookies: %w", err)
	}

	if opts.JSON {
		return writeJSON(cmd, recs)
	}

	out := cmd.OutOrStdout()
	if len(recs) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("No cookies stored"))
		return nil
	}

	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%-28s %-20s %-14s %-17s %s", "DOMAIN", "NAME", "PATH", "EXPIRES", "VALUE")))
	for _, rec := range recs {
		expires := "session"
		if !rec.Expiry.IsZero() {
			expires = rec.Expiry.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(out, "%-28s %-20s %-14s %-17s %s\n",
			orDash(rec.Domain),
			rec.Name,
			orDash(rec.Path),
			expires,
			truncate(rec.Value, 40))
	}
	fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("%d cookies", len(recs))))
	return nil
}

// writeJSON renders v as indented JSON on the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseURL parses a URL argument, requiring a host.
func parseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid url %q: missing host", raw)
	}
	return u, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
