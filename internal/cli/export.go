package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/biscuit/internal/cookiefile"
	"github.com/artpar/biscuit/internal/jar"
)

// ExportOptions holds options for the export command.
type ExportOptions struct {
	Format string
	Output string
}

// NewExportCommand creates the export command.
func NewExportCommand(root *rootOptions) *cobra.Command {
	opts := &ExportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the live cookies to a file or stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, root, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.Format, "format", "f", "json", "Export format: json or netscape")
	flags.StringVarP(&opts.Output, "output", "o", "", "Write to a file instead of stdout")

	return cmd
}

func runExport(cmd *cobra.Command, root *rootOptions, opts *ExportOptions) error {
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

	data, err := cookiefile.Encode(recs, cookiefile.Format(opts.Format))
	if err != nil {
		return fmt.Errorf("failed to export as %s: %w", opts.Format, err)
	}

	if opts.Output == "" {
		out := cmd.OutOrStdout()
		if _, err := out.Write(data); err != nil {
			return err
		}
		if !bytes.HasSuffix(data, []byte("\n")) {
			fmt.Fprintln(out)
		}
		return nil
	}

	// Cookie values are credentials, keep the file private.
	if err := os.WriteFile(opts.Output, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", opts.Output, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d cookies to %s\n", len(recs), opts.Output)
	return nil
}
