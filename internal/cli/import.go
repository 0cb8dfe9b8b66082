package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/biscuit/internal/cookiefile"
)

// ImportOptions holds options for the import command.
type ImportOptions struct {
	Format string
}

// NewImportCommand creates the import command.
func NewImportCommand(root *rootOptions) *cobra.Command {
	opts := &ImportOptions{}

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Load cookies from a JSON dump or a cookies.txt file",
		Long:  "Read cookies from FILE and store them. Cookies with the same domain, path and name overwrite the stored ones.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, root, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "auto", "Source format: auto, json or netscape")

	return cmd
}

func runImport(cmd *cobra.Command, root *rootOptions, path string, opts *ImportOptions) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read cookie file: %w", err)
	}

	recs, err := cookiefile.Decode(data, cookiefile.Format(opts.Format))
	if err != nil {
		return fmt.Errorf("failed to parse cookie file: %w", err)
	}

	ctx := cmd.Context()
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	// Replace keeps the imported timestamps, which a round trip through
	// Add would reset.
	for _, rec := range recs {
		if err := store.Replace(ctx, rec); err != nil {
			return fmt.Errorf("failed to import %s: %w", rec.Name, err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d cookies from %s\n", len(recs), path)
	return nil
}
