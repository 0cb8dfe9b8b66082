package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

// RmOptions holds options for the rm command.
type RmOptions struct {
	Domain string
	Path   string
}

// NewRmCommand creates the rm command.
func NewRmCommand(root *rootOptions) *cobra.Command {
	opts := &RmOptions{}

	cmd := &cobra.Command{
		Use:   "rm URL NAME",
		Short: "Remove a stored cookie",
		Long:  "Remove the cookies named NAME. Without --domain and --path every spelling of the name goes; with them only the exact identity does.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRm(cmd, root, args, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Domain, "domain", "", "Match the Domain attribute exactly")
	flags.StringVar(&opts.Path, "path", "", "Match the Path attribute exactly")

	return cmd
}

func runRm(cmd *cobra.Command, root *rootOptions, args []string, opts *RmOptions) error {
	u, err := parseURL(args[0])
	if err != nil {
		return err
	}

	cookie := &http.Cookie{
		Name:   args[1],
		Domain: opts.Domain,
		Path:   opts.Path,
	}

	ctx := cmd.Context()
	j, store, err := openJar(ctx, root)
	if err != nil {
		return err
	}
	defer store.Close()

	if _, err := j.Remove(ctx, u, cookie); err != nil {
		return fmt.Errorf("failed to remove cookie: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", cookie.Name)
	return nil
}
