package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewOriginsCommand creates the origins command.
func NewOriginsCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "origins",
		Short: "List the distinct origin URIs cookies were stored under",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrigins(cmd, root)
		},
	}
}

func runOrigins(cmd *cobra.Command, root *rootOptions) error {
	ctx := cmd.Context()

	j, store, err := openJar(ctx, root)
	if err != nil {
		return err
	}
	defer store.Close()

	uris, err := j.Origins(ctx)
	if err != nil {
		return fmt.Errorf("failed to list origins: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, u := range uris {
		fmt.Fprintln(out, u.String())
	}
	return nil
}
