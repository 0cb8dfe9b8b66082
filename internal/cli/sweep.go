package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewSweepCommand creates the sweep command.
func NewSweepCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired cookies now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, root)
		},
	}
}

func runSweep(cmd *cobra.Command, root *rootOptions) error {
	ctx := cmd.Context()

	j, store, err := openJar(ctx, root)
	if err != nil {
		return err
	}
	defer store.Close()

	swept, err := j.Sweep(ctx)
	if err != nil {
		return fmt.Errorf("failed to sweep cookies: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Swept %d expired cookies\n", swept)
	return nil
}
