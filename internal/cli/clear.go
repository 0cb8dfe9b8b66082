package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// ClearOptions holds options for the clear command.
type ClearOptions struct {
	Yes bool
}

// NewClearCommand creates the clear command.
func NewClearCommand(root *rootOptions) *cobra.Command {
	opts := &ClearOptions{}

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every stored cookie",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClear(cmd, root, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func runClear(cmd *cobra.Command, root *rootOptions, opts *ClearOptions) error {
	ctx := cmd.Context()

	j, store, err := openJar(ctx, root)
	if err != nil {
		return err
	}
	defer store.Close()

	count, err := j.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count cookies: %w", err)
	}

	out := cmd.OutOrStdout()
	if count == 0 {
		fmt.Fprintln(out, "No cookies stored")
		return nil
	}

	if !opts.Yes {
		fmt.Fprintf(out, "Remove all %d cookies? [y/N] ", count)
		answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" {
			fmt.Fprintln(out, "Aborted")
			return nil
		}
	}

	if err := j.RemoveAll(ctx); err != nil {
		return fmt.Errorf("failed to clear cookies: %w", err)
	}

	fmt.Fprintf(out, "Cleared %d cookies\n", count)
	return nil
}
