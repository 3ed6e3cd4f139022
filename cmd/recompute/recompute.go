// Package recompute handles the anomaly baseline command
package recompute

import (
	"context"
	"fmt"
	"io"

	"fjacquet/spend-intel/cmd/root"
	"fjacquet/spend-intel/internal/container"

	"github.com/spf13/cobra"
)

// Cmd represents the recompute command
var Cmd = &cobra.Command{
	Use:   "recompute",
	Short: "Recompute per-user spending baselines",
	Long: `Recompute the mean and standard deviation of every (user, category) pair of
EXPENSE transactions, preferring the recent window and falling back to the
full history, and replace the stored baseline artifact.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := root.GetContainer()
		if err != nil {
			return err
		}
		return Run(cmd.Context(), c, cmd.OutOrStdout())
	},
}

// Run recomputes the baselines and prints the outcome to out.
func Run(ctx context.Context, c *container.Container, out io.Writer) error {
	result, err := c.GetBuilder().Recompute(ctx)
	if err != nil {
		return fmt.Errorf("recompute failed: %w", err)
	}
	c.GetArtifactStore().Reload()

	_, err = fmt.Fprintf(out, "baselines written to %s: %d written (%d recent, %d full history), %d skipped\n",
		c.GetArtifactStore().BaselinesLocation(), result.Written, result.RecentWindow, result.FullHistory, result.Skipped())
	return err
}
