// Package exportbaselines handles copying anomaly baselines into the database
package exportbaselines

import (
	"context"
	"errors"
	"fmt"
	"io"

	"fjacquet/spend-intel/cmd/root"
	"fjacquet/spend-intel/internal/container"
	"fjacquet/spend-intel/internal/store"

	"github.com/spf13/cobra"
)

// Cmd represents the export-baselines command
var Cmd = &cobra.Command{
	Use:   "export-baselines",
	Short: "Copy the baseline artifact into the anomaly_stats table",
	Long: `Replace the contents of the anomaly_stats table with every baseline of the
stored artifact, in a single database transaction.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := root.GetContainer()
		if err != nil {
			return err
		}
		return Run(cmd.Context(), c, cmd.OutOrStdout())
	},
}

// Run exports the stored baselines and prints the row count.
func Run(ctx context.Context, c *container.Container, out io.Writer) error {
	artifacts := c.GetArtifactStore()
	baselines, err := artifacts.LoadBaselines(ctx)
	if errors.Is(err, store.ErrArtifactNotFound) {
		return fmt.Errorf("no baselines at %s, run recompute first", artifacts.BaselinesLocation())
	}
	if err != nil {
		return err
	}

	repo, err := c.Repository()
	if err != nil {
		return err
	}
	n, err := repo.ReplaceBaselines(ctx, baselines)
	if err != nil {
		return fmt.Errorf("failed to export baselines: %w", err)
	}

	_, err = fmt.Fprintf(out, "exported %d baselines to %s\n", n, repo.Name())
	return err
}
