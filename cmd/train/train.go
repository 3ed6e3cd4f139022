// Package train handles the classifier training command
package train

import (
	"context"
	"fmt"
	"io"

	"fjacquet/spend-intel/cmd/root"
	"fjacquet/spend-intel/internal/container"

	"github.com/spf13/cobra"
)

// Cmd represents the train command
var Cmd = &cobra.Command{
	Use:   "train",
	Short: "Train the expense category classifier",
	Long: `Train the note classifier on every categorized EXPENSE transaction with a note
and replace the stored classifier artifact. Runs below the row or class
minimum are skipped and leave the previous artifact in place.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := root.GetContainer()
		if err != nil {
			return err
		}
		return Run(cmd.Context(), c, cmd.OutOrStdout())
	},
}

// Run trains the classifier and prints the outcome to out.
func Run(ctx context.Context, c *container.Container, out io.Writer) error {
	result, err := c.GetTrainer().Train(ctx)
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}

	if !result.Written {
		_, err = fmt.Fprintf(out, "training skipped: %s (%d rows, %d classes)\n",
			result.SkipReason, result.Rows, result.Classes)
		return err
	}

	c.GetArtifactStore().Reload()
	_, err = fmt.Fprintf(out, "classifier written to %s: %d rows, %d classes, %d terms\n",
		c.GetArtifactStore().ClassifierLocation(), result.Used, result.Classes, result.VocabularySize)
	return err
}
