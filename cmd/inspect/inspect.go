// Package inspect handles the artifact summary command
package inspect

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

// Cmd represents the inspect command
var Cmd = &cobra.Command{
	Use:   "inspect",
	Short: "Summarize the stored model artifacts",
	Long: `Load the classifier and baseline artifacts and print their schema version
and size. Exits with an error when an artifact exists but cannot be read.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := root.GetContainer()
		if err != nil {
			return err
		}
		return Run(cmd.Context(), c, cmd.OutOrStdout())
	},
}

// Run prints one summary block per artifact. A missing artifact is reported
// but is not an error.
func Run(ctx context.Context, c *container.Container, out io.Writer) error {
	artifacts := c.GetArtifactStore()
	var failed []error

	fmt.Fprintf(out, "classifier: %s\n", artifacts.ClassifierLocation())
	clf, err := artifacts.LoadClassifier(ctx)
	switch {
	case errors.Is(err, store.ErrArtifactNotFound):
		fmt.Fprintln(out, "  status: not found")
	case err != nil:
		fmt.Fprintf(out, "  status: unreadable (%v)\n", err)
		failed = append(failed, err)
	default:
		fmt.Fprintf(out, "  schema_version: %d\n", clf.SchemaVersion)
		fmt.Fprintf(out, "  ngram_range: %d-%d\n", clf.NgramMin, clf.NgramMax)
		fmt.Fprintf(out, "  classes: %d\n", len(clf.Classes))
		fmt.Fprintf(out, "  vocabulary: %d\n", len(clf.Vocabulary))
	}

	fmt.Fprintf(out, "baselines: %s\n", artifacts.BaselinesLocation())
	baselines, err := artifacts.LoadBaselines(ctx)
	switch {
	case errors.Is(err, store.ErrArtifactNotFound):
		fmt.Fprintln(out, "  status: not found")
	case err != nil:
		fmt.Fprintf(out, "  status: unreadable (%v)\n", err)
		failed = append(failed, err)
	default:
		fmt.Fprintf(out, "  schema_version: %d\n", baselines.SchemaVersion)
		fmt.Fprintf(out, "  users: %d\n", len(baselines.Users))
		fmt.Fprintf(out, "  baselines: %d\n", baselines.Len())
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d artifact(s) unreadable: %w", len(failed), errors.Join(failed...))
	}
	return nil
}
