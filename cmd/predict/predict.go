// Package predict handles the category prediction command
package predict

import (
	"context"
	"fmt"
	"io"

	"fjacquet/spend-intel/cmd/root"
	"fjacquet/spend-intel/internal/container"

	"github.com/spf13/cobra"
)

var (
	note    string
	allowed []string
)

// Cmd represents the predict command
var Cmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict the category of a transaction note",
	Long: `Predict the most likely category for a free-text note using the trained
classifier. Prints "none" when the note carries no usable text or no
classifier is available.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := root.GetContainer()
		if err != nil {
			return err
		}
		var restrict []string
		if cmd.Flags().Changed("allowed") {
			restrict = allowed
			if restrict == nil {
				restrict = []string{}
			}
		}
		return Run(cmd.Context(), c, cmd.OutOrStdout(), note, restrict)
	},
}

func init() {
	Cmd.Flags().StringVarP(&note, "note", "n", "", "Transaction note to classify")
	Cmd.Flags().StringSliceVarP(&allowed, "allowed", "a", nil, "Restrict the prediction to these categories (comma separated)")
	_ = Cmd.MarkFlagRequired("note")
}

// Run predicts a category for note. A nil allowed list leaves the prediction
// unrestricted.
func Run(ctx context.Context, c *container.Container, out io.Writer, note string, allowed []string) error {
	label, ok := c.GetPredictor().PredictFor(ctx, note, allowed)
	if !ok {
		label = "none"
	}
	_, err := fmt.Fprintln(out, label)
	return err
}
