// Package score handles the anomaly scoring command
package score

import (
	"context"
	"fmt"
	"io"

	"fjacquet/spend-intel/cmd/root"
	"fjacquet/spend-intel/internal/container"

	"github.com/spf13/cobra"
)

var (
	userID     string
	categoryID string
	amount     string
)

// Cmd represents the score command
var Cmd = &cobra.Command{
	Use:   "score",
	Short: "Score an expense amount against the user's baseline",
	Long: `Compute the z-score of an amount against the stored baseline for a user and
category, and report whether it exceeds the anomaly threshold. Prints
"unavailable" when no usable baseline exists.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := root.GetContainer()
		if err != nil {
			return err
		}
		return Run(cmd.Context(), c, cmd.OutOrStdout(), userID, categoryID, amount)
	},
}

func init() {
	Cmd.Flags().StringVarP(&userID, "user", "u", "", "User id")
	Cmd.Flags().StringVarP(&categoryID, "category", "k", "", "Category id")
	Cmd.Flags().StringVarP(&amount, "amount", "a", "", "Expense amount")
	_ = Cmd.MarkFlagRequired("user")
	_ = Cmd.MarkFlagRequired("category")
	_ = Cmd.MarkFlagRequired("amount")
}

// Run scores amount and prints "z=<score> anomalous=<bool>" or "unavailable".
func Run(ctx context.Context, c *container.Container, out io.Writer, userID, categoryID, amount string) error {
	scorer := c.GetScorer()
	z, ok := scorer.ScoreString(ctx, userID, categoryID, amount)
	if !ok {
		_, err := fmt.Fprintln(out, "unavailable")
		return err
	}
	_, err := fmt.Fprintf(out, "z=%.4f anomalous=%t\n", z, scorer.IsAnomalous(z))
	return err
}
