// Package enrich handles the transaction enrichment command
package enrich

import (
	"context"
	"fmt"
	"io"
	"time"

	"fjacquet/spend-intel/cmd/root"
	"fjacquet/spend-intel/internal/container"
	"fjacquet/spend-intel/internal/currencyutils"
	"fjacquet/spend-intel/internal/dateutils"
	"fjacquet/spend-intel/internal/models"
	"fjacquet/spend-intel/internal/source"
	"fjacquet/spend-intel/internal/store"

	"github.com/spf13/cobra"
)

// Options holds the enrich command flags.
type Options struct {
	UserID     string
	Note       string
	Amount     string
	CategoryID string
	Type       string
	Date       string
	Input      string
	Output     string
	Save       bool
}

var opts = Options{}

// Cmd represents the enrich command
var Cmd = &cobra.Command{
	Use:   "enrich",
	Short: "Fill in predicted category and anomaly score for new transactions",
	Long: `Enrich a transaction the way it is enriched when created: predict a category
from the note, use it when no category was given, and score EXPENSE amounts
against the user's baseline. Use --input and --output to enrich a CSV file,
or the transaction flags for a single transaction. --save stores the result
in the transaction database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := root.GetContainer()
		if err != nil {
			return err
		}
		if opts.Input != "" {
			return RunBatch(cmd.Context(), c, cmd.OutOrStdout(), opts)
		}
		return Run(cmd.Context(), c, cmd.OutOrStdout(), opts)
	},
}

func init() {
	Cmd.Flags().StringVarP(&opts.UserID, "user", "u", "", "User id")
	Cmd.Flags().StringVarP(&opts.Note, "note", "n", "", "Transaction note")
	Cmd.Flags().StringVarP(&opts.Amount, "amount", "a", "", "Transaction amount")
	Cmd.Flags().StringVarP(&opts.CategoryID, "category", "k", "", "Category chosen by the user (optional)")
	Cmd.Flags().StringVarP(&opts.Type, "type", "t", string(models.TransactionTypeExpense), "Transaction type (EXPENSE or INCOME)")
	Cmd.Flags().StringVarP(&opts.Date, "date", "d", "", "Transaction date (default: today)")
	Cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "CSV file of transactions to enrich")
	Cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "CSV file to write enriched transactions to (default: overwrite input)")
	Cmd.Flags().BoolVar(&opts.Save, "save", false, "Store enriched transactions in the database")
}

// enrichedView is the printed form of a single enriched transaction.
type enrichedView struct {
	ID                string   `yaml:"id,omitempty"`
	UserID            string   `yaml:"user_id"`
	CategoryID        string   `yaml:"category_id"`
	Type              string   `yaml:"type"`
	Amount            string   `yaml:"amount"`
	Date              string   `yaml:"date"`
	Note              string   `yaml:"note"`
	PredictedCategory *string  `yaml:"predicted_category"`
	AnomalyZScore     *float64 `yaml:"anomaly_z_score"`
	Anomalous         bool     `yaml:"anomalous"`
}

// BuildTransaction converts the single-transaction flags into a Transaction.
func BuildTransaction(o Options, now time.Time) (models.Transaction, error) {
	if o.UserID == "" {
		return models.Transaction{}, fmt.Errorf("--user is required")
	}
	txType, ok := models.ParseTransactionType(o.Type)
	if !ok {
		return models.Transaction{}, fmt.Errorf("invalid transaction type %q", o.Type)
	}
	amount, err := currencyutils.ParseAmount(o.Amount)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("invalid amount %q: %w", o.Amount, err)
	}
	date := dateutils.StartOfDay(now)
	if o.Date != "" {
		if date, err = dateutils.ParseDate(o.Date); err != nil {
			return models.Transaction{}, err
		}
	}
	return models.Transaction{
		UserID:     o.UserID,
		CategoryID: o.CategoryID,
		Type:       txType,
		Amount:     amount,
		Date:       date,
		Note:       o.Note,
	}, nil
}

// Run enriches the single transaction described by o and prints it as YAML.
func Run(ctx context.Context, c *container.Container, out io.Writer, o Options) error {
	tx, err := BuildTransaction(o, time.Now())
	if err != nil {
		return err
	}

	result := c.GetCategorizer().Enrich(ctx, tx)
	enriched := result.Transaction

	if o.Save {
		repo, err := c.Repository()
		if err != nil {
			return err
		}
		if enriched.ID, err = repo.InsertTransaction(ctx, enriched); err != nil {
			return fmt.Errorf("failed to save transaction: %w", err)
		}
	}

	data, err := store.Encode(enrichedView{
		ID:                enriched.ID,
		UserID:            enriched.UserID,
		CategoryID:        enriched.CategoryID,
		Type:              string(enriched.Type),
		Amount:            enriched.Amount.String(),
		Date:              dateutils.FormatISO(enriched.Date),
		Note:              enriched.Note,
		PredictedCategory: enriched.PredictedCategory,
		AnomalyZScore:     enriched.AnomalyZScore,
		Anomalous:         result.Anomalous,
	})
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

// RunBatch enriches every transaction of o.Input and writes them to o.Output.
func RunBatch(ctx context.Context, c *container.Container, out io.Writer, o Options) error {
	logger := c.GetLogger()

	txs, err := source.ReadTransactionsCSV(o.Input, logger)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", o.Input, err)
	}

	enriched, stats := c.GetCategorizer().EnrichAll(ctx, txs)
	stats.LogSummary(logger)

	if o.Save {
		repo, err := c.Repository()
		if err != nil {
			return err
		}
		for i := range enriched {
			if enriched[i].ID, err = repo.InsertTransaction(ctx, enriched[i]); err != nil {
				return fmt.Errorf("failed to save transaction %d: %w", i+1, err)
			}
		}
	}

	output := o.Output
	if output == "" {
		output = o.Input
	}
	if err := source.WriteTransactionsCSV(enriched, output, logger); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}

	_, err = fmt.Fprintf(out, "enriched %d transactions (%d predicted, %d scored, %d anomalous) into %s\n",
		stats.Total, stats.Predicted, stats.Scored, stats.Anomalous, output)
	return err
}
