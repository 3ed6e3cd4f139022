package source

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"fjacquet/spend-intel/internal/common"
	"fjacquet/spend-intel/internal/currencyutils"
	"fjacquet/spend-intel/internal/dateutils"
	"fjacquet/spend-intel/internal/logging"
	"fjacquet/spend-intel/internal/models"
)

// TransactionRow is the CSV layout of one transaction. predicted_category and
// anomaly_z_score are optional columns filled in by enrichment.
type TransactionRow struct {
	ID                string `csv:"id"`
	UserID            string `csv:"user_id"`
	CategoryID        string `csv:"category_id"`
	Type              string `csv:"type"`
	Amount            string `csv:"amount"`
	Date              string `csv:"date"`
	Note              string `csv:"note"`
	PredictedCategory string `csv:"predicted_category,omitempty"`
	AnomalyZScore     string `csv:"anomaly_z_score,omitempty"`
}

// ToTransaction converts a CSV row into a Transaction.
func (r TransactionRow) ToTransaction() (models.Transaction, error) {
	txType, ok := models.ParseTransactionType(r.Type)
	if !ok {
		return models.Transaction{}, fmt.Errorf("invalid transaction type %q", r.Type)
	}
	amount, err := currencyutils.ParseAmount(r.Amount)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("invalid amount %q: %w", r.Amount, err)
	}
	date, err := dateutils.ParseDate(r.Date)
	if err != nil {
		return models.Transaction{}, err
	}
	userID := strings.TrimSpace(r.UserID)
	if userID == "" {
		return models.Transaction{}, fmt.Errorf("missing user_id")
	}

	tx := models.Transaction{
		ID:         strings.TrimSpace(r.ID),
		UserID:     userID,
		CategoryID: strings.TrimSpace(r.CategoryID),
		Type:       txType,
		Amount:     amount,
		Date:       date,
		Note:       r.Note,
	}
	if p := strings.TrimSpace(r.PredictedCategory); p != "" {
		tx.PredictedCategory = &p
	}
	if z := strings.TrimSpace(r.AnomalyZScore); z != "" {
		score, err := strconv.ParseFloat(z, 64)
		if err != nil {
			return models.Transaction{}, fmt.Errorf("invalid anomaly_z_score %q: %w", z, err)
		}
		tx.AnomalyZScore = &score
	}
	return tx, nil
}

// RowFromTransaction converts a Transaction into its CSV layout.
func RowFromTransaction(tx models.Transaction) TransactionRow {
	row := TransactionRow{
		ID:         tx.ID,
		UserID:     tx.UserID,
		CategoryID: tx.CategoryID,
		Type:       string(tx.Type),
		Amount:     tx.Amount.String(),
		Date:       dateutils.FormatISO(tx.Date),
		Note:       tx.Note,
	}
	if tx.PredictedCategory != nil {
		row.PredictedCategory = *tx.PredictedCategory
	}
	if tx.AnomalyZScore != nil {
		row.AnomalyZScore = strconv.FormatFloat(*tx.AnomalyZScore, 'f', -1, 64)
	}
	return row
}

// CSVSource reads transactions from a CSV file with a header row.
type CSVSource struct {
	path   string
	logger logging.Logger
}

// NewCSVSource creates a source reading path.
func NewCSVSource(path string, logger logging.Logger) *CSVSource {
	return &CSVSource{path: path, logger: logging.OrDefault(logger)}
}

// Name identifies the source in logs.
func (s *CSVSource) Name() string {
	return "csv:" + s.path
}

// Transactions reads and converts every row. A malformed row fails the whole
// read: a batch run must see the complete history or none of it.
func (s *CSVSource) Transactions(ctx context.Context) ([]models.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := common.ReadCSVFile[TransactionRow](s.path, s.logger)
	if err != nil {
		return nil, err
	}

	txs := make([]models.Transaction, 0, len(rows))
	for i, row := range rows {
		tx, err := row.ToTransaction()
		if err != nil {
			// Header is line 1.
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// ReadTransactionsCSV loads a transaction CSV file.
func ReadTransactionsCSV(path string, logger logging.Logger) ([]models.Transaction, error) {
	return NewCSVSource(path, logger).Transactions(context.Background())
}

// WriteTransactionsCSV writes transactions, including any enrichment fields.
func WriteTransactionsCSV(txs []models.Transaction, path string, logger logging.Logger) error {
	rows := make([]TransactionRow, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, RowFromTransaction(tx))
	}
	return common.WriteCSVFile(rows, path, logger)
}
