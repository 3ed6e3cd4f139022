// Package storage is the SQLite-backed transaction store. It serves the
// historical transaction set to the batch jobs, persists enriched
// transactions, and receives the exported anomaly baselines.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"

	"fjacquet/spend-intel/internal/dateutils"
	"fjacquet/spend-intel/internal/fileutils"
	"fjacquet/spend-intel/internal/logging"
	"fjacquet/spend-intel/internal/models"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// SQLiteRepository reads and writes transactions, categories and exported
// baselines in a SQLite database.
type SQLiteRepository struct {
	db     *sql.DB
	path   string
	logger logging.Logger
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// applies pending migrations.
func NewSQLiteRepository(dbPath string, logger logging.Logger) (*SQLiteRepository, error) {
	if err := fileutils.EnsureDirectoryExists(filepath.Dir(dbPath)); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:     db,
		path:   dbPath,
		logger: logging.OrDefault(logger),
	}, nil
}

// Close closes the database.
func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Name identifies the repository as a transaction source in logs.
func (r *SQLiteRepository) Name() string {
	return "sqlite:" + r.path
}

// Transactions returns every stored transaction ordered by id.
func (r *SQLiteRepository) Transactions(ctx context.Context) ([]models.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, category_id, type, amount, date, note, predicted_category, anomaly_z_score
		FROM transactions
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var (
			id         int64
			userID     string
			categoryID sql.NullString
			txType     string
			amount     string
			date       string
			note       string
			predicted  sql.NullString
			zScore     sql.NullFloat64
		)
		if err := rows.Scan(&id, &userID, &categoryID, &txType, &amount, &date, &note, &predicted, &zScore); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}

		tx, err := buildTransaction(id, userID, categoryID, txType, amount, date, note, predicted, zScore)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", id, err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	r.logger.Debug("Loaded transactions from SQLite",
		logging.F(logging.FieldSource, r.Name()),
		logging.F(logging.FieldCount, len(txs)))
	return txs, nil
}

func buildTransaction(id int64, userID string, categoryID sql.NullString, txType, amount, date, note string,
	predicted sql.NullString, zScore sql.NullFloat64) (models.Transaction, error) {
	parsedType, ok := models.ParseTransactionType(txType)
	if !ok {
		return models.Transaction{}, fmt.Errorf("invalid transaction type %q", txType)
	}
	parsedAmount, err := decimal.NewFromString(amount)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	parsedDate, err := dateutils.ParseDate(date)
	if err != nil {
		return models.Transaction{}, err
	}

	tx := models.Transaction{
		ID:         strconv.FormatInt(id, 10),
		UserID:     userID,
		CategoryID: categoryID.String,
		Type:       parsedType,
		Amount:     parsedAmount,
		Date:       parsedDate,
		Note:       note,
	}
	if predicted.Valid {
		p := predicted.String
		tx.PredictedCategory = &p
	}
	if zScore.Valid {
		z := zScore.Float64
		tx.AnomalyZScore = &z
	}
	return tx, nil
}

// InsertTransaction stores a transaction, including any enrichment fields,
// and returns its new id.
func (r *SQLiteRepository) InsertTransaction(ctx context.Context, tx models.Transaction) (string, error) {
	var categoryID, predicted sql.NullString
	var zScore sql.NullFloat64
	if tx.HasCategory() {
		categoryID = sql.NullString{String: tx.CategoryID, Valid: true}
	}
	if tx.PredictedCategory != nil {
		predicted = sql.NullString{String: *tx.PredictedCategory, Valid: true}
	}
	if tx.AnomalyZScore != nil {
		zScore = sql.NullFloat64{Float64: *tx.AnomalyZScore, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (user_id, category_id, type, amount, date, note, predicted_category, anomaly_z_score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.UserID, categoryID, string(tx.Type), tx.Amount.String(), dateutils.FormatISO(tx.Date), tx.Note, predicted, zScore)
	if err != nil {
		return "", fmt.Errorf("insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("read transaction id: %w", err)
	}
	return strconv.FormatInt(id, 10), nil
}

// AddCategory creates a category for a user and returns its id. Adding an
// existing name returns the existing id.
func (r *SQLiteRepository) AddCategory(ctx context.Context, userID, name string) (string, error) {
	if _, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO categories (user_id, name) VALUES (?, ?)`, userID, name); err != nil {
		return "", fmt.Errorf("insert category: %w", err)
	}

	var id int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT id FROM categories WHERE user_id = ? AND name = ?`, userID, name).Scan(&id); err != nil {
		return "", fmt.Errorf("read category id: %w", err)
	}
	return strconv.FormatInt(id, 10), nil
}

// CategoriesForUser returns the ids of the categories a user owns.
func (r *SQLiteRepository) CategoriesForUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM categories WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		ids = append(ids, strconv.FormatInt(id, 10))
	}
	return ids, rows.Err()
}

// ReplaceBaselines replaces the contents of the anomaly_stats table with the
// baselines of artifact in a single transaction and returns the row count.
func (r *SQLiteRepository) ReplaceBaselines(ctx context.Context, artifact *models.BaselineArtifact) (int, error) {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = dbTx.Rollback()
	}()

	if _, err := dbTx.ExecContext(ctx, `DELETE FROM anomaly_stats`); err != nil {
		return 0, fmt.Errorf("clear anomaly_stats: %w", err)
	}

	stmt, err := dbTx.PrepareContext(ctx, `
		INSERT INTO anomaly_stats (user_id, category_id, mean, std_dev, sample_count)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	if artifact != nil {
		userIDs := make([]string, 0, len(artifact.Users))
		for userID := range artifact.Users {
			userIDs = append(userIDs, userID)
		}
		sort.Strings(userIDs)

		for _, userID := range userIDs {
			cats := artifact.Users[userID]
			categoryIDs := make([]string, 0, len(cats))
			for categoryID := range cats {
				categoryIDs = append(categoryIDs, categoryID)
			}
			sort.Strings(categoryIDs)

			for _, categoryID := range categoryIDs {
				b := cats[categoryID]
				if _, err := stmt.ExecContext(ctx, userID, categoryID, b.Mean, b.Std, b.Count); err != nil {
					return 0, fmt.Errorf("insert baseline %s/%s: %w", userID, categoryID, err)
				}
				inserted++
			}
		}
	}

	if err := dbTx.Commit(); err != nil {
		return 0, fmt.Errorf("commit baselines: %w", err)
	}

	r.logger.Info("Exported anomaly baselines",
		logging.F(logging.FieldSource, r.Name()),
		logging.F(logging.FieldCount, inserted))
	return inserted, nil
}

// ExportedBaselines reads the anomaly_stats table back into an artifact.
func (r *SQLiteRepository) ExportedBaselines(ctx context.Context) (*models.BaselineArtifact, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, category_id, mean, std_dev, sample_count FROM anomaly_stats`)
	if err != nil {
		return nil, fmt.Errorf("query anomaly_stats: %w", err)
	}
	defer rows.Close()

	artifact := models.NewBaselineArtifact()
	for rows.Next() {
		var userID, categoryID string
		var b models.CategoryBaseline
		if err := rows.Scan(&userID, &categoryID, &b.Mean, &b.Std, &b.Count); err != nil {
			return nil, fmt.Errorf("scan anomaly_stats: %w", err)
		}
		artifact.Put(userID, categoryID, b)
	}
	return artifact, rows.Err()
}
