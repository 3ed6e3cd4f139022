package categorizer

import (
	"context"

	"fjacquet/spend-intel/internal/logging"
	"fjacquet/spend-intel/internal/models"
)

// EnrichResult is a transaction with its advisory fields resolved.
type EnrichResult struct {
	Transaction models.Transaction
	// Category is the category used for the anomaly lookup: the one the user
	// supplied, else the prediction, else empty.
	Category  string
	Predicted bool
	Scored    bool
	Anomalous bool
}

// EnrichStats counts the outcome of a batch enrichment.
type EnrichStats struct {
	Total     int
	Predicted int
	Promoted  int
	Scored    int
	Anomalous int
}

// LogSummary logs the batch counts.
func (s EnrichStats) LogSummary(logger logging.Logger) {
	logging.OrDefault(logger).Info("Enrichment summary",
		logging.F("total", s.Total),
		logging.F("predicted", s.Predicted),
		logging.F("promoted", s.Promoted),
		logging.F("scored", s.Scored),
		logging.F("anomalous", s.Anomalous))
}

// Categorizer fills in predicted_category and anomaly_z_score on a new
// transaction. The note is classified first; the user-supplied category, or
// the prediction when none was supplied, then keys the anomaly lookup.
type Categorizer struct {
	predictor  CategoryPredictor
	scorer     AnomalyScorer
	categories CategoryLister
	logger     logging.Logger
}

// NewCategorizer creates a Categorizer. scorer and categories may be nil:
// without a scorer no z-score is computed, and without a lister predictions
// are not restricted to the user's categories.
func NewCategorizer(predictor CategoryPredictor, scorer AnomalyScorer, categories CategoryLister, logger logging.Logger) *Categorizer {
	return &Categorizer{
		predictor:  predictor,
		scorer:     scorer,
		categories: categories,
		logger:     logging.OrDefault(logger),
	}
}

// Enrich derives the advisory fields of tx. A prediction or score that is
// already set is kept as is, and a category chosen by the user is never
// replaced.
func (c *Categorizer) Enrich(ctx context.Context, tx models.Transaction) EnrichResult {
	result := EnrichResult{Transaction: tx}
	out := &result.Transaction

	if out.PredictedCategory == nil && c.predictor != nil {
		if label, ok := c.predictor.PredictFor(ctx, out.Note, c.allowedFor(ctx, out.UserID)); ok {
			out.PredictedCategory = &label
			result.Predicted = true
		}
	}

	switch {
	case out.HasCategory():
		result.Category = out.CategoryID
	case out.PredictedCategory != nil:
		// No category supplied: the prediction becomes the category.
		out.CategoryID = *out.PredictedCategory
		result.Category = out.CategoryID
	}

	if out.IsExpense() && result.Category != "" && c.scorer != nil {
		if out.AnomalyZScore == nil {
			if z, ok := c.scorer.Score(ctx, out.UserID, result.Category, out.Amount); ok {
				out.AnomalyZScore = &z
				result.Scored = true
			}
		}
		if out.AnomalyZScore != nil {
			result.Anomalous = c.scorer.IsAnomalous(*out.AnomalyZScore)
		}
	}

	if result.Anomalous {
		c.logger.Info("Transaction flagged as anomalous",
			logging.F(logging.FieldUserID, out.UserID),
			logging.F(logging.FieldCategoryID, result.Category),
			logging.F(logging.FieldZScore, *out.AnomalyZScore))
	}
	return result
}

// EnrichAll enriches a batch of transactions in order.
func (c *Categorizer) EnrichAll(ctx context.Context, txs []models.Transaction) ([]models.Transaction, EnrichStats) {
	stats := EnrichStats{}
	out := make([]models.Transaction, len(txs))
	for i, tx := range txs {
		stats.Total++
		r := c.Enrich(ctx, tx)
		out[i] = r.Transaction
		if r.Predicted {
			stats.Predicted++
		}
		if !tx.HasCategory() && r.Transaction.HasCategory() {
			stats.Promoted++
		}
		if r.Scored {
			stats.Scored++
		}
		if r.Anomalous {
			stats.Anomalous++
		}
	}
	return out, stats
}

// allowedFor returns the user's categories, or nil (unrestricted) when they
// cannot be listed.
func (c *Categorizer) allowedFor(ctx context.Context, userID string) []string {
	if c.categories == nil {
		return nil
	}
	allowed, err := c.categories.CategoriesForUser(ctx, userID)
	if err != nil {
		c.logger.WithError(err).Warn("Could not list user categories, predicting unrestricted",
			logging.F(logging.FieldUserID, userID))
		return nil
	}
	if len(allowed) == 0 {
		return nil
	}
	return allowed
}
