package categorizer

import (
	"context"

	"github.com/shopspring/decimal"
)

// CategoryPredictor suggests a category for a transaction note. allowed
// restricts the answer to a user's categories; nil admits every category.
type CategoryPredictor interface {
	PredictFor(ctx context.Context, note string, allowed []string) (string, bool)
}

// AnomalyScorer scores an amount against a (user, category) baseline.
type AnomalyScorer interface {
	Score(ctx context.Context, userID, categoryID string, amount decimal.Decimal) (float64, bool)
	IsAnomalous(z float64) bool
}
