package anomaly

import (
	"context"
	"math"

	"fjacquet/spend-intel/internal/currencyutils"
	"fjacquet/spend-intel/internal/logging"
	"fjacquet/spend-intel/internal/models"

	"github.com/shopspring/decimal"
)

// DefaultThreshold is the |z| above which an amount is anomalous.
const DefaultThreshold = 3.0

// BaselineProvider serves the cached baseline artifact. A nil artifact with a
// nil error means no baselines have been computed yet.
type BaselineProvider interface {
	Baselines(ctx context.Context) (*models.BaselineArtifact, error)
}

// Scorer computes z-scores against the cached baselines. It never returns
// errors: every failure is "unavailable".
type Scorer struct {
	baselines BaselineProvider
	threshold float64
	logger    logging.Logger
}

// NewScorer creates a Scorer. A non-positive threshold selects DefaultThreshold.
func NewScorer(provider BaselineProvider, threshold float64, logger logging.Logger) *Scorer {
	if threshold <= 0 || math.IsNaN(threshold) {
		threshold = DefaultThreshold
	}
	return &Scorer{baselines: provider, threshold: threshold, logger: logging.OrDefault(logger)}
}

// Threshold returns the configured anomaly threshold.
func (s *Scorer) Threshold() float64 {
	return s.threshold
}

// Score returns (amount - mean) / std for the (user, category) baseline.
// The second result is false when no usable baseline exists or the result is
// not a finite number.
func (s *Scorer) Score(ctx context.Context, userID, categoryID string, amount decimal.Decimal) (z float64, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Anomaly scoring failed",
				logging.F(logging.FieldUserID, userID),
				logging.F(logging.FieldCategoryID, categoryID),
				logging.F(logging.FieldError, r))
			z, ok = 0, false
		}
	}()

	artifact, err := s.baselines.Baselines(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Anomaly baselines unavailable, score unavailable")
		return 0, false
	}

	baseline, found := artifact.Lookup(userID, categoryID)
	if !found {
		return 0, false
	}
	if !(baseline.Std > 0) || math.IsInf(baseline.Std, 0) || math.IsNaN(baseline.Mean) {
		return 0, false
	}

	z = (amount.InexactFloat64() - baseline.Mean) / baseline.Std
	if math.IsNaN(z) || math.IsInf(z, 0) {
		return 0, false
	}
	return z, true
}

// ScoreString parses raw with currencyutils.ParseAmount and scores it. An unparseable
// amount is "unavailable".
func (s *Scorer) ScoreString(ctx context.Context, userID, categoryID, raw string) (float64, bool) {
	amount, err := currencyutils.ParseAmount(raw)
	if err != nil {
		s.logger.Debug("Unparseable amount, score unavailable",
			logging.F(logging.FieldUserID, userID),
			logging.F(logging.FieldCategoryID, categoryID))
		return 0, false
	}
	return s.Score(ctx, userID, categoryID, amount)
}

// IsAnomalous applies the configured threshold.
func (s *Scorer) IsAnomalous(z float64) bool {
	return IsAnomalous(z, s.threshold)
}

// IsAnomalous reports whether |z| strictly exceeds threshold. NaN is never
// anomalous.
func IsAnomalous(z, threshold float64) bool {
	return math.Abs(z) > threshold
}
