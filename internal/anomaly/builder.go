// Package anomaly builds per-user, per-category spending baselines and
// scores new amounts against them.
package anomaly

import (
	"context"
	"sort"
	"time"

	"fjacquet/spend-intel/internal/artifacterror"
	"fjacquet/spend-intel/internal/dateutils"
	"fjacquet/spend-intel/internal/logging"
	"fjacquet/spend-intel/internal/models"
	"fjacquet/spend-intel/internal/source"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecomputeResult reports what a baseline recompute saw and produced.
type RecomputeResult = models.BaselineStats

// BuilderConfig holds the baseline window and sample thresholds.
type BuilderConfig struct {
	RecencyMonths int
	MinSamples    int
}

// DefaultBuilderConfig returns the standard baseline settings.
func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{RecencyMonths: 3, MinSamples: 5}
}

// BaselineWriter persists a freshly computed baseline artifact.
type BaselineWriter interface {
	SaveBaselines(ctx context.Context, artifact *models.BaselineArtifact) error
}

// Builder recomputes every baseline from the full transaction history.
type Builder struct {
	source   source.TransactionSource
	writer   BaselineWriter
	config   BuilderConfig
	logger   logging.Logger
	now      func() time.Time
	newRunID func() string
}

// NewBuilder creates a Builder that uses the wall clock for the run date.
func NewBuilder(src source.TransactionSource, writer BaselineWriter, config BuilderConfig, logger logging.Logger) *Builder {
	return &Builder{
		source:   src,
		writer:   writer,
		config:   config,
		logger:   logging.OrDefault(logger),
		now:      time.Now,
		newRunID: uuid.NewString,
	}
}

// WithClock replaces the clock that supplies the run date.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

type sample struct {
	amount decimal.Decimal
	date   time.Time
}

// Recompute builds a baseline for every (user, category) pair of EXPENSE
// transactions and replaces the stored artifact wholesale. For each pair the
// samples dated on or after the cutoff (run date minus RecencyMonths) are
// used when there are at least MinSamples of them, otherwise the pair's full
// history. Pairs with fewer than MinSamples selected samples or zero
// variance get no baseline.
func (b *Builder) Recompute(ctx context.Context) (RecomputeResult, error) {
	result := RecomputeResult{RunID: b.newRunID()}
	logger := b.logger.WithFields(
		logging.F(logging.FieldRunID, result.RunID),
		logging.F(logging.FieldJob, "recompute"))
	start := time.Now()

	txs, err := b.source.Transactions(ctx)
	if err != nil {
		return result, &artifacterror.SourceError{Source: b.source.Name(), Err: err}
	}

	cutoff := dateutils.SubtractMonths(dateutils.StartOfDay(b.now()), b.config.RecencyMonths)

	byPair := make(map[string]map[string][]sample)
	for _, tx := range txs {
		if !tx.IsExpense() || !tx.HasCategory() {
			continue
		}
		cats, ok := byPair[tx.UserID]
		if !ok {
			cats = make(map[string][]sample)
			byPair[tx.UserID] = cats
		}
		cats[tx.CategoryID] = append(cats[tx.CategoryID], sample{amount: tx.Amount, date: dateutils.StartOfDay(tx.Date)})
	}
	result.Users = len(byPair)

	artifact := models.NewBaselineArtifact()
	for _, userID := range sortedKeys(byPair) {
		cats := byPair[userID]
		for _, categoryID := range sortedKeys(cats) {
			result.Pairs++
			samples := cats[categoryID]

			var recent []decimal.Decimal
			all := make([]decimal.Decimal, 0, len(samples))
			for _, s := range samples {
				all = append(all, s.amount)
				if !s.date.Before(cutoff) {
					recent = append(recent, s.amount)
				}
			}

			selected, fromWindow := all, false
			if len(recent) >= b.config.MinSamples {
				selected, fromWindow = recent, true
			}

			if len(selected) < b.config.MinSamples {
				result.SkippedInsufficient++
				logger.Debug("Skipping pair with insufficient samples",
					logging.F(logging.FieldUserID, userID),
					logging.F(logging.FieldCategoryID, categoryID),
					logging.F(logging.FieldCount, len(selected)))
				continue
			}

			mean, std := meanStd(selected)
			if std == 0 {
				result.SkippedZeroVariance++
				logger.Debug("Skipping pair with zero variance",
					logging.F(logging.FieldUserID, userID),
					logging.F(logging.FieldCategoryID, categoryID))
				continue
			}

			artifact.Put(userID, categoryID, models.CategoryBaseline{Mean: mean, Std: std, Count: len(selected)})
			if fromWindow {
				result.RecentWindow++
			} else {
				result.FullHistory++
			}
		}
	}

	if err := b.writer.SaveBaselines(ctx, artifact); err != nil {
		return result, err
	}
	result.Written = artifact.Len()

	logger.Info("Anomaly baselines recomputed",
		logging.F(logging.FieldCount, result.Written),
		logging.F("cutoff", dateutils.FormatISO(cutoff)),
		logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))
	result.LogSummary(logger)
	return result, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
