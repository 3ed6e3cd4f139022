package anomaly

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"fjacquet/spend-intel/internal/artifacterror"
	"fjacquet/spend-intel/internal/logging"
	"fjacquet/spend-intel/internal/models"
	"fjacquet/spend-intel/internal/source"
	"fjacquet/spend-intel/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baselinesName = "anomaly_stats.yaml"

var runDate = time.Date(2024, time.June, 15, 14, 30, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func spend(user, category string, amount float64, date time.Time) models.Transaction {
	return models.Transaction{
		UserID:     user,
		CategoryID: category,
		Type:       models.TransactionTypeExpense,
		Amount:     decimal.NewFromFloat(amount),
		Date:       date,
	}
}

func series(user, category string, date time.Time, amounts ...float64) []models.Transaction {
	txs := make([]models.Transaction, 0, len(amounts))
	for _, a := range amounts {
		txs = append(txs, spend(user, category, a, date))
	}
	return txs
}

func newTestStore() (*store.ArtifactStore, *store.MemoryBackend) {
	backend := store.NewMemoryBackend()
	return store.NewArtifactStore(backend, "expense_nb.yaml", baselinesName, logging.NewMockLogger()), backend
}

func recompute(t *testing.T, s *store.ArtifactStore, txs []models.Transaction) RecomputeResult {
	t.Helper()
	b := NewBuilder(source.NewMemorySource(txs...), s, DefaultBuilderConfig(), logging.NewMockLogger()).
		WithClock(func() time.Time { return runDate })
	b.newRunID = func() string { return "run-1" }
	result, err := b.Recompute(context.Background())
	require.NoError(t, err)
	return result
}

func TestMeanStd(t *testing.T) {
	amounts := []decimal.Decimal{
		decimal.NewFromInt(100), decimal.NewFromInt(120), decimal.NewFromInt(110),
		decimal.NewFromInt(90), decimal.NewFromInt(130),
	}
	mean, std := meanStd(amounts)
	assert.Equal(t, 110.0, mean)
	assert.InDelta(t, math.Sqrt(200), std, 1e-12)

	mean, std = meanStd(nil)
	assert.True(t, math.IsNaN(mean))
	assert.True(t, math.IsNaN(std))
}

func TestIsAnomalous(t *testing.T) {
	tests := []struct {
		z    float64
		want bool
	}{
		{0, false},
		{2.99, false},
		{3.0, false},
		{-3.0, false},
		{3.0001, true},
		{-3.5, true},
		{math.NaN(), false},
		{math.Inf(1), true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsAnomalous(tt.z, DefaultThreshold), "z=%v", tt.z)
	}
}

func TestBuilder_ZeroVarianceIsUnavailable(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	txs := series("u1", "food", day(2024, time.June, 1), 100, 100, 100, 100, 100, 100)
	result := recompute(t, s, txs)
	assert.Equal(t, 1, result.Pairs)
	assert.Equal(t, 0, result.Written)
	assert.Equal(t, 1, result.SkippedZeroVariance)

	scorer := NewScorer(s, DefaultThreshold, nil)
	z, ok := scorer.Score(ctx, "u1", "food", decimal.NewFromInt(500))
	assert.False(t, ok)
	assert.Zero(t, z)
	assert.False(t, ok && scorer.IsAnomalous(z))
}

func TestBuilder_RecentBaselineFlagsOutlier(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	txs := series("u1", "travel", day(2024, time.May, 20), 100, 120, 110, 90, 130)
	result := recompute(t, s, txs)
	assert.Equal(t, 1, result.Written)
	assert.Equal(t, 1, result.RecentWindow)

	artifact, err := s.LoadBaselines(ctx)
	require.NoError(t, err)
	b, ok := artifact.Lookup("u1", "travel")
	require.True(t, ok)
	assert.Equal(t, 5, b.Count)
	assert.Equal(t, 110.0, b.Mean)
	assert.InDelta(t, math.Sqrt(200), b.Std, 1e-12)

	scorer := NewScorer(s, DefaultThreshold, nil)
	z, ok := scorer.Score(ctx, "u1", "travel", decimal.NewFromInt(400))
	require.True(t, ok)
	assert.InDelta(t, 290/math.Sqrt(200), z, 1e-9)
	assert.True(t, scorer.IsAnomalous(z))

	z, ok = scorer.Score(ctx, "u1", "travel", decimal.NewFromInt(110))
	require.True(t, ok)
	assert.Zero(t, z)
	assert.False(t, scorer.IsAnomalous(z))
}

func TestBuilder_WindowSelection(t *testing.T) {
	ctx := context.Background()
	// Cutoff for runDate (2024-06-15) is 2024-03-15, inclusive.
	old := day(2023, time.December, 1)
	cutoff := day(2024, time.March, 15)
	justBefore := day(2024, time.March, 14)

	tests := []struct {
		name        string
		txs         []models.Transaction
		wantWritten int
		wantRecent  int
		wantFull    int
		wantCount   int
		wantMean    float64
		wantSkipped int
	}{
		{
			name: "enough recent samples ignores old history",
			txs: append(series("u1", "c1", old, 1000, 1000, 1000),
				series("u1", "c1", cutoff, 10, 20, 30, 40, 50)...),
			wantWritten: 1, wantRecent: 1, wantCount: 5, wantMean: 30,
		},
		{
			name: "too few recent samples falls back to full history",
			txs: append(series("u1", "c1", justBefore, 10, 20, 30),
				series("u1", "c1", cutoff, 40, 50)...),
			wantWritten: 1, wantFull: 1, wantCount: 5, wantMean: 30,
		},
		{
			name:        "fewer than five samples in total is skipped",
			txs:         series("u1", "c1", old, 10, 20, 30, 40),
			wantSkipped: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestStore()
			result := recompute(t, s, tt.txs)
			assert.Equal(t, tt.wantWritten, result.Written)
			assert.Equal(t, tt.wantRecent, result.RecentWindow)
			assert.Equal(t, tt.wantFull, result.FullHistory)
			assert.Equal(t, tt.wantSkipped, result.SkippedInsufficient)

			if tt.wantWritten == 0 {
				return
			}
			artifact, err := s.LoadBaselines(ctx)
			require.NoError(t, err)
			b, ok := artifact.Lookup("u1", "c1")
			require.True(t, ok)
			assert.Equal(t, tt.wantCount, b.Count)
			assert.InDelta(t, tt.wantMean, b.Mean, 1e-9)
		})
	}
}

func TestBuilder_IgnoresIncomeAndUncategorized(t *testing.T) {
	s, _ := newTestStore()

	txs := series("u1", "c1", day(2024, time.June, 1), 10, 20, 30, 40, 50)
	for i := range txs[:3] {
		txs[i].Type = models.TransactionTypeIncome
	}
	txs = append(txs, series("u2", "", day(2024, time.June, 1), 1, 2, 3, 4, 5)...)

	result := recompute(t, s, txs)
	assert.Equal(t, 1, result.Users)
	assert.Equal(t, 1, result.Pairs)
	assert.Equal(t, 1, result.SkippedInsufficient)
	assert.Equal(t, 0, result.Written)
}

func TestBuilder_ReplacesArtifactWholesale(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	recompute(t, s, series("u1", "c1", day(2024, time.June, 1), 1, 2, 3, 4, 5))
	recompute(t, s, series("u2", "c2", day(2024, time.June, 1), 1, 2, 3, 4, 5))

	artifact, err := s.LoadBaselines(ctx)
	require.NoError(t, err)
	_, ok := artifact.Lookup("u1", "c1")
	assert.False(t, ok)
	_, ok = artifact.Lookup("u2", "c2")
	assert.True(t, ok)
}

func TestBuilder_Deterministic(t *testing.T) {
	txs := append(series("u1", "c1", day(2024, time.June, 1), 12.34, 56.78, 9.1, 23.45, 67.89, 0.01),
		series("u2", "c9", day(2024, time.January, 1), 3.3, 1.1, 2.2, 5.5, 4.4)...)

	s1, b1 := newTestStore()
	s2, b2 := newTestStore()
	recompute(t, s1, txs)

	reversed := make([]models.Transaction, len(txs))
	for i, tx := range txs {
		reversed[len(txs)-1-i] = tx
	}
	recompute(t, s2, reversed)

	first, ok := b1.Get(baselinesName)
	require.True(t, ok)
	second, ok := b2.Get(baselinesName)
	require.True(t, ok)
	assert.Equal(t, first, second)

	recompute(t, s1, txs)
	again, _ := b1.Get(baselinesName)
	assert.Equal(t, first, again)
}

func TestBuilder_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("source failure", func(t *testing.T) {
		s, backend := newTestStore()
		backend.Put(baselinesName, []byte("previous"))
		b := NewBuilder(&source.MemorySource{Err: errors.New("timeout")}, s, DefaultBuilderConfig(), nil)
		_, err := b.Recompute(ctx)

		var sourceErr *artifacterror.SourceError
		require.True(t, errors.As(err, &sourceErr))
		data, _ := backend.Get(baselinesName)
		assert.Equal(t, "previous", string(data))
	})

	t.Run("write failure", func(t *testing.T) {
		s, backend := newTestStore()
		backend.WriteErr = errors.New("quota exceeded")
		b := NewBuilder(source.NewMemorySource(), s, DefaultBuilderConfig(), nil)
		_, err := b.Recompute(ctx)

		var writeErr *artifacterror.WriteError
		require.True(t, errors.As(err, &writeErr))
	})
}

type stubProvider struct {
	artifact *models.BaselineArtifact
	err      error
	panics   bool
}

func (p stubProvider) Baselines(context.Context) (*models.BaselineArtifact, error) {
	if p.panics {
		panic("boom")
	}
	return p.artifact, p.err
}

func TestScorer_Unavailable(t *testing.T) {
	ctx := context.Background()
	artifact := models.NewBaselineArtifact()
	artifact.Put("u1", "zero", models.CategoryBaseline{Mean: 10, Std: 0, Count: 5})
	artifact.Put("u1", "nan", models.CategoryBaseline{Mean: math.NaN(), Std: 1, Count: 5})
	artifact.Put("u1", "tiny", models.CategoryBaseline{Mean: 0, Std: math.SmallestNonzeroFloat64, Count: 5})

	tests := []struct {
		name     string
		provider stubProvider
		category string
	}{
		{"no artifact", stubProvider{}, "c1"},
		{"unknown user", stubProvider{artifact: artifact}, "c1"},
		{"zero std", stubProvider{artifact: artifact}, "zero"},
		{"nan mean", stubProvider{artifact: artifact}, "nan"},
		{"overflow", stubProvider{artifact: artifact}, "tiny"},
		{"load error", stubProvider{err: errors.New("corrupt")}, "c1"},
		{"panic", stubProvider{panics: true}, "c1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer := NewScorer(tt.provider, DefaultThreshold, logging.NewMockLogger())
			z, ok := scorer.Score(ctx, "u1", tt.category, decimal.NewFromInt(1_000_000))
			assert.False(t, ok)
			assert.Zero(t, z)
		})
	}
}

func TestScorer_CorruptArtifactLogsError(t *testing.T) {
	s, backend := newTestStore()
	backend.Put(baselinesName, []byte("schema_version: 9\nkind: anomaly_baselines\nusers: {}\n"))
	logger := logging.NewMockLogger()

	_, ok := NewScorer(s, DefaultThreshold, logger).Score(context.Background(), "u1", "c1", decimal.NewFromInt(1))
	assert.False(t, ok)
	assert.True(t, logger.HasEntry("ERROR", "Anomaly baselines unavailable, score unavailable"))
}

func TestScorer_ScoreString(t *testing.T) {
	ctx := context.Background()
	artifact := models.NewBaselineArtifact()
	artifact.Put("u1", "c1", models.CategoryBaseline{Mean: 100, Std: 10, Count: 5})
	scorer := NewScorer(stubProvider{artifact: artifact}, 0, nil)
	assert.Equal(t, DefaultThreshold, scorer.Threshold())

	z, ok := scorer.ScoreString(ctx, "u1", "c1", " 135.50 ")
	require.True(t, ok)
	assert.InDelta(t, 3.55, z, 1e-12)
	assert.True(t, scorer.IsAnomalous(z))

	_, ok = scorer.ScoreString(ctx, "u1", "c1", "twelve")
	assert.False(t, ok)

	z, ok = scorer.ScoreString(ctx, "u1", "c1", "70")
	require.True(t, ok)
	assert.Equal(t, -3.0, z)
	assert.False(t, scorer.IsAnomalous(z))
}
