package container

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"fjacquet/spend-intel/internal/config"
	"fjacquet/spend-intel/internal/logging"
	"fjacquet/spend-intel/internal/models"
	"fjacquet/spend-intel/internal/source"
	"fjacquet/spend-intel/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	dir := t.TempDir()
	cfg.Data.SQLitePath = filepath.Join(dir, "finance.db")
	cfg.Data.CSVPath = filepath.Join(dir, "transactions.csv")
	cfg.Artifacts.Directory = filepath.Join(dir, "models")
	return cfg
}

func TestNewContainer(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(cfg *config.Config)
		nilConfig   bool
		expectError string
		wantSource  string
	}{
		{name: "nil config", nilConfig: true, expectError: "configuration cannot be nil"},
		{name: "sqlite source", mutate: func(*config.Config) {}, wantSource: "sqlite:"},
		{name: "csv source", mutate: func(cfg *config.Config) { cfg.Data.Source = "csv" }, wantSource: "csv:"},
		{name: "unknown source", mutate: func(cfg *config.Config) { cfg.Data.Source = "kafka" }, expectError: "unknown data source"},
		{name: "unknown backend", mutate: func(cfg *config.Config) { cfg.Artifacts.Backend = "ftp" }, expectError: "unknown artifacts backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg *config.Config
			if !tt.nilConfig {
				cfg = testConfig(t)
				tt.mutate(cfg)
			}

			c, err := NewContainer(context.Background(), cfg)
			if tt.expectError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectError)
				return
			}
			require.NoError(t, err)
			defer c.Close()

			assert.Contains(t, c.GetSource().Name(), tt.wantSource)
			assert.NotNil(t, c.GetLogger())
			assert.Equal(t, cfg, c.GetConfig())
			assert.NotNil(t, c.GetArtifactStore())
			assert.NotNil(t, c.GetTrainer())
			assert.NotNil(t, c.GetPredictor())
			assert.NotNil(t, c.GetBuilder())
			assert.NotNil(t, c.GetScorer())
			assert.NotNil(t, c.GetCategorizer())
		})
	}
}

func TestContainer_RepositoryOpensOnDemand(t *testing.T) {
	cfg := testConfig(t)
	cfg.Data.Source = "csv"

	c := NewContainerWith(cfg, logging.NewMockLogger(), store.NewMemoryBackend(), source.NewMemorySource(), nil)
	defer c.Close()

	repo, err := c.Repository()
	require.NoError(t, err)
	again, err := c.Repository()
	require.NoError(t, err)
	assert.Same(t, repo, again)
}

func TestContainer_SchedulerJobsReloadArtifacts(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	var txs []models.Transaction
	for _, amount := range []int64{100, 120, 110, 90, 130} {
		txs = append(txs, models.Transaction{
			UserID:     "u1",
			CategoryID: "travel",
			Type:       models.TransactionTypeExpense,
			Amount:     decimal.NewFromInt(amount),
			Date:       time.Now().UTC(),
			Note:       "taxi ride",
		})
	}

	c := NewContainerWith(cfg, logging.NewMockLogger(), store.NewMemoryBackend(), source.NewMemorySource(txs...), nil)
	defer c.Close()

	// Prime the cache with "no baselines".
	_, ok := c.GetScorer().Score(ctx, "u1", "travel", decimal.NewFromInt(400))
	require.False(t, ok)

	s, err := c.NewScheduler()
	require.NoError(t, err)
	require.Len(t, s.Entries(), 2)

	require.NoError(t, s.RunNow(ctx, JobRecompute))
	z, ok := c.GetScorer().Score(ctx, "u1", "travel", decimal.NewFromInt(400))
	require.True(t, ok)
	assert.True(t, c.GetScorer().IsAnomalous(z))

	// Five rows are below the training minimum: a skipped run is not an error.
	require.NoError(t, s.RunNow(ctx, JobTrain))
}

func TestContainer_SchedulerSkipsEmptySpecs(t *testing.T) {
	cfg := testConfig(t)
	cfg.Schedule.Train = ""

	c := NewContainerWith(cfg, nil, store.NewMemoryBackend(), source.NewMemorySource(), nil)
	s, err := c.NewScheduler()
	require.NoError(t, err)

	entries := s.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, JobRecompute, entries[0].Name)
}
