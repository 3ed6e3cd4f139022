package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"fjacquet/spend-intel/internal/logging"
	"fjacquet/spend-intel/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "db", "finance.db"), logging.NewMockLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSQLiteRepository_TransactionsRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	predicted := "3"
	z := 1.5
	first := models.Transaction{
		UserID:            "u1",
		CategoryID:        "3",
		Type:              models.TransactionTypeExpense,
		Amount:            decimal.RequireFromString("12.34"),
		Date:              time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC),
		Note:              "Coffee",
		PredictedCategory: &predicted,
		AnomalyZScore:     &z,
	}
	second := models.Transaction{
		UserID: "u1",
		Type:   models.TransactionTypeIncome,
		Amount: decimal.RequireFromString("2500"),
		Date:   time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
	}

	id1, err := repo.InsertTransaction(ctx, first)
	require.NoError(t, err)
	id2, err := repo.InsertTransaction(ctx, second)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	txs, err := repo.Transactions(ctx)
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, id1, txs[0].ID)
	assert.Equal(t, "3", txs[0].CategoryID)
	assert.True(t, first.Amount.Equal(txs[0].Amount))
	assert.Equal(t, first.Date, txs[0].Date)
	assert.Equal(t, "Coffee", txs[0].Note)
	require.NotNil(t, txs[0].PredictedCategory)
	assert.Equal(t, "3", *txs[0].PredictedCategory)
	require.NotNil(t, txs[0].AnomalyZScore)
	assert.Equal(t, 1.5, *txs[0].AnomalyZScore)

	assert.False(t, txs[1].HasCategory())
	assert.Equal(t, models.TransactionTypeIncome, txs[1].Type)
	assert.Nil(t, txs[1].PredictedCategory)
	assert.Nil(t, txs[1].AnomalyZScore)
}

func TestSQLiteRepository_Categories(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	food, err := repo.AddCategory(ctx, "u1", "Food")
	require.NoError(t, err)
	travel, err := repo.AddCategory(ctx, "u1", "Travel")
	require.NoError(t, err)
	again, err := repo.AddCategory(ctx, "u1", "Food")
	require.NoError(t, err)
	assert.Equal(t, food, again)

	_, err = repo.AddCategory(ctx, "u2", "Food")
	require.NoError(t, err)

	ids, err := repo.CategoriesForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{food, travel}, ids)

	ids, err = repo.CategoriesForUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSQLiteRepository_ReplaceBaselines(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	first := models.NewBaselineArtifact()
	first.Put("u1", "3", models.CategoryBaseline{Mean: 20, Std: 2, Count: 5})
	first.Put("u1", "4", models.CategoryBaseline{Mean: 50, Std: 5, Count: 9})
	first.Put("u2", "3", models.CategoryBaseline{Mean: 8, Std: 1, Count: 6})

	n, err := repo.ReplaceBaselines(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := repo.ExportedBaselines(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	second := models.NewBaselineArtifact()
	second.Put("u9", "1", models.CategoryBaseline{Mean: 1, Std: 0.5, Count: 7})
	n, err = repo.ReplaceBaselines(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err = repo.ExportedBaselines(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())
	_, ok := got.Lookup("u1", "3")
	assert.False(t, ok, "previous rows must be replaced")
}

func TestSQLiteRepository_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finance.db")

	repo, err := NewSQLiteRepository(path, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	require.NoError(t, RunMigrations(path))

	repo, err = NewSQLiteRepository(path, nil)
	require.NoError(t, err)
	defer repo.Close()
	assert.Equal(t, "sqlite:"+path, repo.Name())
}
