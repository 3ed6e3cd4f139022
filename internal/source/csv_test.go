package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fjacquet/spend-intel/internal/logging"
	"fjacquet/spend-intel/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transactions.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestCSVSource_Transactions(t *testing.T) {
	path := writeCSV(t, `id,user_id,category_id,type,amount,date,note
1,42,7,EXPENSE,12.50,2024-03-01,Coffee at Starbucks
2,42,,expense,8,2024-03-02,
3,42,9,INCOME,2500.00,2024-03-25,"Salary, March"
`)

	src := NewCSVSource(path, logging.NewMockLogger())
	txs, err := src.Transactions(context.Background())
	require.NoError(t, err)
	require.Len(t, txs, 3)

	assert.Equal(t, "1", txs[0].ID)
	assert.Equal(t, "42", txs[0].UserID)
	assert.Equal(t, "7", txs[0].CategoryID)
	assert.True(t, txs[0].IsExpense())
	assert.True(t, decimal.RequireFromString("12.5").Equal(txs[0].Amount))
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), txs[0].Date)
	assert.Equal(t, "Coffee at Starbucks", txs[0].Note)
	assert.Nil(t, txs[0].PredictedCategory)
	assert.Nil(t, txs[0].AnomalyZScore)

	assert.False(t, txs[1].HasCategory())
	assert.True(t, txs[1].IsExpense())

	assert.Equal(t, models.TransactionTypeIncome, txs[2].Type)
	assert.Equal(t, "Salary, March", txs[2].Note)
	assert.Contains(t, src.Name(), path)
}

func TestCSVSource_InvalidRows(t *testing.T) {
	tests := []struct {
		name    string
		row     string
		wantErr string
	}{
		{"bad type", "1,42,7,TRANSFER,1,2024-03-01,x", "invalid transaction type"},
		{"bad amount", "1,42,7,EXPENSE,abc,2024-03-01,x", "invalid amount"},
		{"bad date", "1,42,7,EXPENSE,1,yesterday,x", "unable to parse date"},
		{"missing user", "1,,7,EXPENSE,1,2024-03-01,x", "missing user_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCSV(t, "id,user_id,category_id,type,amount,date,note\n"+tt.row+"\n")
			_, err := NewCSVSource(path, nil).Transactions(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), "line 2")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWriteTransactionsCSV_KeepsEnrichment(t *testing.T) {
	predicted := "7"
	z := -1.25
	txs := []models.Transaction{
		{
			ID:                "1",
			UserID:            "42",
			CategoryID:        "7",
			Type:              models.TransactionTypeExpense,
			Amount:            decimal.RequireFromString("12.5"),
			Date:              time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
			Note:              "coffee",
			PredictedCategory: &predicted,
			AnomalyZScore:     &z,
		},
		{
			ID:     "2",
			UserID: "42",
			Type:   models.TransactionTypeIncome,
			Amount: decimal.RequireFromString("100"),
			Date:   time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC),
		},
	}

	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, WriteTransactionsCSV(txs, path, nil))

	got, err := ReadTransactionsCSV(path, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.NotNil(t, got[0].PredictedCategory)
	assert.Equal(t, "7", *got[0].PredictedCategory)
	require.NotNil(t, got[0].AnomalyZScore)
	assert.Equal(t, -1.25, *got[0].AnomalyZScore)
	assert.Nil(t, got[1].PredictedCategory)
	assert.Nil(t, got[1].AnomalyZScore)
}

func TestMemorySource(t *testing.T) {
	src := NewMemorySource(models.Transaction{ID: "1"}, models.Transaction{ID: "2"})
	txs, err := src.Transactions(context.Background())
	require.NoError(t, err)
	assert.Len(t, txs, 2)

	txs[0].ID = "changed"
	again, _ := src.Transactions(context.Background())
	assert.Equal(t, "1", again[0].ID)

	src.Err = errors.New("boom")
	_, err = src.Transactions(context.Background())
	assert.EqualError(t, err, "boom")
}
