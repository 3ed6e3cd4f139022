// Package models provides the data structures used throughout the application.
package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType distinguishes income from expenses.
type TransactionType string

// ParseTransactionType accepts the stored spelling in any case.
func ParseTransactionType(s string) (TransactionType, bool) {
	switch TransactionType(strings.ToUpper(strings.TrimSpace(s))) {
	case TransactionTypeIncome:
		return TransactionTypeIncome, true
	case TransactionTypeExpense:
		return TransactionTypeExpense, true
	}
	return "", false
}

// Transaction is a user's transaction as seen by the intelligence pipeline.
//
// PredictedCategory and AnomalyZScore are derived, advisory fields. They are
// written once when the transaction is created and never recomputed.
type Transaction struct {
	ID                string          `json:"id" yaml:"id"`
	UserID            string          `json:"user_id" yaml:"user_id"`
	CategoryID        string          `json:"category_id" yaml:"category_id"`
	Type              TransactionType `json:"type" yaml:"type"`
	Amount            decimal.Decimal `json:"amount" yaml:"amount"`
	Date              time.Time       `json:"date" yaml:"date"`
	Note              string          `json:"note" yaml:"note"`
	PredictedCategory *string         `json:"predicted_category" yaml:"predicted_category"`
	AnomalyZScore     *float64        `json:"anomaly_z_score" yaml:"anomaly_z_score"`
}

// IsExpense reports whether the transaction is an expense.
func (t Transaction) IsExpense() bool {
	return t.Type == TransactionTypeExpense
}

// HasCategory reports whether a category has been chosen for the transaction.
func (t Transaction) HasCategory() bool {
	return strings.TrimSpace(t.CategoryID) != ""
}
