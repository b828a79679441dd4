package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type CategorySummary struct {
	Category string
	Total    decimal.Decimal
}

// MonthlyStats is the aggregate a monthly report is built from.
type MonthlyStats struct {
	Month         time.Time
	TotalIncome   decimal.Decimal
	TotalExpenses decimal.Decimal
	ByCategory    map[string]decimal.Decimal // expense totals per category
}

// AggregateByCategory sums amounts of the given type per category,
// largest total first.
func AggregateByCategory(transactions []Transaction, transactionType string) []CategorySummary {
	totals := make(map[string]decimal.Decimal)
	for _, t := range transactions {
		if t.Type != transactionType {
			continue
		}
		totals[t.Category] = totals[t.Category].Add(t.Amount)
	}

	summaries := make([]CategorySummary, 0, len(totals))
	for category, total := range totals {
		summaries = append(summaries, CategorySummary{Category: category, Total: total})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Total.Equal(summaries[j].Total) {
			return summaries[i].Category < summaries[j].Category
		}
		return summaries[i].Total.GreaterThan(summaries[j].Total)
	})
	return summaries
}

// MonthlyStatsFor folds a transaction set into income/expense totals and
// per-category expense totals for the given month.
func MonthlyStatsFor(transactions []Transaction, month time.Time) MonthlyStats {
	stats := MonthlyStats{
		Month:      month,
		ByCategory: make(map[string]decimal.Decimal),
	}
	for _, t := range transactions {
		switch t.Type {
		case TransactionTypeIncome:
			stats.TotalIncome = stats.TotalIncome.Add(t.Amount)
		case TransactionTypeExpense:
			stats.TotalExpenses = stats.TotalExpenses.Add(t.Amount)
			stats.ByCategory[t.Category] = stats.ByCategory[t.Category].Add(t.Amount)
		}
	}
	return stats
}
