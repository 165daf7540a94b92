package reports

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/samhithabhogadi/budget-manager/internal/core"
)

type (
	CategoryAmount struct {
		Category string          `json:"category"`
		Amount   decimal.Decimal `json:"amount"`
	}

	// MonthlyPoint is one bucket of the trend series, keyed by YYYY-MM.
	MonthlyPoint struct {
		Month   string          `json:"month"`
		Income  decimal.Decimal `json:"income"`
		Expense decimal.Decimal `json:"expense"`
	}

	Summary struct {
		TotalIncome       decimal.Decimal  `json:"total_income"`
		TotalExpense      decimal.Decimal  `json:"total_expense"`
		NetSavings        decimal.Decimal  `json:"net_savings"`
		ExpenseByCategory []CategoryAmount `json:"expense_by_category"`
		Monthly           []MonthlyPoint   `json:"monthly"`
	}
)

// Build derives the report from a snapshot of the user's transactions. It is
// a pure transform: no state, recomputed on every view. Empty input yields
// zero totals and empty series.
func Build(txs []core.Transaction) Summary {
	s := Summary{
		TotalIncome:       decimal.Zero,
		TotalExpense:      decimal.Zero,
		NetSavings:        decimal.Zero,
		ExpenseByCategory: []CategoryAmount{},
		Monthly:           []MonthlyPoint{},
	}

	byCategory := make(map[string]decimal.Decimal)
	byMonth := make(map[string]*MonthlyPoint)

	for _, tx := range txs {
		month, ok := byMonth[tx.Date.MonthKey()]
		if !ok {
			month = &MonthlyPoint{
				Month:   tx.Date.MonthKey(),
				Income:  decimal.Zero,
				Expense: decimal.Zero,
			}
			byMonth[month.Month] = month
		}

		switch tx.Type {
		case core.Income:
			s.TotalIncome = s.TotalIncome.Add(tx.Amount)
			month.Income = month.Income.Add(tx.Amount)
		case core.Expense:
			s.TotalExpense = s.TotalExpense.Add(tx.Amount)
			month.Expense = month.Expense.Add(tx.Amount)
			byCategory[tx.Category] = byCategory[tx.Category].Add(tx.Amount)
		}
	}

	s.NetSavings = s.TotalIncome.Sub(s.TotalExpense)

	for category, amount := range byCategory {
		s.ExpenseByCategory = append(s.ExpenseByCategory, CategoryAmount{
			Category: category,
			Amount:   amount,
		})
	}
	sort.Slice(s.ExpenseByCategory, func(i, j int) bool {
		return s.ExpenseByCategory[i].Category < s.ExpenseByCategory[j].Category
	})

	for _, point := range byMonth {
		s.Monthly = append(s.Monthly, *point)
	}
	sort.Slice(s.Monthly, func(i, j int) bool {
		return s.Monthly[i].Month < s.Monthly[j].Month
	})

	return s
}

// GoalProgress reports how far along a goal is, as a ratio in [0, 1].
func GoalProgress(g core.Goal) decimal.Decimal {
	if !g.Target.IsPositive() {
		return decimal.Zero
	}
	ratio := g.Saved.Div(g.Target)
	one := decimal.NewFromInt(1)
	if ratio.GreaterThan(one) {
		return one
	}
	return ratio
}
