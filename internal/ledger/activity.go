package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hisabpati/hisab/internal/model"
)

// DayActivity is one day of income and expense movement.
type DayActivity struct {
	Date    time.Time       `json:"date"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// DailyActivity returns income and expense posted on each of the days
// calendar days ending on asOf, oldest first. Income is credit minus debit
// on INCOME accounts, expense is debit minus credit on EXPENSE accounts;
// both are floored at zero.
func DailyActivity(accounts []model.Account, transactions []model.Transaction, asOf time.Time, days int) []DayActivity {
	if days <= 0 {
		return nil
	}
	types := make(map[string]model.AccountType, len(accounts))
	for _, a := range accounts {
		types[a.ID] = a.Type
	}

	asOf = model.TruncateDay(asOf)
	first := asOf.AddDate(0, 0, -(days - 1))
	out := make([]DayActivity, days)
	for i := range out {
		out[i] = DayActivity{Date: first.AddDate(0, 0, i), Income: decimal.Zero, Expense: decimal.Zero}
	}

	for _, tx := range transactions {
		day := model.TruncateDay(tx.Date)
		if day.Before(first) || day.After(asOf) {
			continue
		}
		i := int(day.Sub(first).Hours() / 24)
		for _, e := range tx.Entries {
			switch types[e.AccountID] {
			case model.AccountTypeIncome:
				out[i].Income = out[i].Income.Add(e.Credit).Sub(e.Debit)
			case model.AccountTypeExpense:
				out[i].Expense = out[i].Expense.Add(e.Debit).Sub(e.Credit)
			}
		}
	}

	for i := range out {
		out[i].Income = decimal.Max(out[i].Income, decimal.Zero)
		out[i].Expense = decimal.Max(out[i].Expense, decimal.Zero)
	}
	return out
}
