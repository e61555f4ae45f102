// Package ledger computes account balances from posted transactions.
//
// Balances are stored debit-positive: an account's ledger balance is
// opening + debits - credits regardless of its type. Sign conventions for
// presentation live in DisplayBalance.
package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hisabpati/hisab/internal/model"
)

// Result is the output of ComputeBalances.
type Result struct {
	Accounts []model.AccountWithTotals
	Warnings []model.IntegrityWarning
}

// Get returns the computed account with the given id.
func (r Result) Get(id string) (model.AccountWithTotals, bool) {
	for _, a := range r.Accounts {
		if a.ID == id {
			return a, true
		}
	}
	return model.AccountWithTotals{}, false
}

// ComputeBalances returns every account with its opening balance, period
// debit/credit and closing balance for the period start..end (inclusive).
// Entries dated before start form the opening balance; entries after end
// are ignored. A zero end leaves the period open-ended.
//
// GL balances roll up into their GROUP, GROUP balances into their MAIN. The
// retained earnings group then absorbs the period's net income and the
// equity MAIN is re-summed. Inputs are not modified and the result depends
// only on the inputs.
func ComputeBalances(accounts []model.Account, transactions []model.Transaction, start, end time.Time) Result {
	start = model.TruncateDay(start)
	if !end.IsZero() {
		end = model.TruncateDay(end)
	}

	out := make([]model.AccountWithTotals, len(accounts))
	idx := make(map[string]int, len(accounts))
	for i, a := range accounts {
		a.OpeningBalance = decimal.Zero
		a.Balance = decimal.Zero
		out[i] = model.AccountWithTotals{Account: a, PeriodDebit: decimal.Zero, PeriodCredit: decimal.Zero}
		idx[a.ID] = i
	}

	var res Result
	warn := func(kind model.WarningKind, format string, args ...any) {
		res.Warnings = append(res.Warnings, model.IntegrityWarning{Kind: kind, Message: fmt.Sprintf(format, args...)})
	}

	for _, tx := range transactions {
		day := model.TruncateDay(tx.Date)
		if !end.IsZero() && day.After(end) {
			continue
		}
		prior := day.Before(start)

		for _, e := range tx.Entries {
			i, ok := idx[e.AccountID]
			if !ok {
				warn(model.WarnDanglingEntry, "voucher %s references unknown account %s", tx.VoucherNo, e.AccountID)
				continue
			}
			a := &out[i]
			if a.Level != model.LevelGL {
				warn(model.WarnNonGLEntry, "voucher %s posts to %s account %s", tx.VoucherNo, a.Level, a.Code)
				continue
			}
			if prior {
				a.OpeningBalance = a.OpeningBalance.Add(e.Debit).Sub(e.Credit)
			} else {
				a.PeriodDebit = a.PeriodDebit.Add(e.Debit)
				a.PeriodCredit = a.PeriodCredit.Add(e.Credit)
			}
		}
	}

	for i := range out {
		if a := &out[i]; a.Level == model.LevelGL {
			a.Balance = a.OpeningBalance.Add(a.PeriodDebit).Sub(a.PeriodCredit)
		}
	}

	rollUp(out, model.LevelGroup, model.LevelGL)
	rollUp(out, model.LevelMain, model.LevelGroup)
	applyRetainedEarnings(out)

	res.Accounts = out
	return res
}

// rollUp sets every parent-level account's fields to the sum of its
// child-level children.
func rollUp(accts []model.AccountWithTotals, parent, child model.AccountLevel) {
	for i := range accts {
		p := &accts[i]
		if p.Level != parent {
			continue
		}
		opening, debit, credit, balance := decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
		for _, c := range accts {
			if c.Level != child || c.ParentID != p.ID {
				continue
			}
			opening = opening.Add(c.OpeningBalance)
			debit = debit.Add(c.PeriodDebit)
			credit = credit.Add(c.PeriodCredit)
			balance = balance.Add(c.Balance)
		}
		p.OpeningBalance, p.PeriodDebit, p.PeriodCredit, p.Balance = opening, debit, credit, balance
	}
}

func applyRetainedEarnings(accts []model.AccountWithTotals) {
	var re, income, expense, equity *model.AccountWithTotals
	for i := range accts {
		a := &accts[i]
		switch {
		case a.Level == model.LevelGroup && a.Classification == model.ClassRetainedEarnings:
			re = a
		case a.Level == model.LevelMain && a.Type == model.AccountTypeIncome:
			income = a
		case a.Level == model.LevelMain && a.Type == model.AccountTypeExpense:
			expense = a
		case a.Level == model.LevelMain && a.Type == model.AccountTypeEquity:
			equity = a
		}
	}
	if re == nil {
		return
	}

	netIncome := decimal.Zero
	if income != nil {
		netIncome = netIncome.Add(DisplayBalance(model.AccountTypeIncome, income.Balance))
	}
	if expense != nil {
		netIncome = netIncome.Add(DisplayBalance(model.AccountTypeExpense, expense.Balance))
	}
	re.Balance = re.OpeningBalance.Add(netIncome)

	if equity == nil {
		return
	}
	sum := decimal.Zero
	for _, a := range accts {
		if a.Level == model.LevelGroup && a.ParentID == equity.ID {
			sum = sum.Add(a.Balance)
		}
	}
	equity.Balance = sum
}
