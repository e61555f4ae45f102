// Package reports builds the income statement, balance sheet, cash flow and
// summary from balances computed by the ledger package.
//
// Every statement works on GROUP accounts. Invariant checks never alter the
// figures: a failed check is logged and returned in the report's Warnings.
package reports

import (
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/hisabpati/hisab/internal/ledger"
	"github.com/hisabpati/hisab/internal/model"
)

// Line is one GROUP account on a statement.
type Line struct {
	AccountID     string          `json:"accountId"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Balance       decimal.Decimal `json:"balance"`
	DisplayAmount decimal.Decimal `json:"displayAmount"`
}

// Generator builds statements and logs failed invariant checks.
type Generator struct {
	log *slog.Logger
}

// NewGenerator creates a Generator. A nil logger discards output.
func NewGenerator(logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Generator{log: logger}
}

func (g *Generator) warn(kind model.WarningKind, format string, args ...any) model.IntegrityWarning {
	w := model.IntegrityWarning{Kind: kind, Message: fmt.Sprintf(format, args...)}
	g.log.Warn("report invariant failed", "kind", string(kind), "detail", w.Message)
	return w
}

func groups(accts []model.AccountWithTotals, t model.AccountType) []model.AccountWithTotals {
	var out []model.AccountWithTotals
	for _, a := range accts {
		if a.Level == model.LevelGroup && a.Type == t {
			out = append(out, a)
		}
	}
	return out
}

func line(a model.AccountWithTotals, display decimal.Decimal) Line {
	return Line{AccountID: a.ID, Code: a.Code, Name: a.Name, Balance: a.Balance, DisplayAmount: display}
}

func sumDisplay(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.DisplayAmount)
	}
	return total
}

// IncomeStatement lists INCOME and EXPENSE groups with their display
// amounts. Expenses come out negative, so NetProfit is a plain sum.
type IncomeStatement struct {
	Income       []Line                   `json:"income"`
	Expenses     []Line                   `json:"expenses"`
	TotalIncome  decimal.Decimal          `json:"totalIncome"`
	TotalExpense decimal.Decimal          `json:"totalExpense"`
	NetProfit    decimal.Decimal          `json:"netProfit"`
	Warnings     []model.IntegrityWarning `json:"warnings,omitempty"`
}

// IncomeStatement builds the income statement from computed balances.
func (g *Generator) IncomeStatement(accts []model.AccountWithTotals) IncomeStatement {
	var is IncomeStatement
	for _, a := range groups(accts, model.AccountTypeIncome) {
		is.Income = append(is.Income, line(a, ledger.DisplayBalance(a.Type, a.Balance)))
	}
	for _, a := range groups(accts, model.AccountTypeExpense) {
		is.Expenses = append(is.Expenses, line(a, ledger.DisplayBalance(a.Type, a.Balance)))
	}
	is.TotalIncome = sumDisplay(is.Income)
	is.TotalExpense = sumDisplay(is.Expenses)
	is.NetProfit = is.TotalIncome.Add(is.TotalExpense)

	lines := sumDisplay(is.Income).Add(sumDisplay(is.Expenses))
	if !model.WithinTolerance(is.NetProfit, lines) {
		is.Warnings = append(is.Warnings, g.warn(model.WarnIncomeStatement,
			"net profit %s differs from the sum of lines %s", is.NetProfit.StringFixed(2), lines.StringFixed(2)))
	}
	return is
}

// BalanceSheet lists ASSET, LIABILITY and EQUITY groups.
type BalanceSheet struct {
	Assets           []Line                   `json:"assets"`
	Liabilities      []Line                   `json:"liabilities"`
	Equity           []Line                   `json:"equity"`
	TotalAssets      decimal.Decimal          `json:"totalAssets"`
	TotalLiabilities decimal.Decimal          `json:"totalLiabilities"`
	TotalEquity      decimal.Decimal          `json:"totalEquity"`
	Warnings         []model.IntegrityWarning `json:"warnings,omitempty"`
}

// Balanced reports whether assets equal liabilities plus equity within
// model.Tolerance.
func (bs BalanceSheet) Balanced() bool {
	return model.WithinTolerance(bs.TotalAssets, bs.TotalLiabilities.Add(bs.TotalEquity))
}

// BalanceSheet builds the balance sheet. The retained earnings group is
// shown at the income statement's net profit rather than its ledger value.
func (g *Generator) BalanceSheet(accts []model.AccountWithTotals) BalanceSheet {
	netProfit := g.IncomeStatement(accts).NetProfit

	var bs BalanceSheet
	for _, a := range groups(accts, model.AccountTypeAsset) {
		bs.Assets = append(bs.Assets, line(a, ledger.DisplayBalance(a.Type, a.Balance)))
	}
	for _, a := range groups(accts, model.AccountTypeLiability) {
		bs.Liabilities = append(bs.Liabilities, line(a, ledger.DisplayBalance(a.Type, a.Balance)))
	}
	for _, a := range groups(accts, model.AccountTypeEquity) {
		display := ledger.DisplayBalance(a.Type, a.Balance)
		if a.Classification == model.ClassRetainedEarnings {
			display = netProfit
		}
		bs.Equity = append(bs.Equity, line(a, display))
	}
	bs.TotalAssets = sumDisplay(bs.Assets)
	bs.TotalLiabilities = sumDisplay(bs.Liabilities)
	bs.TotalEquity = sumDisplay(bs.Equity)

	return g.checkEquation(bs)
}

func (g *Generator) checkEquation(bs BalanceSheet) BalanceSheet {
	if !bs.Balanced() {
		bs.Warnings = append(bs.Warnings, g.warn(model.WarnBalanceSheet,
			"total assets %s != total liabilities %s + total equity %s",
			bs.TotalAssets.StringFixed(2), bs.TotalLiabilities.StringFixed(2), bs.TotalEquity.StringFixed(2)))
	}
	return bs
}
