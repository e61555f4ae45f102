package reports

import (
	"github.com/shopspring/decimal"

	"github.com/hisabpati/hisab/internal/ledger"
	"github.com/hisabpati/hisab/internal/model"
)

// FlowLine is the contribution of one group's change to a cash flow section.
type FlowLine struct {
	AccountID string          `json:"accountId"`
	Name      string          `json:"name"`
	Change    decimal.Decimal `json:"change"`
}

// CashFlow is an indirect-method cash flow statement for the period the
// balances were computed over.
type CashFlow struct {
	NetProfit    decimal.Decimal          `json:"netProfit"`
	Operating    []FlowLine               `json:"operating"`
	NetOperating decimal.Decimal          `json:"netOperating"`
	Investing    []FlowLine               `json:"investing"`
	NetInvesting decimal.Decimal          `json:"netInvesting"`
	Financing    []FlowLine               `json:"financing"`
	NetFinancing decimal.Decimal          `json:"netFinancing"`
	NetChange    decimal.Decimal          `json:"netChange"`
	OpeningCash  decimal.Decimal          `json:"openingCash"`
	ClosingCash  decimal.Decimal          `json:"closingCash"`
	Warnings     []model.IntegrityWarning `json:"warnings,omitempty"`
}

type flowRule struct {
	class  model.Classification
	negate bool
}

// An increase in a working-capital asset consumes cash; an increase in a
// liability or equity source provides it.
var (
	operatingRules = []flowRule{
		{model.ClassReceivable, true},
		{model.ClassInventory, true},
		{model.ClassPrepayment, true},
		{model.ClassTaxAsset, true},
		{model.ClassPayable, false},
		{model.ClassAdvanceReceived, false},
		{model.ClassTaxPayable, false},
		{model.ClassProvision, false},
	}
	investingRules = []flowRule{
		{model.ClassFixedAsset, true},
	}
	financingRules = []flowRule{
		{model.ClassBorrowing, false},
		{model.ClassShareCapital, false},
		{model.ClassShareDeposit, false},
	}
)

// periodChange is a group's movement over the period in display sign.
func periodChange(a model.AccountWithTotals) decimal.Decimal {
	return ledger.DisplayBalance(a.Type, a.Balance.Sub(a.OpeningBalance))
}

func flowLines(accts []model.AccountWithTotals, rules []flowRule) ([]FlowLine, decimal.Decimal) {
	var lines []FlowLine
	total := decimal.Zero
	for _, r := range rules {
		for _, a := range accts {
			if a.Level != model.LevelGroup || a.Classification != r.class {
				continue
			}
			change := periodChange(a)
			if r.negate {
				change = change.Neg()
			}
			if change.IsZero() {
				continue
			}
			lines = append(lines, FlowLine{AccountID: a.ID, Name: a.Name, Change: change})
			total = total.Add(change)
		}
	}
	return lines, total
}

// CashFlow builds the cash flow statement. It starts from the period's net
// profit, the summed period change of all INCOME and EXPENSE groups, and
// adjusts it by the change of each classified group. ClosingCash is
// OpeningCash plus NetChange and is cross-checked against the cash group's
// computed balance.
func (g *Generator) CashFlow(accts []model.AccountWithTotals) CashFlow {
	var cf CashFlow
	cf.NetProfit = decimal.Zero
	for _, a := range accts {
		if a.Level == model.LevelGroup && (a.Type == model.AccountTypeIncome || a.Type == model.AccountTypeExpense) {
			cf.NetProfit = cf.NetProfit.Add(periodChange(a))
		}
	}

	var opChange decimal.Decimal
	cf.Operating, opChange = flowLines(accts, operatingRules)
	cf.NetOperating = cf.NetProfit.Add(opChange)
	cf.Investing, cf.NetInvesting = flowLines(accts, investingRules)
	cf.Financing, cf.NetFinancing = flowLines(accts, financingRules)
	cf.NetChange = cf.NetOperating.Add(cf.NetInvesting).Add(cf.NetFinancing)

	computed := decimal.Zero
	cf.OpeningCash = decimal.Zero
	for _, a := range accts {
		if a.Level == model.LevelGroup && a.Classification == model.ClassCash {
			cf.OpeningCash = cf.OpeningCash.Add(a.OpeningBalance)
			computed = computed.Add(a.Balance)
		}
	}
	cf.ClosingCash = cf.OpeningCash.Add(cf.NetChange)

	if !model.WithinTolerance(cf.ClosingCash, computed) {
		cf.Warnings = append(cf.Warnings, g.warn(model.WarnCashFlow,
			"closing cash %s does not match cash balance %s", cf.ClosingCash.StringFixed(2), computed.StringFixed(2)))
	}
	return cf
}

// Summary is the headline figures of the books.
type Summary struct {
	Cash             decimal.Decimal          `json:"cash"`
	Receivables      decimal.Decimal          `json:"receivables"`
	Payables         decimal.Decimal          `json:"payables"`
	Revenue          decimal.Decimal          `json:"revenue"`
	Purchases        decimal.Decimal          `json:"purchases"`
	TotalAssets      decimal.Decimal          `json:"totalAssets"`
	TotalLiabilities decimal.Decimal          `json:"totalLiabilities"`
	TotalEquity      decimal.Decimal          `json:"totalEquity"`
	NetIncome        decimal.Decimal          `json:"netIncome"`
	Warnings         []model.IntegrityWarning `json:"warnings,omitempty"`
}

// Summary collects headline figures from the income statement and balance
// sheet. Revenue is the closing balance of every INCOME group and Purchases
// the stock debited to inventory groups during the period.
func (g *Generator) Summary(accts []model.AccountWithTotals) Summary {
	is := g.IncomeStatement(accts)
	bs := g.BalanceSheet(accts)

	s := Summary{
		Cash:             decimal.Zero,
		Receivables:      decimal.Zero,
		Payables:         decimal.Zero,
		Revenue:          decimal.Zero,
		Purchases:        decimal.Zero,
		TotalAssets:      bs.TotalAssets,
		TotalLiabilities: bs.TotalLiabilities,
		TotalEquity:      bs.TotalEquity,
		NetIncome:        is.NetProfit,
	}
	for _, a := range accts {
		if a.Level != model.LevelGroup {
			continue
		}
		switch {
		case a.Classification == model.ClassCash:
			s.Cash = s.Cash.Add(ledger.DashboardCash(a.Balance))
		case a.Classification == model.ClassReceivable:
			s.Receivables = s.Receivables.Add(ledger.DashboardReceivable(a.Balance))
		case a.Classification == model.ClassPayable:
			s.Payables = s.Payables.Add(ledger.DashboardPayable(a.Balance))
		case a.Classification == model.ClassInventory:
			s.Purchases = s.Purchases.Add(ledger.DashboardPurchase(a.PeriodDebit))
		case a.Type == model.AccountTypeIncome:
			s.Revenue = s.Revenue.Add(ledger.DashboardRevenue(a.Balance))
		}
	}
	s.Warnings = append(append(s.Warnings, is.Warnings...), bs.Warnings...)
	return s
}
