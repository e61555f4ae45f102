package model

import "github.com/shopspring/decimal"

// AccountType classifies accounts in the chart of accounts.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeIncome    AccountType = "INCOME"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// AccountTypes lists every account type in statement order.
var AccountTypes = []AccountType{
	AccountTypeAsset,
	AccountTypeLiability,
	AccountTypeEquity,
	AccountTypeIncome,
	AccountTypeExpense,
}

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	for _, at := range AccountTypes {
		if at == t {
			return true
		}
	}
	return false
}

// AccountLevel is the position of an account in the MAIN -> GROUP -> GL hierarchy.
type AccountLevel string

const (
	LevelMain  AccountLevel = "MAIN"
	LevelGroup AccountLevel = "GROUP"
	LevelGL    AccountLevel = "GL"
)

// Classification tags an account with the role reports and the voucher
// generator look it up by. Assigned when the chart is seeded.
type Classification string

const (
	ClassNone             Classification = ""
	ClassCash             Classification = "CASH"
	ClassReceivable       Classification = "RECEIVABLE"
	ClassInventory        Classification = "INVENTORY"
	ClassFixedAsset       Classification = "FIXED_ASSET"
	ClassPrepayment       Classification = "PREPAYMENT"
	ClassTaxAsset         Classification = "TAX_ASSET"
	ClassPayable          Classification = "PAYABLE"
	ClassAdvanceReceived  Classification = "ADVANCE_RECEIVED"
	ClassBorrowing        Classification = "BORROWING"
	ClassTaxPayable       Classification = "TAX_PAYABLE"
	ClassProvision        Classification = "PROVISION"
	ClassShareCapital     Classification = "SHARE_CAPITAL"
	ClassShareDeposit     Classification = "SHARE_DEPOSIT"
	ClassRetainedEarnings Classification = "RETAINED_EARNINGS"
	ClassSalesRevenue     Classification = "SALES_REVENUE"
	ClassOtherIncome      Classification = "OTHER_INCOME"
	ClassCostOfSales      Classification = "COST_OF_SALES"
	ClassOperatingExpense Classification = "OPERATING_EXPENSE"
	ClassCOGS             Classification = "COGS"
)

// Account is one node of the chart of accounts.
//
// OpeningBalance and Balance are outputs of the balance engine and are never
// treated as authoritative when read back from storage.
type Account struct {
	ID             string          `json:"id"`
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	Type           AccountType     `json:"type"`
	Level          AccountLevel    `json:"level"`
	ParentID       string          `json:"parentAccountId,omitempty"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	Balance        decimal.Decimal `json:"balance"`
	IsSystem       bool            `json:"isSystem,omitempty"`
	IsLocked       bool            `json:"isLocked,omitempty"`
	IsInventoryGL  bool            `json:"isInventoryGL,omitempty"`
	IsCOGSGL       bool            `json:"isCOGSGL,omitempty"`
	Classification Classification  `json:"classification,omitempty"`
	COGSFor        string          `json:"cogsFor,omitempty"` // inventory GL id, COGS GLs only
}

// IsSystemControlled reports whether the account is excluded from free-form editing.
func (a Account) IsSystemControlled() bool {
	return a.IsInventoryGL || a.IsCOGSGL
}

// AccountWithTotals is an account annotated with the period activity computed
// by the balance engine.
type AccountWithTotals struct {
	Account
	PeriodDebit  decimal.Decimal `json:"periodDebit"`
	PeriodCredit decimal.Decimal `json:"periodCredit"`
}
