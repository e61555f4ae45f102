package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/hisabpati/hisab/internal/model"
)

// DisplayBalance converts a ledger balance (debit positive) to the sign an
// accountant expects to read. Assets are shown as stored; every other type
// is negated.
func DisplayBalance(t model.AccountType, ledgerBalance decimal.Decimal) decimal.Decimal {
	if t == model.AccountTypeAsset {
		return ledgerBalance
	}
	return ledgerBalance.Neg()
}

// DashboardRevenue shows an income balance, stored as a credit, as positive.
func DashboardRevenue(incomeBalance decimal.Decimal) decimal.Decimal { return incomeBalance.Neg() }

// DashboardPayable shows a payable balance, stored as a credit, as positive.
func DashboardPayable(payableBalance decimal.Decimal) decimal.Decimal { return payableBalance.Neg() }

// DashboardReceivable returns a receivable balance as stored.
func DashboardReceivable(receivableBalance decimal.Decimal) decimal.Decimal {
	return receivableBalance
}

// DashboardCash returns a cash balance as stored.
func DashboardCash(cashBalance decimal.Decimal) decimal.Decimal { return cashBalance }

// DashboardPurchase returns the period's inventory purchases as stored.
func DashboardPurchase(purchaseBalance decimal.Decimal) decimal.Decimal { return purchaseBalance }
