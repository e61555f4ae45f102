package accounts

import "github.com/hisabpati/hisab/internal/model"

// AccountID returns the id the default chart uses for an account code.
func AccountID(code string) string {
	return "acc_" + code
}

// DefaultChart returns the chart of accounts seeded for a new company.
func DefaultChart() []model.Account {
	chart := []model.Account{
		mainAccount("1", "Assets", model.AccountTypeAsset),
		mainAccount("2", "Liabilities", model.AccountTypeLiability),
		mainAccount("3", "Equity", model.AccountTypeEquity),
		mainAccount("4", "Income", model.AccountTypeIncome),
		mainAccount("5", "Expenses", model.AccountTypeExpense),

		group("10000", "Cash and Cash Equivalents", "1", model.ClassCash),
		group("20000", "Accounts Receivable", "1", model.ClassReceivable),
		group("30000", "Inventory", "1", model.ClassInventory),
		group("40000", "Fixed Assets", "1", model.ClassFixedAsset),
		group("50000", "Advance Deposits and Prepayments", "1", model.ClassPrepayment),
		group("60000", "Current Tax Assets", "1", model.ClassTaxAsset),

		group("70000", "Accounts Payable", "2", model.ClassPayable),
		group("80000", "Advances Received from Customers", "2", model.ClassAdvanceReceived),
		group("90000", "Borrowings from Bank", "2", model.ClassBorrowing),
		group("100000", "Current Tax Payable", "2", model.ClassTaxPayable),
		group("110000", "Provision for Expenses", "2", model.ClassProvision),

		group("120000", "Share Capital", "3", model.ClassShareCapital),
		group("130000", "Retained Earnings", "3", model.ClassRetainedEarnings),
		group("135000", "Share Money Deposit", "3", model.ClassShareDeposit),

		group("140000", "Sales Revenue", "4", model.ClassSalesRevenue),
		group("150000", "Other Income", "4", model.ClassOtherIncome),

		group("160000", "Cost of Sales", "5", model.ClassCostOfSales),
		group("170000", "Operating Expenses", "5", model.ClassOperatingExpense),
		group("180000", "Cost of Goods Sold", "5", model.ClassCOGS),

		gl("10001", "Cash in Hand", "10000"),
		gl("10002", "Bank Account", "10000"),
		gl("20001", "Trade Receivables", "20000"),
		gl("40001", "Office Equipment", "40000"),
		gl("70001", "Trade Payables", "70000"),
		gl("90001", "Bank Loan", "90000"),
		gl("120001", "Paid-up Capital", "120000"),
		gl("130001", "Retained Earnings Brought Forward", "130000"),
		gl("140001", "Sales", "140000"),
		gl("150001", "Miscellaneous Income", "150000"),
		gl("170001", "Salaries", "170000"),
		gl("170002", "Rent", "170000"),
	}

	// The sales GL is the default credit side of a sales voucher.
	for i := range chart {
		if chart[i].Code == "140001" {
			chart[i].Classification = model.ClassSalesRevenue
			chart[i].IsSystem = true
		}
	}

	inv, cogs := inventoryPair("30001", "180001", "Finished Goods")
	return append(chart, inv, cogs)
}

func mainAccount(code, name string, t model.AccountType) model.Account {
	return model.Account{
		ID:       AccountID(code),
		Code:     code,
		Name:     name,
		Type:     t,
		Level:    model.LevelMain,
		IsSystem: true,
		IsLocked: true,
	}
}

func group(code, name, parentCode string, class model.Classification) model.Account {
	return model.Account{
		ID:             AccountID(code),
		Code:           code,
		Name:           name,
		Type:           typeForMain(parentCode),
		Level:          model.LevelGroup,
		ParentID:       AccountID(parentCode),
		IsSystem:       true,
		IsLocked:       true,
		Classification: class,
	}
}

func gl(code, name, groupCode string) model.Account {
	return model.Account{
		ID:       AccountID(code),
		Code:     code,
		Name:     name,
		Type:     typeForGroup(groupCode),
		Level:    model.LevelGL,
		ParentID: AccountID(groupCode),
	}
}

func inventoryPair(invCode, cogsCode, name string) (inv, cogs model.Account) {
	inv = gl(invCode, name, "30000")
	inv.IsSystem, inv.IsLocked, inv.IsInventoryGL = true, true, true

	cogs = gl(cogsCode, "COGS - "+name, "180000")
	cogs.IsSystem, cogs.IsLocked, cogs.IsCOGSGL = true, true, true
	cogs.Classification = model.ClassCOGS
	cogs.COGSFor = inv.ID
	return inv, cogs
}

func typeForMain(code string) model.AccountType {
	switch code {
	case "1":
		return model.AccountTypeAsset
	case "2":
		return model.AccountTypeLiability
	case "3":
		return model.AccountTypeEquity
	case "4":
		return model.AccountTypeIncome
	default:
		return model.AccountTypeExpense
	}
}

func typeForGroup(code string) model.AccountType {
	switch code {
	case "10000", "20000", "30000", "40000", "50000", "60000":
		return model.AccountTypeAsset
	case "70000", "80000", "90000", "100000", "110000":
		return model.AccountTypeLiability
	case "120000", "130000", "135000":
		return model.AccountTypeEquity
	case "140000", "150000":
		return model.AccountTypeIncome
	default:
		return model.AccountTypeExpense
	}
}
