package accounts

import (
	"strings"

	"github.com/hisabpati/hisab/internal/model"
)

// legacyGroups maps the fixed group codes used by charts that predate
// classification tags. Code 150000 meant share money deposit on the equity
// side and other income on the income side, so the type disambiguates.
var legacyGroups = map[string]map[model.AccountType]model.Classification{
	"10000":  {model.AccountTypeAsset: model.ClassCash},
	"20000":  {model.AccountTypeAsset: model.ClassReceivable},
	"30000":  {model.AccountTypeAsset: model.ClassInventory},
	"40000":  {model.AccountTypeAsset: model.ClassFixedAsset},
	"50000":  {model.AccountTypeAsset: model.ClassPrepayment},
	"60000":  {model.AccountTypeAsset: model.ClassTaxAsset},
	"70000":  {model.AccountTypeLiability: model.ClassPayable},
	"80000":  {model.AccountTypeLiability: model.ClassAdvanceReceived},
	"90000":  {model.AccountTypeLiability: model.ClassBorrowing},
	"100000": {model.AccountTypeLiability: model.ClassTaxPayable},
	"110000": {model.AccountTypeLiability: model.ClassProvision},
	"120000": {model.AccountTypeEquity: model.ClassShareCapital},
	"130000": {model.AccountTypeEquity: model.ClassRetainedEarnings},
	"135000": {model.AccountTypeEquity: model.ClassShareDeposit},
	"140000": {model.AccountTypeIncome: model.ClassSalesRevenue},
	"150000": {
		model.AccountTypeEquity: model.ClassShareDeposit,
		model.AccountTypeIncome: model.ClassOtherIncome,
	},
	"160000": {model.AccountTypeExpense: model.ClassCostOfSales},
	"170000": {model.AccountTypeExpense: model.ClassOperatingExpense},
	"180000": {model.AccountTypeExpense: model.ClassCOGS},
}

// Classify returns the classification a legacy chart implied for a GROUP
// account by its fixed code, or ClassNone.
func Classify(a model.Account) model.Classification {
	if a.Level != model.LevelGroup {
		return model.ClassNone
	}
	return legacyGroups[a.Code][a.Type]
}

// UpgradeLegacy fills in classifications and COGS pairings missing from a
// chart saved before they existed. Accounts that already carry a tag are left
// alone. Legacy COGS GLs are coded "1800" followed by the last two digits of
// their inventory GL's code. The input is not modified.
func UpgradeLegacy(accts []model.Account) []model.Account {
	out := make([]model.Account, len(accts))
	copy(out, accts)

	invByCode := map[string]string{}
	for _, a := range out {
		if a.IsInventoryGL && len(a.Code) >= 2 {
			invByCode["1800"+a.Code[len(a.Code)-2:]] = a.ID
		}
	}

	for i := range out {
		a := &out[i]
		if a.Classification == model.ClassNone {
			a.Classification = Classify(*a)
		}
		if a.IsCOGSGL && a.COGSFor == "" {
			a.COGSFor = invByCode[a.Code]
			a.Classification = model.ClassCOGS
		}
		if a.Level == model.LevelGL && a.Classification == model.ClassNone &&
			a.Type == model.AccountTypeIncome && strings.EqualFold(a.Name, "sales") {
			a.Classification = model.ClassSalesRevenue
		}
	}
	return out
}
