package inventory

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hisabpati/hisab/internal/model"
)

// ItemSummary is one row of the inventory report.
type ItemSummary struct {
	SubLedger   model.InventorySubLedger `json:"subLedger"`
	Balance     Balance                  `json:"balance"`
	AverageCost decimal.Decimal          `json:"averageCost"`
}

// ItemReport returns the balance and weighted-average cost of every item for
// start..end, ordered by inventory GL and then item name.
func ItemReport(subLedgers []model.InventorySubLedger, movements []model.InventoryMovement, start, end time.Time) []ItemSummary {
	asOf := end
	if asOf.IsZero() {
		asOf = model.Day(9999, time.December, 31)
	}
	out := make([]ItemSummary, 0, len(subLedgers))
	for _, sl := range subLedgers {
		out = append(out, ItemSummary{
			SubLedger:   sl,
			Balance:     SubLedgerBalance(sl, movements, start, end),
			AverageCost: WeightedAverageCost(sl, movements, asOf),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].SubLedger, out[j].SubLedger
		if a.InventoryGLAccountID != b.InventoryGLAccountID {
			return a.InventoryGLAccountID < b.InventoryGLAccountID
		}
		return a.ItemName < b.ItemName
	})
	return out
}

// TotalValue returns the summed closing value of subLedgers for start..end.
func TotalValue(subLedgers []model.InventorySubLedger, movements []model.InventoryMovement, start, end time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, sl := range subLedgers {
		total = total.Add(SubLedgerBalance(sl, movements, start, end).Value)
	}
	return total
}

// TrailLine is one movement of an item's audit trail.
type TrailLine struct {
	Date         time.Time          `json:"date"`
	VoucherNo    string             `json:"voucherNo"`
	VoucherType  model.VoucherType  `json:"voucherType"`
	MovementType model.MovementType `json:"movementType"`
	Quantity     decimal.Decimal    `json:"quantity"`
	Rate         decimal.Decimal    `json:"rate"`
	Amount       decimal.Decimal    `json:"amount"`
	Reference    string             `json:"reference,omitempty"`
}

// AuditTrail lists the movements of one item in date order, each joined to
// the voucher that caused it.
func AuditTrail(subLedgerID string, movements []model.InventoryMovement, transactions []model.Transaction) []TrailLine {
	vouchers := make(map[string]model.Transaction, len(transactions))
	for _, tx := range transactions {
		vouchers[tx.ID] = tx
	}

	var out []TrailLine
	for _, m := range movements {
		if m.SubLedgerID != subLedgerID {
			continue
		}
		line := TrailLine{
			Date:         m.Date,
			VoucherNo:    "N/A",
			VoucherType:  "UNKNOWN",
			MovementType: m.MovementType,
			Quantity:     m.Quantity,
			Rate:         m.Rate,
			Amount:       m.Value(),
			Reference:    m.Reference,
		}
		if tx, ok := vouchers[m.VoucherID]; ok {
			line.VoucherNo, line.VoucherType = tx.VoucherNo, tx.VoucherType
		}
		out = append(out, line)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
