// Package inventory values stocked items at weighted-average cost and
// checks that stock never goes negative.
package inventory

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hisabpati/hisab/internal/model"
)

// Balance is a sub-ledger's quantity and value over a period. Opening and
// closing figures are floored at zero.
type Balance struct {
	OpeningQuantity decimal.Decimal `json:"openingQuantity"`
	OpeningValue    decimal.Decimal `json:"openingValue"`
	DebitQuantity   decimal.Decimal `json:"debitQuantity"`
	DebitAmount     decimal.Decimal `json:"debitAmount"`
	CreditQuantity  decimal.Decimal `json:"creditQuantity"`
	CreditAmount    decimal.Decimal `json:"creditAmount"`
	Quantity        decimal.Decimal `json:"quantity"`
	Value           decimal.Decimal `json:"value"`
}

// SubLedgerBalance computes the balance of sl for start..end (inclusive).
// Movements of other sub-ledgers are ignored. A zero end leaves the period
// open-ended.
func SubLedgerBalance(sl model.InventorySubLedger, movements []model.InventoryMovement, start, end time.Time) Balance {
	start = model.TruncateDay(start)
	if !end.IsZero() {
		end = model.TruncateDay(end)
	}

	b := Balance{
		OpeningQuantity: sl.OpeningQuantity,
		OpeningValue:    sl.OpeningValue(),
		DebitQuantity:   decimal.Zero,
		DebitAmount:     decimal.Zero,
		CreditQuantity:  decimal.Zero,
		CreditAmount:    decimal.Zero,
	}

	for _, m := range movements {
		if m.SubLedgerID != sl.ID {
			continue
		}
		day := model.TruncateDay(m.Date)
		switch {
		case day.Before(start):
			if m.MovementType == model.MovementIn {
				b.OpeningQuantity = b.OpeningQuantity.Add(m.Quantity)
				b.OpeningValue = b.OpeningValue.Add(m.Amount)
			} else {
				b.OpeningQuantity = b.OpeningQuantity.Sub(m.Quantity)
				b.OpeningValue = b.OpeningValue.Sub(m.Value())
			}
		case end.IsZero() || !day.After(end):
			if m.MovementType == model.MovementIn {
				b.DebitQuantity = b.DebitQuantity.Add(m.Quantity)
				b.DebitAmount = b.DebitAmount.Add(m.Amount)
			} else {
				b.CreditQuantity = b.CreditQuantity.Add(m.Quantity)
				b.CreditAmount = b.CreditAmount.Add(m.Value())
			}
		}
	}

	b.OpeningQuantity = floor(b.OpeningQuantity)
	b.OpeningValue = floor(b.OpeningValue)
	b.Quantity = floor(b.OpeningQuantity.Add(b.DebitQuantity).Sub(b.CreditQuantity))
	b.Value = floor(b.OpeningValue.Add(b.DebitAmount).Sub(b.CreditAmount))
	return b
}

// WeightedAverageCost returns the unit cost of sl as of asOf: opening value
// plus every purchase up to asOf, divided by the matching quantity. Sales
// never change it, and reversed purchases and their compensations are left
// out. Returns zero when nothing has been stocked.
func WeightedAverageCost(sl model.InventorySubLedger, movements []model.InventoryMovement, asOf time.Time) decimal.Decimal {
	asOf = model.TruncateDay(asOf)
	skip := reversed(movements)

	qty := sl.OpeningQuantity
	value := sl.OpeningValue()
	for _, m := range movements {
		if m.SubLedgerID != sl.ID || m.MovementType != model.MovementIn {
			continue
		}
		if skip[m.ID] || m.ReversalOf != "" || model.TruncateDay(m.Date).After(asOf) {
			continue
		}
		qty = qty.Add(m.Quantity)
		value = value.Add(m.Amount)
	}

	if !qty.IsPositive() {
		return decimal.Zero
	}
	return value.Div(qty)
}

// Available returns the closing quantity of sl across its whole history.
func Available(sl model.InventorySubLedger, movements []model.InventoryMovement) decimal.Decimal {
	qty := sl.OpeningQuantity
	for _, m := range movements {
		if m.SubLedgerID != sl.ID {
			continue
		}
		if m.MovementType == model.MovementIn {
			qty = qty.Add(m.Quantity)
		} else {
			qty = qty.Sub(m.Quantity)
		}
	}
	return floor(qty)
}

// AvailableOn returns how much of sl an OUT dated date can take without
// stock dropping below zero then or at any later movement. Movements on the
// same day as date come before the OUT.
func AvailableOn(sl model.InventorySubLedger, movements []model.InventoryMovement, date time.Time) decimal.Decimal {
	date = model.TruncateDay(date)
	qty := sl.OpeningQuantity
	low, started := decimal.Zero, false
	for _, m := range byDate(sl.ID, movements) {
		if !started && model.TruncateDay(m.Date).After(date) {
			low, started = qty, true
		}
		if m.MovementType == model.MovementIn {
			qty = qty.Add(m.Quantity)
		} else {
			qty = qty.Sub(m.Quantity)
		}
		if started {
			low = decimal.Min(low, qty)
		}
	}
	if !started {
		low = qty
	}
	return floor(low)
}

// byDate returns the movements of one sub-ledger sorted by date, keeping
// posting order within a day.
func byDate(slID string, movements []model.InventoryMovement) []model.InventoryMovement {
	var own []model.InventoryMovement
	for _, m := range movements {
		if m.SubLedgerID == slID {
			own = append(own, m)
		}
	}
	sort.SliceStable(own, func(i, j int) bool { return own[i].Date.Before(own[j].Date) })
	return own
}

// ForGL returns the sub-ledgers rolling up into the given inventory GL.
func ForGL(subLedgers []model.InventorySubLedger, glID string) []model.InventorySubLedger {
	var out []model.InventorySubLedger
	for _, sl := range subLedgers {
		if sl.InventoryGLAccountID == glID {
			out = append(out, sl)
		}
	}
	return out
}

// reversed returns the ids of movements that a later movement reverses.
func reversed(movements []model.InventoryMovement) map[string]bool {
	ids := map[string]bool{}
	for _, m := range movements {
		if m.ReversalOf != "" {
			ids[m.ReversalOf] = true
		}
	}
	return ids
}

func floor(d decimal.Decimal) decimal.Decimal {
	return decimal.Max(d, decimal.Zero)
}
