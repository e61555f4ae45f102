package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hisabpati/hisab/internal/model"
)

// ValidateSubLedger checks the fields an administrator supplies for an item.
func ValidateSubLedger(sl model.InventorySubLedger) error {
	switch {
	case strings.TrimSpace(sl.ItemName) == "":
		return model.NewValidationError(model.ErrInvalidLine, "item name is required")
	case sl.InventoryGLAccountID == "":
		return model.NewValidationError(model.ErrMissingAccount, "an inventory GL account must be selected")
	case sl.OpeningQuantity.IsNegative():
		return model.NewValidationError(model.ErrInvalidLine, "quantity cannot be negative")
	case sl.OpeningRate.IsNegative():
		return model.NewValidationError(model.ErrInvalidLine, "rate cannot be negative")
	}
	return nil
}

// Shortfall is an item line asking for more stock than is on hand.
type Shortfall struct {
	SubLedgerID string          `json:"subLedgerId"`
	ItemName    string          `json:"itemName"`
	Requested   decimal.Decimal `json:"requested"`
	Available   decimal.Decimal `json:"available"`
}

func (s Shortfall) String() string {
	return fmt.Sprintf("insufficient stock for %q: available=%s, requested=%s", s.ItemName, s.Available, s.Requested)
}

// Shortfalls returns every line of items that exceeds the stock available
// to an OUT on date. Lines for the same item are summed first. An unknown
// item is a shortfall with nothing available.
func Shortfalls(items []model.ItemLine, date time.Time, subLedgers []model.InventorySubLedger, movements []model.InventoryMovement) []Shortfall {
	requested := map[string]decimal.Decimal{}
	var order []string
	for _, it := range items {
		if _, seen := requested[it.SubLedgerID]; !seen {
			order = append(order, it.SubLedgerID)
			requested[it.SubLedgerID] = decimal.Zero
		}
		requested[it.SubLedgerID] = requested[it.SubLedgerID].Add(it.Quantity)
	}

	var out []Shortfall
	for _, id := range order {
		s := Shortfall{SubLedgerID: id, ItemName: "unknown item", Requested: requested[id], Available: decimal.Zero}
		for _, sl := range subLedgers {
			if sl.ID == id {
				s.ItemName = sl.ItemName
				s.Available = AvailableOn(sl, movements, date)
				break
			}
		}
		if s.Requested.GreaterThan(s.Available) {
			out = append(out, s)
		}
	}
	return out
}

// ValidateSalesVoucherInventory returns a ValidationError wrapping
// ErrInsufficientStock that lists every shortfall for an OUT on date, or nil.
func ValidateSalesVoucherInventory(items []model.ItemLine, date time.Time, subLedgers []model.InventorySubLedger, movements []model.InventoryMovement) error {
	short := Shortfalls(items, date, subLedgers, movements)
	if len(short) == 0 {
		return nil
	}
	msgs := make([]string, len(short))
	for i, s := range short {
		msgs[i] = s.String()
	}
	return model.NewValidationError(model.ErrInsufficientStock, msgs...)
}

// ValidateStock returns a ValidationError wrapping ErrInsufficientStock when
// any of the given sub-ledgers drops below zero at some point in date order.
func ValidateStock(subLedgers []model.InventorySubLedger, movements []model.InventoryMovement) error {
	warnings := ValidateNegativeInventory(subLedgers, movements)
	if len(warnings) == 0 {
		return nil
	}
	msgs := make([]string, len(warnings))
	for i, w := range warnings {
		msgs[i] = w.Message
	}
	return model.NewValidationError(model.ErrInsufficientStock, msgs...)
}

// ValidateNegativeInventory replays each item's movements in date order from
// its opening quantity and reports every point where stock drops below zero.
func ValidateNegativeInventory(subLedgers []model.InventorySubLedger, movements []model.InventoryMovement) []model.IntegrityWarning {
	var warnings []model.IntegrityWarning
	for _, sl := range subLedgers {
		qty := sl.OpeningQuantity
		for _, m := range byDate(sl.ID, movements) {
			if m.MovementType == model.MovementIn {
				qty = qty.Add(m.Quantity)
			} else {
				qty = qty.Sub(m.Quantity)
			}
			if qty.IsNegative() {
				warnings = append(warnings, model.IntegrityWarning{
					Kind:    model.WarnNegativeInventory,
					Message: fmt.Sprintf("%s (%s) has negative balance: %s units at %s", sl.ItemName, sl.ItemCode, qty, m.Date.Format(time.DateOnly)),
				})
			}
		}
	}
	return warnings
}

// SyncMismatch is an inventory GL whose balance differs from the value of
// its sub-ledgers.
type SyncMismatch struct {
	GLAccountID    string          `json:"glAccountId"`
	GLAccountName  string          `json:"glAccountName"`
	GLBalance      decimal.Decimal `json:"glBalance"`
	InventoryValue decimal.Decimal `json:"inventoryValue"`
}

// Difference returns |GLBalance - InventoryValue|.
func (m SyncMismatch) Difference() decimal.Decimal {
	return m.GLBalance.Sub(m.InventoryValue).Abs()
}

// Warning renders the mismatch as an IntegrityWarning.
func (m SyncMismatch) Warning() model.IntegrityWarning {
	msg := fmt.Sprintf("GL %q balance %s does not match inventory value %s (difference %s)",
		m.GLAccountName, m.GLBalance.StringFixed(2), m.InventoryValue.StringFixed(2), m.Difference().StringFixed(2))
	if m.GLAccountName == "" {
		msg = fmt.Sprintf("GL account %s not found", m.GLAccountID)
	}
	return model.IntegrityWarning{Kind: model.WarnInventoryGLSync, Message: msg}
}

// ValidateInventoryGLSync compares, per inventory GL with sub-ledgers, the
// GL's computed balance with the sum of its sub-ledgers' closing values for
// start..end. Mismatches beyond model.Tolerance are reported and never
// corrected.
func ValidateInventoryGLSync(subLedgers []model.InventorySubLedger, movements []model.InventoryMovement, balances []model.AccountWithTotals, start, end time.Time) []SyncMismatch {
	values := map[string]decimal.Decimal{}
	var order []string
	for _, sl := range subLedgers {
		if _, seen := values[sl.InventoryGLAccountID]; !seen {
			order = append(order, sl.InventoryGLAccountID)
			values[sl.InventoryGLAccountID] = decimal.Zero
		}
		b := SubLedgerBalance(sl, movements, start, end)
		values[sl.InventoryGLAccountID] = values[sl.InventoryGLAccountID].Add(b.Value)
	}

	var out []SyncMismatch
	for _, glID := range order {
		m := SyncMismatch{GLAccountID: glID, InventoryValue: values[glID], GLBalance: decimal.Zero}
		found := false
		for _, a := range balances {
			if a.ID == glID {
				m.GLAccountName, m.GLBalance, found = a.Name, a.Balance, true
				break
			}
		}
		if !found || !model.WithinTolerance(m.GLBalance, m.InventoryValue) {
			out = append(out, m)
		}
	}
	return out
}
