package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tolerance is the largest difference treated as equal when comparing
// monetary totals.
var Tolerance = decimal.New(1, -2)

// WithinTolerance reports whether |a - b| < Tolerance.
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(Tolerance)
}

// Day returns midnight UTC of the given calendar date.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// TruncateDay drops the time of day from t, keeping its calendar date.
func TruncateDay(t time.Time) time.Time {
	return Day(t.Year(), t.Month(), t.Day())
}

// ParseDay parses a YYYY-MM-DD date.
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, s, time.UTC)
}

// Ledger is an in-memory snapshot of one company's books.
type Ledger struct {
	Accounts     []Account            `json:"accounts"`
	Transactions []Transaction        `json:"transactions"`
	SubLedgers   []InventorySubLedger `json:"inventorySubLedgers"`
	Movements    []InventoryMovement  `json:"inventoryMovements"`
}

// SubLedger returns the sub-ledger with the given id.
func (l *Ledger) SubLedger(id string) (InventorySubLedger, bool) {
	for _, sl := range l.SubLedgers {
		if sl.ID == id {
			return sl, true
		}
	}
	return InventorySubLedger{}, false
}

// Transaction returns the transaction with the given id.
func (l *Ledger) Transaction(id string) (Transaction, bool) {
	for _, tx := range l.Transactions {
		if tx.ID == id {
			return tx, true
		}
	}
	return Transaction{}, false
}

// MovementsFor returns the movements caused by the voucher with the given id.
func (l *Ledger) MovementsFor(voucherID string) []InventoryMovement {
	var out []InventoryMovement
	for _, m := range l.Movements {
		if m.VoucherID == voucherID {
			out = append(out, m)
		}
	}
	return out
}

// IsReversed reports whether some transaction reverses the one with the given id.
func (l *Ledger) IsReversed(txID string) bool {
	for _, tx := range l.Transactions {
		if tx.ReversalOf == txID {
			return true
		}
	}
	return false
}
