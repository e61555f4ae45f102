package voucher

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/hisabpati/hisab/internal/id"
	"github.com/hisabpati/hisab/internal/inventory"
	"github.com/hisabpati/hisab/internal/model"
)

// Reverse builds the posting that cancels the transaction with the given id.
//
// The reversal keeps the original's voucher number and date and swaps debit
// and credit on every entry, so any period sees the balances it would have
// seen had the original never been posted. Each original movement gets a
// compensating movement in the opposite direction at the same cost.
// Reversing a purchase whose stock has since been sold is rejected.
func (g *Generator) Reverse(txID string, l *model.Ledger) (Posting, error) {
	return g.reverse(txID, l, true)
}

// Supersede builds the same reversal as Reverse without checking stock. It
// is the first half of an edit: the caller checks stock once the replacement
// posting is applied as well.
func (g *Generator) Supersede(txID string, l *model.Ledger) (Posting, error) {
	return g.reverse(txID, l, false)
}

func (g *Generator) reverse(txID string, l *model.Ledger, checkStock bool) (Posting, error) {
	orig, ok := l.Transaction(txID)
	if !ok {
		return Posting{}, fmt.Errorf("%w: %s", model.ErrTransactionNotFound, txID)
	}
	if orig.IsReversal() {
		return Posting{}, model.NewValidationError(model.ErrInvalidLine,
			fmt.Sprintf("voucher %s is a reversal and cannot itself be reversed", orig.VoucherNo))
	}
	if l.IsReversed(orig.ID) {
		return Posting{}, fmt.Errorf("voucher %s: %w", orig.VoucherNo, model.ErrAlreadyReversed)
	}

	entries := make([]model.JournalEntry, len(orig.Entries))
	for i, e := range orig.Entries {
		entries[i] = model.JournalEntry{AccountID: e.AccountID, Debit: e.Credit, Credit: e.Debit}
	}

	tx := model.Transaction{
		ID:          g.newID(id.PrefixTransaction),
		VoucherNo:   orig.VoucherNo,
		VoucherType: orig.VoucherType,
		Date:        orig.Date,
		Description: "Reversal of " + orig.VoucherNo,
		Reference:   orig.Reference,
		Entries:     entries,
		ReversalOf:  orig.ID,
		CreatedAt:   g.now().UTC(),
	}

	var returned []model.ItemLine
	var movements []model.InventoryMovement
	for _, m := range l.MovementsFor(orig.ID) {
		value := m.Value()
		comp := model.InventoryMovement{
			ID:          g.newID(id.PrefixMovement),
			SubLedgerID: m.SubLedgerID,
			VoucherID:   tx.ID,
			Quantity:    m.Quantity,
			Rate:        m.Rate,
			Amount:      value,
			Date:        m.Date,
			Reference:   tx.VoucherNo,
			ReversalOf:  m.ID,
		}
		if m.MovementType == model.MovementIn {
			comp.MovementType = model.MovementOut
			comp.CosAmount = decimal.NewNullDecimal(value)
			returned = append(returned, model.ItemLine{SubLedgerID: m.SubLedgerID, Quantity: m.Quantity})
		} else {
			comp.MovementType = model.MovementIn
		}
		movements = append(movements, comp)
	}

	if checkStock {
		if err := inventory.ValidateSalesVoucherInventory(returned, orig.Date, l.SubLedgers, l.Movements); err != nil {
			return Posting{}, fmt.Errorf("reversing %s: %w", orig.VoucherNo, err)
		}
	}
	return Posting{Transaction: tx, Movements: movements}, nil
}

// Apply returns a copy of l with p's transaction and movements appended.
func Apply(l *model.Ledger, p Posting) *model.Ledger {
	next := *l
	next.Transactions = append(append([]model.Transaction(nil), l.Transactions...), p.Transaction)
	next.Movements = append(append([]model.InventoryMovement(nil), l.Movements...), p.Movements...)
	return &next
}
