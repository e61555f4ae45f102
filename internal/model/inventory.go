package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType is the direction of an inventory movement.
type MovementType string

const (
	MovementIn  MovementType = "IN"
	MovementOut MovementType = "OUT"
)

// InventorySubLedger is a stocked item rolling up into an inventory GL.
type InventorySubLedger struct {
	ID                   string          `json:"id"`
	InventoryGLAccountID string          `json:"inventoryGLAccountId"`
	ItemName             string          `json:"itemName"`
	ItemCode             string          `json:"itemCode,omitempty"`
	OpeningQuantity      decimal.Decimal `json:"openingQuantity"`
	OpeningRate          decimal.Decimal `json:"openingRate"`
}

// OpeningValue returns OpeningQuantity * OpeningRate.
func (s InventorySubLedger) OpeningValue() decimal.Decimal {
	return s.OpeningQuantity.Mul(s.OpeningRate)
}

// InventoryMovement is an IN or OUT change to a sub-ledger caused by a voucher.
// Rate is always a cost rate.
type InventoryMovement struct {
	ID           string              `json:"id"`
	SubLedgerID  string              `json:"subLedgerId"`
	VoucherID    string              `json:"voucherId"`
	MovementType MovementType        `json:"movementType"`
	Quantity     decimal.Decimal     `json:"quantity"`
	Rate         decimal.Decimal     `json:"rate"`
	Amount       decimal.Decimal     `json:"amount"`
	CosAmount    decimal.NullDecimal `json:"cosAmount"`
	Date         time.Time           `json:"date"`
	Reference    string              `json:"reference,omitempty"`
	ReversalOf   string              `json:"reversalOf,omitempty"`
}

// Value returns the amount by which the movement changes the sub-ledger's
// value: Amount for IN, CosAmount (falling back to Amount) for OUT.
func (m InventoryMovement) Value() decimal.Decimal {
	if m.MovementType == MovementOut && m.CosAmount.Valid {
		return m.CosAmount.Decimal
	}
	return m.Amount
}
