package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// VoucherType names the kind of transaction.
type VoucherType string

const (
	VoucherSales    VoucherType = "SALES"
	VoucherPurchase VoucherType = "PURCHASE"
	VoucherReceipt  VoucherType = "RECEIPT"
	VoucherPayment  VoucherType = "PAYMENT"
	VoucherJournal  VoucherType = "JOURNAL"
)

// VoucherTypes lists every voucher type.
var VoucherTypes = []VoucherType{
	VoucherSales,
	VoucherPurchase,
	VoucherReceipt,
	VoucherPayment,
	VoucherJournal,
}

// Valid reports whether v is a known voucher type.
func (v VoucherType) Valid() bool {
	for _, vt := range VoucherTypes {
		if vt == v {
			return true
		}
	}
	return false
}

// JournalEntry is one line of a transaction. Exactly one of Debit and
// Credit is non-zero.
type JournalEntry struct {
	AccountID string          `json:"accountId"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
}

// ItemLine is the inventory detail of a SALES or PURCHASE voucher. Rate is
// the sale price on SALES and the purchase cost on PURCHASE.
type ItemLine struct {
	ID                   string          `json:"id,omitempty"`
	SubLedgerID          string          `json:"subLedgerId"`
	InventoryGLAccountID string          `json:"inventoryGLAccountId"`
	ItemName             string          `json:"itemName,omitempty"`
	Quantity             decimal.Decimal `json:"quantity"`
	Rate                 decimal.Decimal `json:"rate"`
}

// Amount returns Quantity * Rate.
func (l ItemLine) Amount() decimal.Decimal {
	return l.Quantity.Mul(l.Rate)
}

// Transaction is a posted voucher.
type Transaction struct {
	ID          string         `json:"id"`
	VoucherNo   string         `json:"voucherNo"`
	VoucherType VoucherType    `json:"voucherType"`
	Date        time.Time      `json:"date"`
	Description string         `json:"description,omitempty"`
	Reference   string         `json:"reference,omitempty"`
	Entries     []JournalEntry `json:"entries"`
	ItemLines   []ItemLine     `json:"itemLines,omitempty"`
	ReversalOf  string         `json:"reversalOf,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// Totals returns the sums of the debit and credit columns.
func (t Transaction) Totals() (debit, credit decimal.Decimal) {
	return SumEntries(t.Entries)
}

// IsReversal reports whether t cancels an earlier transaction.
func (t Transaction) IsReversal() bool {
	return t.ReversalOf != ""
}

// SumEntries returns the debit and credit totals of entries.
func SumEntries(entries []JournalEntry) (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, e := range entries {
		debit = debit.Add(e.Debit)
		credit = credit.Add(e.Credit)
	}
	return debit, credit
}
