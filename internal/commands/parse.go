package commands

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hisabpati/hisab/internal/accounts"
	"github.com/hisabpati/hisab/internal/model"
	"github.com/hisabpati/hisab/internal/voucher"
)

// parseAmount splits "REF=AMOUNT".
func parseAmount(s string) (ref string, amount decimal.Decimal, err error) {
	ref, raw, ok := strings.Cut(s, "=")
	if !ok || ref == "" {
		return "", decimal.Zero, fmt.Errorf("invalid line %q, want ACCOUNT=AMOUNT", s)
	}
	amount, err = decimal.NewFromString(raw)
	if err != nil {
		return "", decimal.Zero, fmt.Errorf("invalid amount in %q: %w", s, err)
	}
	return ref, amount, nil
}

// parseItem splits "REF=QTY@RATE".
func parseItem(s string) (ref string, qty, rate decimal.Decimal, err error) {
	ref, rest, ok := strings.Cut(s, "=")
	if !ok || ref == "" {
		return "", qty, rate, fmt.Errorf("invalid item %q, want ITEM=QTY@RATE", s)
	}
	rawQty, rawRate, ok := strings.Cut(rest, "@")
	if !ok {
		return "", qty, rate, fmt.Errorf("invalid item %q, want ITEM=QTY@RATE", s)
	}
	if qty, err = decimal.NewFromString(rawQty); err != nil {
		return "", qty, rate, fmt.Errorf("invalid quantity in %q: %w", s, err)
	}
	if rate, err = decimal.NewFromString(rawRate); err != nil {
		return "", qty, rate, fmt.Errorf("invalid rate in %q: %w", s, err)
	}
	return ref, qty, rate, nil
}

// resolveAccount finds an account by id or code.
func resolveAccount(chart *accounts.Service, ref string) (model.Account, error) {
	if a, ok := chart.Get(ref); ok {
		return a, nil
	}
	if a, ok := chart.ByCode(ref); ok {
		return a, nil
	}
	return model.Account{}, fmt.Errorf("%w: %s", model.ErrAccountNotFound, ref)
}

// resolveItem finds a sub-ledger by id, item code or name.
func resolveItem(l *model.Ledger, ref string) (model.InventorySubLedger, error) {
	if sl, ok := l.SubLedger(ref); ok {
		return sl, nil
	}
	var found []model.InventorySubLedger
	for _, sl := range l.SubLedgers {
		if (sl.ItemCode != "" && sl.ItemCode == ref) || strings.EqualFold(sl.ItemName, ref) {
			found = append(found, sl)
		}
	}
	switch len(found) {
	case 0:
		return model.InventorySubLedger{}, fmt.Errorf("%w: %s", model.ErrSubLedgerNotFound, ref)
	case 1:
		return found[0], nil
	default:
		return model.InventorySubLedger{}, fmt.Errorf("item %q is ambiguous, use its id", ref)
	}
}

// resolveTransaction finds a transaction by id or voucher number. A voucher
// number resolves to its latest posting that has not been reversed.
func resolveTransaction(l *model.Ledger, ref string) (model.Transaction, error) {
	if tx, ok := l.Transaction(ref); ok {
		return tx, nil
	}
	for i := len(l.Transactions) - 1; i >= 0; i-- {
		tx := l.Transactions[i]
		if tx.VoucherNo == ref && !tx.IsReversal() && !l.IsReversed(tx.ID) {
			return tx, nil
		}
	}
	return model.Transaction{}, fmt.Errorf("%w: %s", model.ErrTransactionNotFound, ref)
}

func journalEntries(chart *accounts.Service, debits, credits []string) ([]model.JournalEntry, error) {
	var entries []model.JournalEntry
	for _, side := range []struct {
		lines []string
		debit bool
	}{{debits, true}, {credits, false}} {
		for _, s := range side.lines {
			ref, amount, err := parseAmount(s)
			if err != nil {
				return nil, err
			}
			acct, err := resolveAccount(chart, ref)
			if err != nil {
				return nil, err
			}
			e := model.JournalEntry{AccountID: acct.ID, Debit: decimal.Zero, Credit: decimal.Zero}
			if side.debit {
				e.Debit = amount
			} else {
				e.Credit = amount
			}
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func itemRequests(l *model.Ledger, lines []string) ([]voucher.ItemRequest, error) {
	out := make([]voucher.ItemRequest, 0, len(lines))
	for _, s := range lines {
		ref, qty, rate, err := parseItem(s)
		if err != nil {
			return nil, err
		}
		sl, err := resolveItem(l, ref)
		if err != nil {
			return nil, err
		}
		out = append(out, voucher.ItemRequest{SubLedgerID: sl.ID, Quantity: qty, Rate: rate})
	}
	return out, nil
}
