package journal

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/hisabpati/hisab/internal/model"
)

// ValidationError describes a single invariant violation.
type ValidationError struct {
	Invariant   int
	VoucherNo   string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invariant %d [%s]: %s", e.Invariant, e.VoucherNo, e.Description)
}

// AccountLookup resolves account IDs against the chart of accounts.
type AccountLookup interface {
	Get(id string) (model.Account, bool)
}

// ValidateJournal reports whether entries balance within model.Tolerance.
func ValidateJournal(entries []model.JournalEntry) bool {
	debit, credit := model.SumEntries(entries)
	return model.WithinTolerance(debit, credit)
}

// ValidateTransaction enforces 7 invariants on a voucher and returns every
// violation found.
func ValidateTransaction(tx model.Transaction, accounts AccountLookup) []ValidationError {
	var errs []ValidationError
	fail := func(inv int, format string, args ...any) {
		errs = append(errs, ValidationError{Invariant: inv, VoucherNo: tx.VoucherNo, Description: fmt.Sprintf(format, args...)})
	}

	// Invariant 1: Debits equal credits within tolerance.
	if !ValidateJournal(tx.Entries) {
		debit, credit := model.SumEntries(tx.Entries)
		fail(1, "debits (%s) != credits (%s)", debit.StringFixed(2), credit.StringFixed(2))
	}

	for i, e := range tx.Entries {
		// Invariant 2: Exactly one of debit/credit per line.
		if e.Debit.IsZero() == e.Credit.IsZero() {
			fail(2, "line %d must have exactly one of debit or credit", i+1)
		}

		// Invariant 3: Amounts are not negative.
		if e.Debit.IsNegative() || e.Credit.IsNegative() {
			fail(3, "line %d has a negative amount", i+1)
		}

		// Invariant 4: Lines post to known GL accounts.
		acct, ok := accounts.Get(e.AccountID)
		switch {
		case !ok:
			fail(4, "unknown account %s", e.AccountID)
		case acct.Level != model.LevelGL:
			fail(4, "account %s is a %s account; only GL accounts can be posted to", acct.Code, acct.Level)
		}
	}

	// Invariant 5: At least one debit and one credit line.
	if len(tx.Entries) < 2 {
		fail(5, "voucher needs at least 2 lines, got %d", len(tx.Entries))
	}

	// Invariant 6: Known voucher type.
	if !tx.VoucherType.Valid() {
		fail(6, "unknown voucher type %q", tx.VoucherType)
	}

	// Invariant 7: Dated.
	if tx.Date.IsZero() {
		fail(7, "voucher date is required")
	}

	return errs
}

// ValidateLedger runs ValidateTransaction over every transaction.
func ValidateLedger(transactions []model.Transaction, accounts AccountLookup) []ValidationError {
	var errs []ValidationError
	for _, tx := range transactions {
		errs = append(errs, ValidateTransaction(tx, accounts)...)
	}
	return errs
}

// Messages flattens errs for a model.ValidationError.
func Messages(errs []ValidationError) []string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return msgs
}

// Total returns the debit total of entries, which equals the voucher amount
// of a balanced voucher.
func Total(entries []model.JournalEntry) decimal.Decimal {
	debit, _ := model.SumEntries(entries)
	return debit
}
