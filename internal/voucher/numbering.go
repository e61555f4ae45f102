package voucher

import (
	"sort"
	"strings"

	"github.com/hisabpati/hisab/internal/id"
	"github.com/hisabpati/hisab/internal/model"
)

// NextVoucherNo returns the next voucher number for vt, like "SA-0004".
// The sequence counts distinct voucher numbers of vt, ignoring reversals,
// so an edited voucher that keeps its number does not advance it.
func NextVoucherNo(vt model.VoucherType, transactions []model.Transaction) string {
	seen := map[string]bool{}
	for _, tx := range transactions {
		if tx.VoucherType == vt && !tx.IsReversal() {
			seen[tx.VoucherNo] = true
		}
	}
	return id.FormatVoucherNo(string(vt), len(seen)+1)
}

// SortByVoucherNo returns a copy of transactions ordered newest first: by
// the number embedded in the voucher number descending, then by date
// descending, then by voucher number descending.
func SortByVoucherNo(transactions []model.Transaction) []model.Transaction {
	out := make([]model.Transaction, len(transactions))
	copy(out, transactions)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		an, aok := id.LeadingNumber(a.VoucherNo)
		bn, bok := id.LeadingNumber(b.VoucherNo)
		if aok && bok && an != bn {
			return an > bn
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return strings.Compare(a.VoucherNo, b.VoucherNo) > 0
	})
	return out
}
