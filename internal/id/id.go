package id

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Record id prefixes.
const (
	PrefixTransaction = "tx"
	PrefixMovement    = "im"
	PrefixSubLedger   = "sl"
	PrefixItemLine    = "il"
	PrefixAccount     = "acc"
)

// New returns a random record id like "tx_6f1c...".
func New(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

// VoucherPrefix returns the two-letter prefix for a voucher type name:
// "SALES" -> "SA".
func VoucherPrefix(voucherType string) string {
	p := strings.ToUpper(voucherType)
	if len(p) > 2 {
		p = p[:2]
	}
	return p
}

// FormatVoucherNo returns a voucher number like "SA-0001".
func FormatVoucherNo(voucherType string, seq int) string {
	return fmt.Sprintf("%s-%04d", VoucherPrefix(voucherType), seq)
}

// ParseVoucherNo parses "SA-0001" into its prefix and sequence.
func ParseVoucherNo(no string) (prefix string, seq int, err error) {
	prefix, num, ok := strings.Cut(no, "-")
	if !ok || prefix == "" {
		return "", 0, fmt.Errorf("invalid voucher number format: %q", no)
	}
	seq, err = strconv.Atoi(num)
	if err != nil {
		return "", 0, fmt.Errorf("invalid sequence in voucher number %q: %w", no, err)
	}
	return prefix, seq, nil
}

// LeadingNumber returns the first run of digits in s.
// "SA-0012" -> 12, true
func LeadingNumber(s string) (int, bool) {
	start := strings.IndexFunc(s, isDigit)
	if start < 0 {
		return 0, false
	}
	end := start
	for end < len(s) && isDigit(rune(s[end])) {
		end++
	}
	n, err := strconv.Atoi(s[start:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
