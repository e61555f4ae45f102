package commands

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hisabpati/hisab/internal/accounts"
	"github.com/hisabpati/hisab/internal/model"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		ref     string
		amount  string
		wantErr bool
	}{
		{in: "10001=250.50", ref: "10001", amount: "250.5"},
		{in: "acc_10001=1", ref: "acc_10001", amount: "1"},
		{in: "10001", wantErr: true},
		{in: "=5", wantErr: true},
		{in: "10001=abc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			ref, amount, err := parseAmount(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.ref, ref)
			assert.True(t, amount.Equal(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestParseItem(t *testing.T) {
	ref, qty, rate, err := parseItem("Widget=12.5@3")
	require.NoError(t, err)
	assert.Equal(t, "Widget", ref)
	assert.True(t, qty.Equal(decimal.RequireFromString("12.5")))
	assert.True(t, rate.Equal(decimal.NewFromInt(3)))

	for _, bad := range []string{"Widget=12", "Widget", "=1@2", "Widget=x@2", "Widget=1@y"} {
		_, _, _, err := parseItem(bad)
		assert.Error(t, err, bad)
	}
}

func TestResolve(t *testing.T) {
	l := &model.Ledger{
		Accounts: accounts.DefaultChart(),
		SubLedgers: []model.InventorySubLedger{
			{ID: "sl_1", ItemName: "Widget", ItemCode: "W1"},
			{ID: "sl_2", ItemName: "Gadget"},
			{ID: "sl_3", ItemName: "gadget"},
		},
		Transactions: []model.Transaction{
			{ID: "tx_1", VoucherNo: "JO-0001"},
			{ID: "tx_2", VoucherNo: "JO-0001", ReversalOf: "tx_1"},
			{ID: "tx_3", VoucherNo: "JO-0001"},
		},
	}
	chart := accounts.NewService(l.Accounts)

	a, err := resolveAccount(chart, "10001")
	require.NoError(t, err)
	assert.Equal(t, accounts.AccountID("10001"), a.ID)
	_, err = resolveAccount(chart, "99999")
	assert.True(t, errors.Is(err, model.ErrAccountNotFound))

	_, err = resolveItem(l, "w1")
	assert.Error(t, err, "codes are exact")
	sl, err := resolveItem(l, "widget")
	require.NoError(t, err)
	assert.Equal(t, "sl_1", sl.ID)
	_, err = resolveItem(l, "Gadget")
	assert.ErrorContains(t, err, "ambiguous")
	_, err = resolveItem(l, "Nope")
	assert.True(t, errors.Is(err, model.ErrSubLedgerNotFound))

	tx, err := resolveTransaction(l, "JO-0001")
	require.NoError(t, err)
	assert.Equal(t, "tx_3", tx.ID, "the live posting wins over the reversed one")
	tx, err = resolveTransaction(l, "tx_1")
	require.NoError(t, err)
	assert.Equal(t, "tx_1", tx.ID)
	_, err = resolveTransaction(l, "JO-0009")
	assert.True(t, errors.Is(err, model.ErrTransactionNotFound))
}

func TestPeriodFlags(t *testing.T) {
	meta := model.CompanyMeta{FiscalYearStart: model.Day(2000, time.April, 1)}
	now := time.Date(2025, time.February, 10, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		flags      periodFlags
		start, end time.Time
		wantErr    bool
	}{
		{name: "fiscal year default", start: model.Day(2024, time.April, 1), end: model.Day(2025, time.March, 31)},
		{name: "explicit", flags: periodFlags{start: "2025-01-01", end: "2025-01-31"}, start: model.Day(2025, time.January, 1), end: model.Day(2025, time.January, 31)},
		{name: "bad date", flags: periodFlags{start: "2025/01/01"}, wantErr: true},
		{name: "reversed", flags: periodFlags{start: "2025-02-01", end: "2025-01-01"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := tt.flags.resolve(meta, now)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, start.Equal(tt.start), start)
			assert.True(t, end.Equal(tt.end), end)
		})
	}
}

func TestOrdered(t *testing.T) {
	var accts []model.AccountWithTotals
	for _, a := range accounts.DefaultChart() {
		accts = append(accts, model.AccountWithTotals{Account: a})
	}
	out := ordered(accts)
	require.Len(t, out, len(accts))
	seen := map[string]bool{}
	for _, a := range out {
		if a.ParentID != "" {
			assert.True(t, seen[a.ParentID], "%s listed before its parent", a.Code)
		}
		seen[a.ID] = true
	}
}
