package voucher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hisabpati/hisab/internal/inventory"
	"github.com/hisabpati/hisab/internal/ledger"
	"github.com/hisabpati/hisab/internal/model"
)

func TestReverse_RestoresBalances(t *testing.T) {
	g := newTestGenerator()
	base := purchase(t, g, newTestLedger(), model.Day(2025, time.January, 5), "100", "20")
	start, end := model.Day(2025, time.January, 1), model.Day(2025, time.December, 31)
	before := ledger.ComputeBalances(base.Accounts, base.Transactions, start, end)

	sale, err := g.CreateSalesVoucher(SalesRequest{
		Date:                model.Day(2025, time.February, 1),
		ReceivableAccountID: receivable,
		Items:               []ItemRequest{{SubLedgerID: "sl_widget", Quantity: dec("30"), Rate: dec("50")}},
	}, base)
	require.NoError(t, err)
	l := Apply(base, sale)

	rev, err := g.Reverse(sale.Transaction.ID, l)
	require.NoError(t, err)
	assert.Equal(t, sale.Transaction.VoucherNo, rev.Transaction.VoucherNo)
	assert.Equal(t, sale.Transaction.Date, rev.Transaction.Date)
	assert.Equal(t, sale.Transaction.ID, rev.Transaction.ReversalOf)
	require.Len(t, rev.Movements, 1)
	assert.Equal(t, model.MovementIn, rev.Movements[0].MovementType)
	assert.Equal(t, sale.Movements[0].ID, rev.Movements[0].ReversalOf)
	l = Apply(l, rev)

	after := ledger.ComputeBalances(l.Accounts, l.Transactions, start, end)
	for _, a := range before.Accounts {
		got, _ := after.Get(a.ID)
		assert.True(t, a.Balance.Equal(got.Balance), "account %s: %s != %s", a.Code, a.Balance, got.Balance)
	}

	sl := l.SubLedgers[0]
	assert.True(t, inventory.Available(sl, l.Movements).Equal(dec("100")))
	assert.True(t, inventory.WeightedAverageCost(sl, l.Movements, end).Equal(dec("20")))

	_, err = g.Reverse(sale.Transaction.ID, l)
	assert.ErrorIs(t, err, model.ErrAlreadyReversed)

	_, err = g.Reverse(rev.Transaction.ID, l)
	assert.ErrorIs(t, err, model.ErrInvalidLine)

	_, err = g.Reverse("tx_missing", l)
	assert.ErrorIs(t, err, model.ErrTransactionNotFound)
}

func TestReverse_PurchaseExcludedFromAverage(t *testing.T) {
	g := newTestGenerator()
	l := purchase(t, g, newTestLedger(), model.Day(2025, time.January, 5), "100", "20")
	l = purchase(t, g, l, model.Day(2025, time.January, 6), "100", "80")
	second := l.Transactions[1]

	rev, err := g.Reverse(second.ID, l)
	require.NoError(t, err)
	l = Apply(l, rev)

	sl := l.SubLedgers[0]
	assert.True(t, inventory.WeightedAverageCost(sl, l.Movements, model.Day(2025, time.January, 31)).Equal(dec("20")))
	assert.Equal(t, "PU-0003", NextVoucherNo(model.VoucherPurchase, l.Transactions))
}

func TestReverse_PurchaseAlreadySold(t *testing.T) {
	g := newTestGenerator()
	l := purchase(t, g, newTestLedger(), model.Day(2025, time.January, 5), "10", "20")
	bought := l.Transactions[0]

	sale, err := g.CreateSalesVoucher(SalesRequest{
		Date:                model.Day(2025, time.January, 6),
		ReceivableAccountID: receivable,
		Items:               []ItemRequest{{SubLedgerID: "sl_widget", Quantity: dec("8"), Rate: dec("50")}},
	}, l)
	require.NoError(t, err)
	l = Apply(l, sale)

	_, err = g.Reverse(bought.ID, l)
	assert.ErrorIs(t, err, model.ErrInsufficientStock)

	rev, err := g.Supersede(bought.ID, l)
	require.NoError(t, err)
	assert.Equal(t, bought.ID, rev.Transaction.ReversalOf)
	require.Len(t, rev.Movements, 1)
	assert.Equal(t, model.MovementOut, rev.Movements[0].MovementType)
}

func TestApply_DoesNotMutate(t *testing.T) {
	l := newTestLedger()
	next := Apply(l, Posting{Transaction: model.Transaction{ID: "t"}, Movements: []model.InventoryMovement{{ID: "m"}}})
	assert.Empty(t, l.Transactions)
	assert.Empty(t, l.Movements)
	assert.Len(t, next.Transactions, 1)
	assert.Len(t, next.Movements, 1)
}
