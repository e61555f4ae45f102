package books

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hisabpati/hisab/internal/accounts"
	"github.com/hisabpati/hisab/internal/activity"
	"github.com/hisabpati/hisab/internal/backup"
	"github.com/hisabpati/hisab/internal/inventory"
	"github.com/hisabpati/hisab/internal/model"
	"github.com/hisabpati/hisab/internal/store"
	"github.com/hisabpati/hisab/internal/voucher"
)

var (
	company  = Company{Owner: "u1", ID: "c1"}
	fixedNow = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

	cash       = accounts.AccountID("10001")
	receivable = accounts.AccountID("20001")
	invGL      = accounts.AccountID("30001")
	payable    = accounts.AccountID("70001")
	capital    = accounts.AccountID("120001")
	cogsGL     = accounts.AccountID("180001")
	rent       = accounts.AccountID("170002")
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	svc   *Service
	store *store.Store
	log   *activity.Log
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "hisab.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	n := 0
	gen := voucher.NewGenerator(
		voucher.WithIDFunc(func(prefix string) string {
			n++
			return fmt.Sprintf("%s_%03d", prefix, n)
		}),
		voucher.WithClock(func() time.Time { return fixedNow }),
	)
	log := activity.New(dir)
	svc := NewService(st, nil, WithGenerator(gen), WithActivityLog(log), WithClock(func() time.Time { return fixedNow }))

	_, err = svc.Init(context.Background(), company, model.CompanyMeta{Name: "Acme Traders"})
	require.NoError(t, err)
	return fixture{svc: svc, store: st, log: log}
}

func (f fixture) addWidget(t *testing.T) model.InventorySubLedger {
	t.Helper()
	sl, err := f.svc.AddItem(context.Background(), company, model.InventorySubLedger{
		ID: "sl_widget", InventoryGLAccountID: invGL, ItemName: "Widget",
	})
	require.NoError(t, err)
	return sl
}

func items(qty, rate string) []voucher.ItemRequest {
	return []voucher.ItemRequest{{SubLedgerID: "sl_widget", Quantity: dec(qty), Rate: dec(rate)}}
}

func balance(t *testing.T, f fixture, accountID string) decimal.Decimal {
	t.Helper()
	res, err := f.svc.Balances(context.Background(), company, model.Day(2025, time.January, 1), model.Day(2025, time.December, 31))
	require.NoError(t, err)
	a, ok := res.Get(accountID)
	require.True(t, ok)
	return a.Balance
}

func TestInit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	snap, err := f.svc.Load(ctx, company)
	require.NoError(t, err)
	assert.Len(t, snap.Ledger.Accounts, len(accounts.DefaultChart()))
	assert.Equal(t, "Acme Traders", snap.Company.Name)
	assert.Equal(t, "u1", snap.Company.Owner)

	_, err = f.svc.Init(ctx, company, model.CompanyMeta{})
	assert.True(t, errors.Is(err, ErrAlreadyInitialized))

	_, err = f.svc.Load(ctx, Company{Owner: "u1", ID: "other"})
	assert.True(t, errors.Is(err, ErrNotInitialized))
}

func TestPostPurchaseAndSale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addWidget(t)

	_, err := f.svc.PostPurchase(ctx, company, voucher.PurchaseRequest{
		Date: model.Day(2025, time.February, 1), PayableAccountID: payable, Items: items("100", "20"),
	})
	require.NoError(t, err)
	_, err = f.svc.PostPurchase(ctx, company, voucher.PurchaseRequest{
		Date: model.Day(2025, time.February, 2), PayableAccountID: payable, Items: items("100", "30"),
	})
	require.NoError(t, err)

	r, err := f.svc.PostSale(ctx, company, voucher.SalesRequest{
		Date: model.Day(2025, time.February, 3), ReceivableAccountID: receivable, Items: items("150", "40"),
	})
	require.NoError(t, err)
	require.Len(t, r.Postings, 1)
	assert.Equal(t, "SA-0001", r.Postings[0].Transaction.VoucherNo)
	assert.Empty(t, r.Warnings, "GL and sub-ledger stay in sync")

	assert.True(t, balance(t, f, cogsGL).Equal(dec("3750")))
	assert.True(t, balance(t, f, invGL).Equal(dec("1250")))
	assert.True(t, balance(t, f, receivable).Equal(dec("6000")))

	entries, err := f.log.Read()
	require.NoError(t, err)
	last := entries[len(entries)-1]
	assert.Equal(t, activity.ActionPost, last.Action)
	assert.Equal(t, "SA-0001", last.VoucherNo)
	assert.Equal(t, "c1", last.Company)
}

func TestPostSale_InsufficientStockWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addWidget(t)
	_, err := f.svc.PostPurchase(ctx, company, voucher.PurchaseRequest{
		Date: model.Day(2025, time.February, 1), PayableAccountID: payable, Items: items("50", "10"),
	})
	require.NoError(t, err)

	before, err := f.svc.Load(ctx, company)
	require.NoError(t, err)

	_, err = f.svc.PostSale(ctx, company, voucher.SalesRequest{
		Date: model.Day(2025, time.February, 3), ReceivableAccountID: receivable, Items: items("60", "40"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInsufficientStock))
	assert.Contains(t, err.Error(), "available=50, requested=60")

	after, err := f.svc.Load(ctx, company)
	require.NoError(t, err)
	assert.Equal(t, before.Version, after.Version)
	assert.Len(t, after.Ledger.Transactions, 1)
	assert.Len(t, after.Ledger.Movements, 1)
}

func TestEditJournal_KeepsHistoryAndNumber(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, err := f.svc.PostJournal(ctx, company, voucher.JournalRequest{
		VoucherType: model.VoucherPayment,
		Date:        model.Day(2025, time.March, 1),
		Entries: []model.JournalEntry{
			{AccountID: rent, Debit: dec("500")},
			{AccountID: cash, Credit: dec("500")},
		},
	})
	require.NoError(t, err)
	orig := r.Postings[0].Transaction

	r, err = f.svc.EditJournal(ctx, company, orig.ID, voucher.JournalRequest{
		Date: model.Day(2025, time.March, 2),
		Entries: []model.JournalEntry{
			{AccountID: rent, Debit: dec("450")},
			{AccountID: cash, Credit: dec("450")},
		},
	})
	require.NoError(t, err)
	require.Len(t, r.Postings, 2)
	assert.Equal(t, orig.ID, r.Postings[0].Transaction.ReversalOf)
	assert.Equal(t, orig.VoucherNo, r.Postings[1].Transaction.VoucherNo)
	assert.Equal(t, model.VoucherPayment, r.Postings[1].Transaction.VoucherType)

	snap, err := f.svc.Load(ctx, company)
	require.NoError(t, err)
	assert.Len(t, snap.Ledger.Transactions, 3, "original is kept")
	assert.Equal(t, "PA-0002", voucher.NextVoucherNo(model.VoucherPayment, snap.Ledger.Transactions))

	assert.True(t, balance(t, f, rent).Equal(dec("450")))
	assert.True(t, balance(t, f, cash).Equal(dec("-450")))
}

func TestEditSale_ReusesReleasedStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addWidget(t)
	_, err := f.svc.PostPurchase(ctx, company, voucher.PurchaseRequest{
		Date: model.Day(2025, time.February, 1), PayableAccountID: payable, Items: items("10", "5"),
	})
	require.NoError(t, err)
	r, err := f.svc.PostSale(ctx, company, voucher.SalesRequest{
		Date: model.Day(2025, time.February, 3), ReceivableAccountID: receivable, Items: items("8", "9"),
	})
	require.NoError(t, err)
	sale := r.Postings[0].Transaction

	// 10 on hand only once the original 8 are returned.
	r, err = f.svc.EditSale(ctx, company, sale.ID, voucher.SalesRequest{
		Date: model.Day(2025, time.February, 3), ReceivableAccountID: receivable, Items: items("10", "9"),
	})
	require.NoError(t, err)
	assert.Empty(t, r.Warnings)
	assert.True(t, balance(t, f, invGL).IsZero())
	assert.True(t, balance(t, f, cogsGL).Equal(dec("50")))

	_, err = f.svc.EditPurchase(ctx, company, sale.ID, voucher.PurchaseRequest{})
	assert.Error(t, err)
}

func TestEditPurchase_AfterPartialSale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	widget := f.addWidget(t)
	r, err := f.svc.PostPurchase(ctx, company, voucher.PurchaseRequest{
		Date: model.Day(2025, time.February, 1), PayableAccountID: payable, Items: items("100", "20"),
	})
	require.NoError(t, err)
	purchase := r.Postings[0].Transaction
	_, err = f.svc.PostSale(ctx, company, voucher.SalesRequest{
		Date: model.Day(2025, time.February, 3), ReceivableAccountID: receivable, Items: items("50", "40"),
	})
	require.NoError(t, err)

	r, err = f.svc.EditPurchase(ctx, company, purchase.ID, voucher.PurchaseRequest{
		Date: model.Day(2025, time.February, 1), PayableAccountID: payable, Items: items("100", "22"),
	})
	require.NoError(t, err)
	require.Len(t, r.Postings, 2)
	assert.Equal(t, purchase.VoucherNo, r.Postings[1].Transaction.VoucherNo)
	assert.True(t, balance(t, f, payable).Equal(dec("-2200")))

	snap, err := f.svc.Load(ctx, company)
	require.NoError(t, err)
	assert.True(t, inventory.Available(widget, snap.Ledger.Movements).Equal(dec("50")))
	assert.Empty(t, inventory.ValidateNegativeInventory(snap.Ledger.SubLedgers, snap.Ledger.Movements))
}

func TestEditPurchase_RefusesNegativeStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addWidget(t)
	r, err := f.svc.PostPurchase(ctx, company, voucher.PurchaseRequest{
		Date: model.Day(2025, time.February, 1), PayableAccountID: payable, Items: items("100", "20"),
	})
	require.NoError(t, err)
	purchase := r.Postings[0].Transaction
	_, err = f.svc.PostSale(ctx, company, voucher.SalesRequest{
		Date: model.Day(2025, time.February, 3), ReceivableAccountID: receivable, Items: items("50", "40"),
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		req  voucher.PurchaseRequest
	}{
		{"quantity below sold", voucher.PurchaseRequest{
			Date: model.Day(2025, time.February, 1), PayableAccountID: payable, Items: items("30", "20"),
		}},
		{"moved after the sale", voucher.PurchaseRequest{
			Date: model.Day(2025, time.February, 10), PayableAccountID: payable, Items: items("100", "20"),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.EditPurchase(ctx, company, purchase.ID, tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrInsufficientStock))

			snap, err := f.svc.Load(ctx, company)
			require.NoError(t, err)
			assert.Len(t, snap.Ledger.Transactions, 2, "refused edit writes nothing")
		})
	}

	_, err = f.svc.Void(ctx, company, purchase.ID)
	assert.True(t, errors.Is(err, model.ErrInsufficientStock))
}

func TestVoid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r, err := f.svc.PostJournal(ctx, company, voucher.JournalRequest{
		VoucherType: model.VoucherJournal,
		Date:        model.Day(2025, time.January, 5),
		Entries: []model.JournalEntry{
			{AccountID: cash, Debit: dec("1000")},
			{AccountID: capital, Credit: dec("1000")},
		},
	})
	require.NoError(t, err)
	txID := r.Postings[0].Transaction.ID

	_, err = f.svc.Void(ctx, company, txID)
	require.NoError(t, err)
	assert.True(t, balance(t, f, cash).IsZero())

	_, err = f.svc.Void(ctx, company, txID)
	assert.True(t, errors.Is(err, model.ErrAlreadyReversed))
}

func TestConcurrentWriteConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	snap, err := f.svc.Load(ctx, company)
	require.NoError(t, err)

	_, err = f.svc.AddAccount(ctx, company, accounts.AccountID("170000"), "Utilities")
	require.NoError(t, err)

	// A writer still holding the earlier snapshot is refused.
	_, err = f.svc.commit(ctx, company, snap, voucher.Posting{Transaction: model.Transaction{ID: "tx_stale"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrConflict))
}

func TestChartMaintenance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	acct, err := f.svc.AddAccount(ctx, company, accounts.AccountID("170000"), "Utilities")
	require.NoError(t, err)
	assert.Equal(t, "170003", acct.Code)

	inv, cogs, err := f.svc.AddInventoryAccount(ctx, company, "Raw Materials")
	require.NoError(t, err)
	assert.Equal(t, inv.ID, cogs.COGSFor)

	renamed, err := f.svc.RenameAccount(ctx, company, acct.ID, "Utilities and Power")
	require.NoError(t, err)
	assert.Equal(t, "Utilities and Power", renamed.Name)

	_, err = f.svc.RenameAccount(ctx, company, inv.ID, "Nope")
	assert.True(t, errors.Is(err, model.ErrSystemAccount))

	snap, err := f.svc.Load(ctx, company)
	require.NoError(t, err)
	chart := accounts.NewService(snap.Ledger.Accounts)
	got, ok := chart.Get(acct.ID)
	require.True(t, ok)
	assert.Equal(t, "Utilities and Power", got.Name)
	assert.Empty(t, chart.ValidateHierarchy())
}

func TestAddItem_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addWidget(t)

	_, err := f.svc.AddItem(ctx, company, model.InventorySubLedger{InventoryGLAccountID: invGL, ItemName: "widget"})
	assert.True(t, errors.Is(err, model.ErrInvalidLine), "duplicate name")

	_, err = f.svc.AddItem(ctx, company, model.InventorySubLedger{InventoryGLAccountID: cash, ItemName: "Gadget"})
	assert.True(t, errors.Is(err, model.ErrMissingAccount))

	sl, err := f.svc.AddItem(ctx, company, model.InventorySubLedger{InventoryGLAccountID: invGL, ItemName: "Gadget"})
	require.NoError(t, err)
	assert.NotEmpty(t, sl.ID)
}

func TestExportRestore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addWidget(t)
	_, err := f.svc.PostPurchase(ctx, company, voucher.PurchaseRequest{
		Date: model.Day(2025, time.February, 1), PayableAccountID: payable, Items: items("4", "25"),
	})
	require.NoError(t, err)

	p, err := f.svc.Export(ctx, company)
	require.NoError(t, err)
	assert.Equal(t, "Acme Traders", p.CompanyMeta.Name)

	other := Company{Owner: "u2", ID: "c9"}
	_, err = f.svc.Restore(ctx, other, p)
	require.NoError(t, err)

	snap, err := f.svc.Load(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, "c9", snap.Company.ID)
	assert.Len(t, snap.Ledger.Transactions, 1)
	assert.Len(t, snap.Ledger.SubLedgers, 1)

	bad := p
	bad.Movements = append(bad.Movements, model.InventoryMovement{ID: "im_orphan", SubLedgerID: "sl_nope", VoucherID: "tx_nope"})
	_, err = f.svc.Restore(ctx, other, bad)
	assert.True(t, errors.Is(err, backup.ErrInvalidBackup))

	snap, err = f.svc.Load(ctx, other)
	require.NoError(t, err)
	assert.Len(t, snap.Ledger.Movements, 1, "rejected restore writes nothing")

	unbalanced := p
	unbalanced.Transactions = append([]model.Transaction(nil), p.Transactions...)
	unbalanced.Transactions = append(unbalanced.Transactions, model.Transaction{
		ID:          "tx_skewed",
		VoucherNo:   "JO-0001",
		VoucherType: model.VoucherJournal,
		Date:        model.Day(2025, time.March, 1),
		Entries: []model.JournalEntry{
			{AccountID: cash, Debit: dec("300")},
			{AccountID: capital, Credit: dec("200")},
		},
	})
	fresh := Company{Owner: "u3", ID: "c7"}
	_, err = f.svc.Restore(ctx, fresh, unbalanced)
	require.Error(t, err)
	assert.True(t, errors.Is(err, backup.ErrInvalidBackup))
	assert.Contains(t, err.Error(), "debits (300.00) != credits (200.00)")

	_, err = f.svc.Load(ctx, fresh)
	assert.True(t, errors.Is(err, ErrNotInitialized), "rejected restore writes nothing")
}

func TestImportChart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var chart []model.Account
	for _, a := range accounts.DefaultChart() {
		if a.ID == rent {
			continue
		}
		if a.Level == model.LevelGroup {
			a.Classification = model.ClassNone
		}
		chart = append(chart, a)
	}
	_, err := f.svc.ImportChart(ctx, company, chart)
	require.NoError(t, err)

	snap, err := f.svc.Load(ctx, company)
	require.NoError(t, err)
	imported := accounts.NewService(snap.Ledger.Accounts)
	assert.Len(t, snap.Ledger.Accounts, len(chart))
	assert.False(t, imported.Exists(rent))
	grp, ok := imported.Get(accounts.AccountID("10000"))
	require.True(t, ok)
	assert.Equal(t, model.ClassCash, grp.Classification, "legacy groups are upgraded")

	broken := append([]model.Account{}, chart...)
	broken = append(broken, model.Account{ID: "acc_x", Code: "999999", Name: "Orphan", Type: model.AccountTypeExpense, Level: model.LevelGL, ParentID: "acc_missing"})
	_, err = f.svc.ImportChart(ctx, company, broken)
	assert.True(t, errors.Is(err, model.ErrInvalidLine))

	_, err = f.svc.PostJournal(ctx, company, voucher.JournalRequest{
		VoucherType: model.VoucherJournal, Date: model.Day(2025, time.January, 2),
		Entries: []model.JournalEntry{
			{AccountID: cash, Debit: dec("10"), Credit: decimal.Zero},
			{AccountID: capital, Debit: decimal.Zero, Credit: dec("10")},
		},
	})
	require.NoError(t, err)
	_, err = f.svc.ImportChart(ctx, company, chart)
	assert.ErrorContains(t, err, "only be replaced before posting")
}
