package accounts

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hisabpati/hisab/internal/model"
)

func TestNewService(t *testing.T) {
	chart := DefaultChart()
	svc := NewService(chart)

	assert.Len(t, svc.All(), len(chart))
	assert.Empty(t, svc.ValidateHierarchy())
}

func TestGetExists(t *testing.T) {
	svc := NewService(DefaultChart())

	acct, ok := svc.Get(AccountID("10001"))
	assert.True(t, ok)
	assert.Equal(t, "Cash in Hand", acct.Name)

	_, ok = svc.Get("acc_99999")
	assert.False(t, ok)

	assert.True(t, svc.Exists(AccountID("70001")))
	assert.False(t, svc.Exists("acc_99999"))

	byCode, ok := svc.ByCode("130000")
	require.True(t, ok)
	assert.Equal(t, model.ClassRetainedEarnings, byCode.Classification)
}

func TestByType(t *testing.T) {
	svc := NewService(DefaultChart())

	for _, a := range svc.ByType(model.AccountTypeAsset) {
		assert.Equal(t, model.AccountTypeAsset, a.Type)
	}
	assert.Len(t, svc.ByLevel(model.LevelMain), 5)
}

func TestAncestors(t *testing.T) {
	svc := NewService(DefaultChart())

	group, main, err := svc.Ancestors(AccountID("10002"))
	require.NoError(t, err)
	assert.Equal(t, "10000", group.Code)
	assert.Equal(t, "1", main.Code)

	_, _, err = svc.Ancestors("acc_missing")
	assert.ErrorIs(t, err, model.ErrAccountNotFound)
}

func TestAncestors_Cycle(t *testing.T) {
	svc := NewService([]model.Account{
		{ID: "a", Code: "1", Level: model.LevelGroup, Type: model.AccountTypeAsset, ParentID: "b"},
		{ID: "b", Code: "2", Level: model.LevelGroup, Type: model.AccountTypeAsset, ParentID: "a"},
		{ID: "c", Code: "3", Level: model.LevelGL, Type: model.AccountTypeAsset, ParentID: "a"},
	})

	_, _, err := svc.Ancestors("c")
	assert.ErrorIs(t, err, ErrCycle)
}

func TestChildrenAndParent(t *testing.T) {
	svc := NewService(DefaultChart())

	kids := svc.Children(AccountID("10000"))
	require.Len(t, kids, 2)

	p, ok := svc.Parent(AccountID("10001"))
	require.True(t, ok)
	assert.Equal(t, "10000", p.Code)

	_, ok = svc.Parent(AccountID("1"))
	assert.False(t, ok)
}

func TestClassifiedLookups(t *testing.T) {
	svc := NewService(DefaultChart())

	grp, ok := svc.GroupFor(model.ClassCash)
	require.True(t, ok)
	assert.Equal(t, "10000", grp.Code)

	rev, err := svc.SalesRevenueGL()
	require.NoError(t, err)
	assert.Equal(t, "140001", rev.Code)

	recv := svc.ReceivableGLs()
	require.Len(t, recv, 1)
	assert.Equal(t, "Trade Receivables", recv[0].Name)

	pay := svc.PayableGLs()
	require.Len(t, pay, 1)

	cogs, err := svc.COGSFor(AccountID("30001"))
	require.NoError(t, err)
	assert.Equal(t, "180001", cogs.Code)
}

func TestSalesRevenueGL_Missing(t *testing.T) {
	svc := NewService([]model.Account{{ID: "x", Level: model.LevelGL, Type: model.AccountTypeIncome}})

	_, err := svc.SalesRevenueGL()
	assert.ErrorIs(t, err, model.ErrNoRevenueAccount)
}

func TestCOGSFor_Errors(t *testing.T) {
	svc := NewService(DefaultChart())

	_, err := svc.COGSFor("acc_30099")
	assert.ErrorIs(t, err, model.ErrNoCOGSMapping)

	var ce *model.ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "acc_30099", ce.AccountID)

	chart := DefaultChart()
	for i := range chart {
		if chart[i].COGSFor != "" {
			chart[i].Type = model.AccountTypeAsset
		}
	}
	_, err = NewService(chart).COGSFor(AccountID("30001"))
	assert.ErrorIs(t, err, model.ErrCOGSMisconfigured)
}

func TestNewGL(t *testing.T) {
	svc := NewService(DefaultChart())

	acct, err := svc.NewGL(AccountID("170000"), "  Utilities ")
	require.NoError(t, err)
	assert.Equal(t, "170003", acct.Code)
	assert.Equal(t, "Utilities", acct.Name)
	assert.Equal(t, model.AccountTypeExpense, acct.Type)
	assert.True(t, svc.Exists(acct.ID))

	_, err = svc.NewGL(AccountID("1"), "Nope")
	assert.ErrorContains(t, err, "not GROUP")

	_, err = svc.NewGL(AccountID("170000"), "")
	assert.Error(t, err)
}

func TestNewInventoryGL(t *testing.T) {
	svc := NewService(DefaultChart())

	inv, cogs, err := svc.NewInventoryGL("Raw Materials")
	require.NoError(t, err)
	assert.Equal(t, "30002", inv.Code)
	assert.True(t, inv.IsInventoryGL)
	assert.True(t, cogs.IsCOGSGL)
	assert.Equal(t, inv.ID, cogs.COGSFor)
	assert.Equal(t, "COGS - Raw Materials", cogs.Name)

	got, err := svc.COGSFor(inv.ID)
	require.NoError(t, err)
	assert.Equal(t, cogs.ID, got.ID)

	assert.Len(t, svc.InventoryGLs(), 2)
	assert.Empty(t, svc.ValidateHierarchy())
}

func TestRename(t *testing.T) {
	svc := NewService(DefaultChart())

	require.NoError(t, svc.Rename(AccountID("10002"), "City Bank"))
	a, _ := svc.Get(AccountID("10002"))
	assert.Equal(t, "City Bank", a.Name)

	err := svc.Rename(AccountID("30001"), "Stock")
	assert.ErrorIs(t, err, model.ErrSystemAccount)

	err = svc.Rename(AccountID("180001"), "Stock")
	assert.ErrorIs(t, err, model.ErrSystemAccount)

	err = svc.Rename(AccountID("10000"), "Money")
	assert.ErrorIs(t, err, model.ErrSystemAccount)
}

func TestAllReturnsCopy(t *testing.T) {
	svc := NewService(DefaultChart())
	all := svc.All()
	all[0].Name = "changed"

	a, _ := svc.Get(all[0].ID)
	assert.NotEqual(t, "changed", a.Name)
}

func TestUpgradeLegacy(t *testing.T) {
	f, err := os.ReadFile("testdata/legacy-chart.csv")
	require.NoError(t, err)
	legacy, err := ReadAccounts(bytes.NewReader(f))
	require.NoError(t, err)

	legacy = append(legacy,
		model.Account{ID: "inv7", Code: "30007", Name: "Widgets", Type: model.AccountTypeAsset, Level: model.LevelGL, IsInventoryGL: true},
		model.Account{ID: "cogs7", Code: "180007", Name: "COGS - Widgets", Type: model.AccountTypeExpense, Level: model.LevelGL, IsCOGSGL: true},
	)

	got := UpgradeLegacy(legacy)
	byID := map[string]model.Account{}
	for _, a := range got {
		byID[a.ID] = a
	}
	assert.Equal(t, model.ClassCash, byID["g_cash"].Classification)
	assert.Equal(t, model.ClassRetainedEarnings, byID["g_re"].Classification)
	assert.Equal(t, model.ClassShareDeposit, byID["g_smd"].Classification)
	assert.Equal(t, model.ClassOtherIncome, byID["g_oi"].Classification)
	assert.Equal(t, model.ClassNone, byID["m1"].Classification)
	assert.Equal(t, "inv7", byID["cogs7"].COGSFor)

	assert.Empty(t, legacy[5].Classification, "input must not be modified")
}

func TestValidateHierarchy(t *testing.T) {
	chart := DefaultChart()
	chart = append(chart,
		model.Account{ID: "orphan", Code: "99", Type: model.AccountTypeAsset, Level: model.LevelGL, ParentID: "nowhere"},
		model.Account{ID: "skip", Code: "98", Type: model.AccountTypeAsset, Level: model.LevelGL, ParentID: AccountID("1")},
		model.Account{ID: "mixed", Code: "97", Type: model.AccountTypeIncome, Level: model.LevelGL, ParentID: AccountID("10000")},
		model.Account{ID: "dup", Code: "10001", Type: model.AccountTypeAsset, Level: model.LevelGL, ParentID: AccountID("10000")},
		model.Account{ID: "rootgl", Code: "96", Type: model.AccountTypeAsset, Level: model.LevelMain, ParentID: AccountID("1")},
	)

	errs := NewService(chart).ValidateHierarchy()
	ids := map[string]bool{}
	for _, err := range errs {
		var he HierarchyError
		require.True(t, errors.As(err, &he))
		ids[he.AccountID] = true
	}
	for _, id := range []string{"orphan", "skip", "mixed", "dup", "rootgl"} {
		assert.True(t, ids[id], "expected violation for %s", id)
	}
	assert.Len(t, ids, 5)
}

func TestNextGLCode(t *testing.T) {
	tests := []struct {
		name     string
		group    string
		existing []string
		want     string
		wantErr  bool
	}{
		{"empty group", "10000", nil, "10001", false},
		{"after highest", "10000", []string{"10001", "10005", "10002"}, "10006", false},
		{"ignores other groups", "10000", []string{"20001", "9999", "abc"}, "10001", false},
		{"six digit group", "100000", []string{"100001"}, "100002", false},
		{"last slot", "10000", []string{"10998"}, "10999", false},
		{"full", "10000", []string{"10999"}, "", true},
		{"bad group", "x", nil, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextGLCode(tt.group, tt.existing)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
