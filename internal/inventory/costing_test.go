package inventory

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hisabpati/hisab/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var widget = model.InventorySubLedger{
	ID:                   "sl_widget",
	InventoryGLAccountID: "acc_30001",
	ItemName:             "Widget",
	ItemCode:             "W-1",
	OpeningQuantity:      decimal.Zero,
	OpeningRate:          decimal.Zero,
}

func in(id string, date time.Time, qty, rate string) model.InventoryMovement {
	q, r := dec(qty), dec(rate)
	return model.InventoryMovement{
		ID: id, SubLedgerID: widget.ID, VoucherID: "v_" + id, MovementType: model.MovementIn,
		Quantity: q, Rate: r, Amount: q.Mul(r), Date: date,
	}
}

func out(id string, date time.Time, qty, rate string) model.InventoryMovement {
	q, r := dec(qty), dec(rate)
	return model.InventoryMovement{
		ID: id, SubLedgerID: widget.ID, VoucherID: "v_" + id, MovementType: model.MovementOut,
		Quantity: q, Rate: r, Amount: q.Mul(r), CosAmount: decimal.NewNullDecimal(q.Mul(r)), Date: date,
	}
}

func TestWeightedAverageCost_PurchasesThenSale(t *testing.T) {
	d1 := model.Day(2025, time.January, 5)
	d2 := model.Day(2025, time.January, 10)
	d3 := model.Day(2025, time.January, 15)

	movements := []model.InventoryMovement{in("m1", d1, "100", "20")}
	assert.True(t, WeightedAverageCost(widget, movements, d1).Equal(dec("20")))

	movements = append(movements, in("m2", d2, "100", "30"))
	wac := WeightedAverageCost(widget, movements, d3)
	assert.True(t, wac.Equal(dec("25")), "got %s", wac)

	cogs := dec("150").Mul(wac)
	assert.True(t, cogs.Equal(dec("3750")))

	movements = append(movements, out("m3", d3, "150", wac.String()))
	b := SubLedgerBalance(widget, movements, d1, d3)
	assert.True(t, b.Quantity.Equal(dec("50")))
	assert.True(t, b.Value.Equal(dec("1250")), "got %s", b.Value)

	assert.True(t, WeightedAverageCost(widget, movements, d3).Equal(wac), "sales never change the average")
	assert.True(t, WeightedAverageCost(widget, movements, d1).Equal(dec("20")), "later purchases are excluded")
}

func TestWeightedAverageCost_Opening(t *testing.T) {
	sl := widget
	sl.OpeningQuantity, sl.OpeningRate = dec("10"), dec("12")
	movements := []model.InventoryMovement{in("m1", model.Day(2025, time.March, 1), "30", "16")}

	wac := WeightedAverageCost(sl, movements, model.Day(2025, time.March, 1))
	assert.True(t, wac.Equal(dec("15")), "(120+480)/40, got %s", wac)

	assert.True(t, WeightedAverageCost(widget, nil, time.Now()).IsZero())
}

func TestWeightedAverageCost_Monotonic(t *testing.T) {
	d := model.Day(2025, time.June, 1)
	movements := []model.InventoryMovement{in("m1", d, "10", "5")}
	prev := WeightedAverageCost(widget, movements, d)

	for i, rate := range []string{"6", "7.5", "100"} {
		movements = append(movements, in("p"+rate, d.AddDate(0, 0, i+1), "10", rate))
		next := WeightedAverageCost(widget, movements, d.AddDate(0, 0, i+1))
		assert.True(t, next.GreaterThanOrEqual(prev), "purchase at or above average must not lower it")
		prev = next
	}
}

func TestWeightedAverageCost_SkipsReversals(t *testing.T) {
	d := model.Day(2025, time.July, 1)
	movements := []model.InventoryMovement{
		in("m1", d, "100", "20"),
		in("m2", d, "100", "80"),
	}
	comp := out("m2r", d, "100", "80")
	comp.ReversalOf = "m2"
	movements = append(movements, comp)

	assert.True(t, WeightedAverageCost(widget, movements, d).Equal(dec("20")))
	assert.True(t, Available(widget, movements).Equal(dec("100")))
}

func TestSubLedgerBalance_Periods(t *testing.T) {
	sl := widget
	sl.OpeningQuantity, sl.OpeningRate = dec("5"), dec("10")
	movements := []model.InventoryMovement{
		in("m1", model.Day(2024, time.December, 1), "10", "10"),
		out("m2", model.Day(2024, time.December, 2), "3", "10"),
		in("m3", model.Day(2025, time.January, 1), "4", "10"),
		out("m4", model.Day(2025, time.January, 31), "2", "10"),
		in("m5", model.Day(2025, time.February, 1), "100", "10"),
		{ID: "other", SubLedgerID: "sl_other", MovementType: model.MovementIn, Quantity: dec("9"), Amount: dec("9"), Date: model.Day(2025, time.January, 2)},
	}

	b := SubLedgerBalance(sl, movements, model.Day(2025, time.January, 1), model.Day(2025, time.January, 31))
	assert.True(t, b.OpeningQuantity.Equal(dec("12")))
	assert.True(t, b.OpeningValue.Equal(dec("120")))
	assert.True(t, b.DebitQuantity.Equal(dec("4")))
	assert.True(t, b.CreditQuantity.Equal(dec("2")))
	assert.True(t, b.Quantity.Equal(dec("14")))
	assert.True(t, b.Value.Equal(dec("140")))

	open := SubLedgerBalance(sl, movements, model.Day(2025, time.January, 1), time.Time{})
	assert.True(t, open.Quantity.Equal(dec("114")))
}

func TestSubLedgerBalance_ClampsAtZero(t *testing.T) {
	movements := []model.InventoryMovement{out("m1", model.Day(2025, time.January, 1), "5", "10")}
	b := SubLedgerBalance(widget, movements, model.Day(2025, time.February, 1), model.Day(2025, time.February, 28))
	assert.True(t, b.OpeningQuantity.IsZero())
	assert.True(t, b.Value.IsZero())
	assert.True(t, Available(widget, movements).IsZero())
}

func TestOutFallsBackToAmount(t *testing.T) {
	m := out("m2", model.Day(2025, time.January, 2), "1", "7")
	m.CosAmount = decimal.NullDecimal{}
	movements := []model.InventoryMovement{in("m1", model.Day(2025, time.January, 1), "2", "7"), m}

	b := SubLedgerBalance(widget, movements, model.Day(2025, time.January, 1), model.Day(2025, time.January, 2))
	assert.True(t, b.CreditAmount.Equal(dec("7")))
}

func TestValidateSalesVoucherInventory(t *testing.T) {
	movements := []model.InventoryMovement{in("m1", model.Day(2025, time.January, 1), "50", "10")}
	items := []model.ItemLine{{SubLedgerID: widget.ID, Quantity: dec("60"), Rate: dec("40")}}

	err := ValidateSalesVoucherInventory(items, model.Day(2025, time.January, 2), []model.InventorySubLedger{widget}, movements)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInsufficientStock))

	var ve *model.ValidationError
	require.True(t, errors.As(err, &ve))
	require.Len(t, ve.Messages, 1)
	assert.Contains(t, ve.Messages[0], "available=50, requested=60")

	items[0].Quantity = dec("50")
	assert.NoError(t, ValidateSalesVoucherInventory(items, model.Day(2025, time.January, 2), []model.InventorySubLedger{widget}, movements))
}

func TestShortfalls_CollectsAll(t *testing.T) {
	gadget := model.InventorySubLedger{ID: "sl_gadget", ItemName: "Gadget", OpeningQuantity: dec("1")}
	items := []model.ItemLine{
		{SubLedgerID: widget.ID, Quantity: dec("1")},
		{SubLedgerID: gadget.ID, Quantity: dec("1")},
		{SubLedgerID: gadget.ID, Quantity: dec("1")},
		{SubLedgerID: "sl_ghost", Quantity: dec("1")},
	}

	short := Shortfalls(items, model.Day(2025, time.January, 2), []model.InventorySubLedger{widget, gadget}, nil)
	require.Len(t, short, 3)
	assert.Equal(t, widget.ID, short[0].SubLedgerID)
	assert.True(t, short[1].Requested.Equal(dec("2")), "lines for one item are summed")
	assert.Equal(t, "unknown item", short[2].ItemName)
}

func TestAvailableOn(t *testing.T) {
	movements := []model.InventoryMovement{
		in("m1", model.Day(2025, time.January, 10), "100", "1"),
		out("m2", model.Day(2025, time.January, 20), "80", "1"),
		in("m3", model.Day(2025, time.January, 25), "5", "1"),
	}
	tests := []struct {
		name string
		date time.Time
		want string
	}{
		{"before any stock", model.Day(2025, time.January, 1), "0"},
		{"on the purchase day", model.Day(2025, time.January, 10), "20"},
		{"between purchase and sale", model.Day(2025, time.January, 15), "20"},
		{"after the sale", model.Day(2025, time.January, 21), "20"},
		{"after everything", model.Day(2025, time.February, 1), "25"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, AvailableOn(widget, movements, tt.date).Equal(dec(tt.want)))
		})
	}
	assert.True(t, Available(widget, movements).Equal(dec("25")))
}

func TestValidateStock(t *testing.T) {
	movements := []model.InventoryMovement{
		out("m1", model.Day(2025, time.January, 1), "3", "1"),
		in("m2", model.Day(2025, time.January, 2), "5", "1"),
	}
	err := ValidateStock([]model.InventorySubLedger{widget}, movements)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInsufficientStock))
	assert.Contains(t, err.Error(), "-3 units at 2025-01-01")

	assert.NoError(t, ValidateStock([]model.InventorySubLedger{widget}, movements[1:]))
	assert.NoError(t, ValidateStock(nil, movements))
}

func TestValidateNegativeInventory(t *testing.T) {
	movements := []model.InventoryMovement{
		out("m2", model.Day(2025, time.January, 2), "8", "1"),
		in("m1", model.Day(2025, time.January, 1), "5", "1"),
		in("m3", model.Day(2025, time.January, 3), "10", "1"),
	}

	warnings := ValidateNegativeInventory([]model.InventorySubLedger{widget}, movements)
	require.Len(t, warnings, 1)
	assert.Equal(t, model.WarnNegativeInventory, warnings[0].Kind)
	assert.Contains(t, warnings[0].Message, "-3 units at 2025-01-02")

	assert.Empty(t, ValidateNegativeInventory([]model.InventorySubLedger{widget}, movements[1:]))
}

func TestValidateInventoryGLSync(t *testing.T) {
	start, end := model.Day(2025, time.January, 1), model.Day(2025, time.December, 31)
	movements := []model.InventoryMovement{in("m1", start, "10", "20")}
	balances := []model.AccountWithTotals{
		{Account: model.Account{ID: "acc_30001", Name: "Finished Goods", Balance: dec("200")}},
	}

	assert.Empty(t, ValidateInventoryGLSync([]model.InventorySubLedger{widget}, movements, balances, start, end))

	balances[0].Balance = dec("150")
	got := ValidateInventoryGLSync([]model.InventorySubLedger{widget}, movements, balances, start, end)
	require.Len(t, got, 1)
	assert.True(t, got[0].Difference().Equal(dec("50")))
	assert.Contains(t, got[0].Warning().Message, "Finished Goods")

	got = ValidateInventoryGLSync([]model.InventorySubLedger{widget}, movements, nil, start, end)
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Warning().Message, "not found")
}

func TestValidateSubLedger(t *testing.T) {
	assert.NoError(t, ValidateSubLedger(widget))

	bad := widget
	bad.ItemName = " "
	assert.ErrorIs(t, ValidateSubLedger(bad), model.ErrInvalidLine)

	bad = widget
	bad.InventoryGLAccountID = ""
	assert.ErrorIs(t, ValidateSubLedger(bad), model.ErrMissingAccount)

	bad = widget
	bad.OpeningRate = dec("-1")
	assert.ErrorContains(t, ValidateSubLedger(bad), "rate cannot be negative")
}

func TestItemReportAndTrail(t *testing.T) {
	d := model.Day(2025, time.January, 1)
	apple := model.InventorySubLedger{ID: "sl_apple", InventoryGLAccountID: widget.InventoryGLAccountID, ItemName: "Apple"}
	movements := []model.InventoryMovement{
		in("m2", d.AddDate(0, 0, 1), "2", "30"),
		in("m1", d, "2", "10"),
	}
	txs := []model.Transaction{{ID: "v_m1", VoucherNo: "PU-0001", VoucherType: model.VoucherPurchase}}

	report := ItemReport([]model.InventorySubLedger{widget, apple}, movements, d, time.Time{})
	require.Len(t, report, 2)
	assert.Equal(t, "Apple", report[0].SubLedger.ItemName)
	assert.True(t, report[1].AverageCost.Equal(dec("20")))
	assert.True(t, TotalValue([]model.InventorySubLedger{widget, apple}, movements, d, time.Time{}).Equal(dec("80")))

	trail := AuditTrail(widget.ID, movements, txs)
	require.Len(t, trail, 2)
	assert.Equal(t, "PU-0001", trail[0].VoucherNo)
	assert.Equal(t, "N/A", trail[1].VoucherNo)
}
