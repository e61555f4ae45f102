// Package voucher turns voucher requests into balanced postings: a
// transaction together with the inventory movements it causes. Nothing here
// touches storage; the caller persists a Posting as a unit.
package voucher

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hisabpati/hisab/internal/accounts"
	"github.com/hisabpati/hisab/internal/id"
	"github.com/hisabpati/hisab/internal/inventory"
	"github.com/hisabpati/hisab/internal/journal"
	"github.com/hisabpati/hisab/internal/model"
)

// Posting is a transaction and the inventory movements it causes.
type Posting struct {
	Transaction model.Transaction         `json:"transaction"`
	Movements   []model.InventoryMovement `json:"movements,omitempty"`
}

// Generator builds postings. It is stateless apart from its id source and
// clock.
type Generator struct {
	newID func(prefix string) string
	now   func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithIDFunc replaces the random id source.
func WithIDFunc(fn func(prefix string) string) Option {
	return func(g *Generator) { g.newID = fn }
}

// WithClock replaces time.Now for CreatedAt stamps.
func WithClock(fn func() time.Time) Option {
	return func(g *Generator) { g.now = fn }
}

// NewGenerator creates a Generator.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{newID: id.New, now: time.Now}
	for _, o := range opts {
		o(g)
	}
	return g
}

// ItemRequest is one stocked line of a sales or purchase voucher. Rate is
// the sale price on a sale and the unit cost on a purchase.
type ItemRequest struct {
	SubLedgerID string          `json:"subLedgerId"`
	Quantity    decimal.Decimal `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
}

// SalesRequest describes a sales voucher.
type SalesRequest struct {
	VoucherNo           string        `json:"voucherNo,omitempty"`
	Date                time.Time     `json:"date"`
	Description         string        `json:"description,omitempty"`
	ReceivableAccountID string        `json:"receivableAccountId"`
	RevenueAccountID    string        `json:"revenueAccountId,omitempty"`
	Items               []ItemRequest `json:"items"`
}

// PurchaseRequest describes a purchase voucher.
type PurchaseRequest struct {
	VoucherNo        string        `json:"voucherNo,omitempty"`
	Date             time.Time     `json:"date"`
	Description      string        `json:"description,omitempty"`
	PayableAccountID string        `json:"payableAccountId"`
	Items            []ItemRequest `json:"items"`
}

// JournalRequest describes a RECEIPT, PAYMENT or JOURNAL voucher.
type JournalRequest struct {
	VoucherType model.VoucherType    `json:"voucherType"`
	VoucherNo   string               `json:"voucherNo,omitempty"`
	Date        time.Time            `json:"date"`
	Description string               `json:"description,omitempty"`
	Reference   string               `json:"reference,omitempty"`
	Entries     []model.JournalEntry `json:"entries"`
}

// CreateSalesVoucher builds a sales posting against l.
//
// The receivable is debited and revenue credited with the sale amount. Each
// item is costed at its weighted-average cost on the voucher date, and per
// inventory GL the cost is debited to the paired COGS GL and credited to the
// inventory GL. One OUT movement per item records the cost. Stock shortfalls
// are all reported together and nothing is produced.
func (g *Generator) CreateSalesVoucher(req SalesRequest, l *model.Ledger) (Posting, error) {
	chart := accounts.NewService(l.Accounts)

	lines, err := g.itemLines(req.Date, req.ReceivableAccountID, "receivable", req.Items, l, chart)
	if err != nil {
		return Posting{}, err
	}
	if err := inventory.ValidateSalesVoucherInventory(lines, req.Date, l.SubLedgers, l.Movements); err != nil {
		return Posting{}, err
	}

	revenue, err := g.revenueAccount(req.RevenueAccountID, chart)
	if err != nil {
		return Posting{}, err
	}

	type costGroup struct {
		glID string
		cost decimal.Decimal
	}
	var groups []*costGroup
	byGL := map[string]*costGroup{}
	costRate := make([]decimal.Decimal, len(lines))
	sale, totalCost := decimal.Zero, decimal.Zero

	for i, line := range lines {
		sl, _ := l.SubLedger(line.SubLedgerID)
		avg := inventory.WeightedAverageCost(sl, l.Movements, req.Date)
		costRate[i] = avg
		cost := line.Quantity.Mul(avg)

		grp, ok := byGL[line.InventoryGLAccountID]
		if !ok {
			grp = &costGroup{glID: line.InventoryGLAccountID, cost: decimal.Zero}
			byGL[grp.glID] = grp
			groups = append(groups, grp)
		}
		grp.cost = grp.cost.Add(cost)
		sale = sale.Add(line.Amount())
		totalCost = totalCost.Add(cost)
	}

	entries := []model.JournalEntry{
		debit(req.ReceivableAccountID, sale),
		credit(revenue.ID, sale),
	}
	for _, grp := range groups {
		cogs, err := chart.COGSFor(grp.glID)
		if err != nil {
			return Posting{}, err
		}
		if grp.cost.IsZero() {
			continue
		}
		entries = append(entries, debit(cogs.ID, grp.cost), credit(grp.glID, grp.cost))
	}

	tx := g.transaction(model.VoucherSales, req.VoucherNo, req.Date, req.Description, "Sales Voucher", entries, l)
	tx.Reference = "COGS: " + totalCost.StringFixed(2)
	tx.ItemLines = lines
	if err := checkJournal(tx, chart); err != nil {
		return Posting{}, err
	}

	movements := make([]model.InventoryMovement, len(lines))
	for i, line := range lines {
		cost := line.Quantity.Mul(costRate[i])
		movements[i] = model.InventoryMovement{
			ID:           g.newID(id.PrefixMovement),
			SubLedgerID:  line.SubLedgerID,
			VoucherID:    tx.ID,
			MovementType: model.MovementOut,
			Quantity:     line.Quantity,
			Rate:         costRate[i],
			Amount:       cost,
			CosAmount:    decimal.NewNullDecimal(cost),
			Date:         tx.Date,
			Reference:    tx.VoucherNo,
		}
	}
	return Posting{Transaction: tx, Movements: movements}, nil
}

// CreatePurchaseVoucher builds a purchase posting against l: each inventory
// GL is debited with the cost of its items and the payable credited with
// the total. One IN movement per item records the purchase cost.
func (g *Generator) CreatePurchaseVoucher(req PurchaseRequest, l *model.Ledger) (Posting, error) {
	chart := accounts.NewService(l.Accounts)

	lines, err := g.itemLines(req.Date, req.PayableAccountID, "payable", req.Items, l, chart)
	if err != nil {
		return Posting{}, err
	}

	var order []string
	perGL := map[string]decimal.Decimal{}
	total := decimal.Zero
	for _, line := range lines {
		if _, seen := perGL[line.InventoryGLAccountID]; !seen {
			order = append(order, line.InventoryGLAccountID)
			perGL[line.InventoryGLAccountID] = decimal.Zero
		}
		perGL[line.InventoryGLAccountID] = perGL[line.InventoryGLAccountID].Add(line.Amount())
		total = total.Add(line.Amount())
	}

	var entries []model.JournalEntry
	for _, glID := range order {
		entries = append(entries, debit(glID, perGL[glID]))
	}
	entries = append(entries, credit(req.PayableAccountID, total))

	tx := g.transaction(model.VoucherPurchase, req.VoucherNo, req.Date, req.Description, "Purchase Voucher", entries, l)
	tx.ItemLines = lines
	if err := checkJournal(tx, chart); err != nil {
		return Posting{}, err
	}

	movements := make([]model.InventoryMovement, len(lines))
	for i, line := range lines {
		movements[i] = model.InventoryMovement{
			ID:           g.newID(id.PrefixMovement),
			SubLedgerID:  line.SubLedgerID,
			VoucherID:    tx.ID,
			MovementType: model.MovementIn,
			Quantity:     line.Quantity,
			Rate:         line.Rate,
			Amount:       line.Amount(),
			Date:         tx.Date,
			Reference:    tx.VoucherNo,
		}
	}
	return Posting{Transaction: tx, Movements: movements}, nil
}

// CreateJournalVoucher builds a RECEIPT, PAYMENT or JOURNAL posting from
// free-form entries.
func (g *Generator) CreateJournalVoucher(req JournalRequest, l *model.Ledger) (Posting, error) {
	switch req.VoucherType {
	case model.VoucherReceipt, model.VoucherPayment, model.VoucherJournal:
	case model.VoucherSales, model.VoucherPurchase:
		return Posting{}, model.NewValidationError(model.ErrInvalidLine,
			fmt.Sprintf("%s vouchers must be created with item lines", req.VoucherType))
	default:
		return Posting{}, model.NewValidationError(model.ErrInvalidLine,
			fmt.Sprintf("unknown voucher type %q", req.VoucherType))
	}

	chart := accounts.NewService(l.Accounts)
	entries := make([]model.JournalEntry, len(req.Entries))
	copy(entries, req.Entries)

	tx := g.transaction(req.VoucherType, req.VoucherNo, req.Date, req.Description, "", entries, l)
	tx.Reference = req.Reference
	if err := checkJournal(tx, chart); err != nil {
		return Posting{}, err
	}
	return Posting{Transaction: tx}, nil
}

// itemLines validates the counter account and item requests and resolves
// each item to its sub-ledger. Every problem is collected.
func (g *Generator) itemLines(date time.Time, counterID, counterName string, items []ItemRequest, l *model.Ledger, chart *accounts.Service) ([]model.ItemLine, error) {
	var msgs []string
	sentinel := model.ErrInvalidLine

	if date.IsZero() {
		msgs = append(msgs, "voucher date is required")
	}
	if counterID == "" {
		sentinel = model.ErrMissingAccount
		msgs = append(msgs, fmt.Sprintf("a %s account must be selected", counterName))
	} else if a, ok := chart.Get(counterID); !ok || a.Level != model.LevelGL {
		sentinel = model.ErrMissingAccount
		msgs = append(msgs, fmt.Sprintf("%s account %s is not a GL account", counterName, counterID))
	}
	if len(items) == 0 {
		msgs = append(msgs, "at least one item is required")
	}

	lines := make([]model.ItemLine, 0, len(items))
	for i, it := range items {
		sl, ok := l.SubLedger(it.SubLedgerID)
		if !ok {
			msgs = append(msgs, fmt.Sprintf("item %d: %v: %s", i+1, model.ErrSubLedgerNotFound, it.SubLedgerID))
			continue
		}
		if !it.Quantity.IsPositive() {
			msgs = append(msgs, fmt.Sprintf("item %d (%s): quantity must be positive", i+1, sl.ItemName))
		}
		if !it.Rate.IsPositive() {
			msgs = append(msgs, fmt.Sprintf("item %d (%s): rate must be positive", i+1, sl.ItemName))
		}
		if gl, ok := chart.Get(sl.InventoryGLAccountID); !ok || !gl.IsInventoryGL {
			msgs = append(msgs, fmt.Sprintf("item %d (%s): %s is not an inventory GL", i+1, sl.ItemName, sl.InventoryGLAccountID))
		}
		lines = append(lines, model.ItemLine{
			ID:                   g.newID(id.PrefixItemLine),
			SubLedgerID:          sl.ID,
			InventoryGLAccountID: sl.InventoryGLAccountID,
			ItemName:             sl.ItemName,
			Quantity:             it.Quantity,
			Rate:                 it.Rate,
		})
	}

	if len(msgs) > 0 {
		return nil, model.NewValidationError(sentinel, msgs...)
	}
	return lines, nil
}

func (g *Generator) revenueAccount(requested string, chart *accounts.Service) (model.Account, error) {
	if requested == "" {
		return chart.SalesRevenueGL()
	}
	a, ok := chart.Get(requested)
	if !ok || a.Level != model.LevelGL || a.Type != model.AccountTypeIncome {
		return model.Account{}, &model.ConfigurationError{Err: model.ErrNoRevenueAccount, AccountID: requested}
	}
	return a, nil
}

func (g *Generator) transaction(vt model.VoucherType, voucherNo string, date time.Time, desc, defaultDesc string, entries []model.JournalEntry, l *model.Ledger) model.Transaction {
	if strings.TrimSpace(voucherNo) == "" {
		voucherNo = NextVoucherNo(vt, l.Transactions)
	}
	if strings.TrimSpace(desc) == "" {
		desc = defaultDesc
	}
	return model.Transaction{
		ID:          g.newID(id.PrefixTransaction),
		VoucherNo:   voucherNo,
		VoucherType: vt,
		Date:        model.TruncateDay(date),
		Description: desc,
		Entries:     entries,
		CreatedAt:   g.now().UTC(),
	}
}

// checkJournal is the single balance check every posting passes before it
// is returned.
func checkJournal(tx model.Transaction, chart *accounts.Service) error {
	errs := journal.ValidateTransaction(tx, chart)
	if len(errs) == 0 {
		return nil
	}
	sentinel := model.ErrInvalidLine
	if !journal.ValidateJournal(tx.Entries) {
		sentinel = model.ErrUnbalanced
	}
	return model.NewValidationError(sentinel, journal.Messages(errs)...)
}

func debit(accountID string, amount decimal.Decimal) model.JournalEntry {
	return model.JournalEntry{AccountID: accountID, Debit: amount, Credit: decimal.Zero}
}

func credit(accountID string, amount decimal.Decimal) model.JournalEntry {
	return model.JournalEntry{AccountID: accountID, Debit: decimal.Zero, Credit: amount}
}
