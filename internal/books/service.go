// Package books is the posting service: it loads a company's ledger from the
// store, runs the pure engine over it and saves the result atomically.
package books

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hisabpati/hisab/internal/accounts"
	"github.com/hisabpati/hisab/internal/activity"
	"github.com/hisabpati/hisab/internal/inventory"
	"github.com/hisabpati/hisab/internal/journal"
	"github.com/hisabpati/hisab/internal/ledger"
	"github.com/hisabpati/hisab/internal/model"
	"github.com/hisabpati/hisab/internal/store"
	"github.com/hisabpati/hisab/internal/voucher"
)

// ErrAlreadyInitialized is returned by Init for a company that has a chart.
var ErrAlreadyInitialized = errors.New("company books already initialized")

// ErrNotInitialized is returned when a company has no chart of accounts.
var ErrNotInitialized = errors.New("company books not initialized")

// Company addresses one company's books.
type Company struct {
	Owner string // user id
	ID    string
}

func (c Company) key() string { return store.OwnerKey(c.Owner, c.ID) }

// Receipt is the outcome of a write.
type Receipt struct {
	Postings []voucher.Posting        `json:"postings"`
	Version  int64                    `json:"version"`
	Warnings []model.IntegrityWarning `json:"warnings,omitempty"`
}

// Service posts vouchers and maintains the chart and items.
type Service struct {
	store    *store.Store
	gen      *voucher.Generator
	log      *slog.Logger
	activity *activity.Log
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithGenerator replaces the default voucher generator.
func WithGenerator(g *voucher.Generator) Option {
	return func(s *Service) { s.gen = g }
}

// WithActivityLog records every write in l.
func WithActivityLog(l *activity.Log) Option {
	return func(s *Service) { s.activity = l }
}

// WithClock replaces time.Now.
func WithClock(fn func() time.Time) Option {
	return func(s *Service) { s.now = fn }
}

// NewService creates a Service over st. A nil logger discards output.
func NewService(st *store.Store, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Service{store: st, gen: voucher.NewGenerator(), log: logger, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Init seeds a company with the default chart of accounts.
func (s *Service) Init(ctx context.Context, c Company, meta model.CompanyMeta) (Receipt, error) {
	snap, err := s.store.LoadLedger(ctx, c.key())
	if err != nil {
		return Receipt{}, fmt.Errorf("loading books: %w", err)
	}
	if len(snap.Ledger.Accounts) > 0 {
		return Receipt{}, fmt.Errorf("company %s: %w", c.ID, ErrAlreadyInitialized)
	}

	meta.ID, meta.Owner = c.ID, c.Owner
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = s.now().UTC()
	}
	l := &model.Ledger{Accounts: accounts.DefaultChart()}
	version, err := s.store.Apply(ctx, c.key(), snap.Version, store.LedgerOps(l, meta))
	if err != nil {
		return Receipt{}, fmt.Errorf("saving chart: %w", err)
	}

	s.log.Info("initialized company", "company", c.ID, "accounts", len(l.Accounts))
	s.record(c, activity.Entry{Action: activity.ActionInit, RecordID: c.ID, Details: meta.Name})
	return Receipt{Version: version}, nil
}

// Load returns the company's current snapshot.
func (s *Service) Load(ctx context.Context, c Company) (store.Snapshot, error) {
	snap, err := s.store.LoadLedger(ctx, c.key())
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("loading books: %w", err)
	}
	if len(snap.Ledger.Accounts) == 0 {
		return store.Snapshot{}, fmt.Errorf("company %s: %w", c.ID, ErrNotInitialized)
	}
	return snap, nil
}

// Balances computes every account's balance for start..end and logs the
// engine's warnings.
func (s *Service) Balances(ctx context.Context, c Company, start, end time.Time) (ledger.Result, error) {
	snap, err := s.Load(ctx, c)
	if err != nil {
		return ledger.Result{}, err
	}
	res := ledger.ComputeBalances(snap.Ledger.Accounts, snap.Ledger.Transactions, start, end)
	s.logWarnings(c, res.Warnings)
	return res, nil
}

// PostJournal posts a RECEIPT, PAYMENT or JOURNAL voucher.
func (s *Service) PostJournal(ctx context.Context, c Company, req voucher.JournalRequest) (Receipt, error) {
	return s.post(ctx, c, func(l *model.Ledger) (voucher.Posting, error) {
		return s.gen.CreateJournalVoucher(req, l)
	})
}

// PostSale posts a SALES voucher with its COGS entries.
func (s *Service) PostSale(ctx context.Context, c Company, req voucher.SalesRequest) (Receipt, error) {
	return s.post(ctx, c, func(l *model.Ledger) (voucher.Posting, error) {
		return s.gen.CreateSalesVoucher(req, l)
	})
}

// PostPurchase posts a PURCHASE voucher.
func (s *Service) PostPurchase(ctx context.Context, c Company, req voucher.PurchaseRequest) (Receipt, error) {
	return s.post(ctx, c, func(l *model.Ledger) (voucher.Posting, error) {
		return s.gen.CreatePurchaseVoucher(req, l)
	})
}

// Void reverses a transaction.
func (s *Service) Void(ctx context.Context, c Company, txID string) (Receipt, error) {
	return s.post(ctx, c, func(l *model.Ledger) (voucher.Posting, error) {
		return s.gen.Reverse(txID, l)
	})
}

// EditJournal replaces a RECEIPT, PAYMENT or JOURNAL voucher: the original
// is reversed and req is posted under the original's voucher number, both in
// one write.
func (s *Service) EditJournal(ctx context.Context, c Company, txID string, req voucher.JournalRequest) (Receipt, error) {
	return s.edit(ctx, c, txID, func(orig model.Transaction, l *model.Ledger) (voucher.Posting, error) {
		req.VoucherNo = orig.VoucherNo
		if req.VoucherType == "" {
			req.VoucherType = orig.VoucherType
		}
		return s.gen.CreateJournalVoucher(req, l)
	})
}

// EditSale replaces a SALES voucher. Stock released by reversing the
// original is available to the replacement.
func (s *Service) EditSale(ctx context.Context, c Company, txID string, req voucher.SalesRequest) (Receipt, error) {
	return s.edit(ctx, c, txID, func(orig model.Transaction, l *model.Ledger) (voucher.Posting, error) {
		if orig.VoucherType != model.VoucherSales {
			return voucher.Posting{}, model.NewValidationError(model.ErrInvalidLine,
				fmt.Sprintf("voucher %s is %s, not SALES", orig.VoucherNo, orig.VoucherType))
		}
		req.VoucherNo = orig.VoucherNo
		return s.gen.CreateSalesVoucher(req, l)
	})
}

// EditPurchase replaces a PURCHASE voucher.
func (s *Service) EditPurchase(ctx context.Context, c Company, txID string, req voucher.PurchaseRequest) (Receipt, error) {
	return s.edit(ctx, c, txID, func(orig model.Transaction, l *model.Ledger) (voucher.Posting, error) {
		if orig.VoucherType != model.VoucherPurchase {
			return voucher.Posting{}, model.NewValidationError(model.ErrInvalidLine,
				fmt.Sprintf("voucher %s is %s, not PURCHASE", orig.VoucherNo, orig.VoucherType))
		}
		req.VoucherNo = orig.VoucherNo
		return s.gen.CreatePurchaseVoucher(req, l)
	})
}

func (s *Service) post(ctx context.Context, c Company, build func(*model.Ledger) (voucher.Posting, error)) (Receipt, error) {
	snap, err := s.Load(ctx, c)
	if err != nil {
		return Receipt{}, err
	}
	p, err := build(snap.Ledger)
	if err != nil {
		return Receipt{}, err
	}
	return s.commit(ctx, c, snap, p)
}

func (s *Service) edit(ctx context.Context, c Company, txID string, build func(model.Transaction, *model.Ledger) (voucher.Posting, error)) (Receipt, error) {
	snap, err := s.Load(ctx, c)
	if err != nil {
		return Receipt{}, err
	}
	orig, ok := snap.Ledger.Transaction(txID)
	if !ok {
		return Receipt{}, fmt.Errorf("%w: %s", model.ErrTransactionNotFound, txID)
	}

	rev, err := s.gen.Supersede(txID, snap.Ledger)
	if err != nil {
		return Receipt{}, err
	}
	reversed := voucher.Apply(snap.Ledger, rev)
	repost, err := build(orig, reversed)
	if err != nil {
		return Receipt{}, fmt.Errorf("editing %s: %w", orig.VoucherNo, err)
	}

	final := voucher.Apply(reversed, repost)
	if err := inventory.ValidateStock(touched(final.SubLedgers, rev, repost), final.Movements); err != nil {
		return Receipt{}, fmt.Errorf("editing %s: %w", orig.VoucherNo, err)
	}
	return s.commit(ctx, c, snap, rev, repost)
}

// touched returns the sub-ledgers that the postings move stock for.
func touched(subLedgers []model.InventorySubLedger, postings ...voucher.Posting) []model.InventorySubLedger {
	ids := map[string]bool{}
	for _, p := range postings {
		for _, m := range p.Movements {
			ids[m.SubLedgerID] = true
		}
	}
	var out []model.InventorySubLedger
	for _, sl := range subLedgers {
		if ids[sl.ID] {
			out = append(out, sl)
		}
	}
	return out
}

// commit saves postings in one store transaction guarded by the snapshot's
// version, then runs the advisory checks over the result.
func (s *Service) commit(ctx context.Context, c Company, snap store.Snapshot, postings ...voucher.Posting) (Receipt, error) {
	var ops []store.Op
	next := snap.Ledger
	for _, p := range postings {
		ops = append(ops, store.Op{Store: store.Transactions, ID: p.Transaction.ID, Value: p.Transaction})
		for _, m := range p.Movements {
			ops = append(ops, store.Op{Store: store.Movements, ID: m.ID, Value: m})
		}
		next = voucher.Apply(next, p)
	}

	version, err := s.store.Apply(ctx, c.key(), snap.Version, ops)
	if err != nil {
		return Receipt{}, fmt.Errorf("saving postings: %w", err)
	}

	for _, p := range postings {
		tx := p.Transaction
		action := activity.ActionPost
		if tx.IsReversal() {
			action = activity.ActionReverse
		}
		amount := journal.Total(tx.Entries)
		s.log.Info("posted voucher",
			"company", c.ID, "voucher_no", tx.VoucherNo, "type", string(tx.VoucherType),
			"amount", amount.StringFixed(2), "reversal_of", tx.ReversalOf)
		s.record(c, activity.Entry{
			Action:    action,
			RecordID:  tx.ID,
			VoucherNo: tx.VoucherNo,
			Details:   fmt.Sprintf("%s %s", tx.Description, amount.StringFixed(2)),
		})
	}

	r := Receipt{Postings: postings, Version: version, Warnings: s.advise(next)}
	s.logWarnings(c, r.Warnings)
	return r, nil
}

// advise runs the checks that are reported but never block a posting.
func (s *Service) advise(l *model.Ledger) []model.IntegrityWarning {
	var out []model.IntegrityWarning
	res := ledger.ComputeBalances(l.Accounts, l.Transactions, time.Time{}, time.Time{})
	for _, m := range inventory.ValidateInventoryGLSync(l.SubLedgers, l.Movements, res.Accounts, time.Time{}, time.Time{}) {
		out = append(out, m.Warning())
	}
	return append(out, inventory.ValidateNegativeInventory(l.SubLedgers, l.Movements)...)
}

func (s *Service) logWarnings(c Company, ws []model.IntegrityWarning) {
	for _, w := range ws {
		s.log.Warn("integrity warning", "company", c.ID, "kind", string(w.Kind), "detail", w.Message)
	}
}

func (s *Service) record(c Company, e activity.Entry) {
	e.Timestamp = s.now()
	e.Company = c.ID
	e.Actor = c.Owner
	if err := s.activity.Append(e); err != nil {
		s.log.Error("writing activity log", "error", err)
	}
}
