package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hisabpati/hisab/internal/audit"
	"github.com/hisabpati/hisab/internal/books"
	"github.com/hisabpati/hisab/internal/inventory"
	"github.com/hisabpati/hisab/internal/ledger"
	"github.com/hisabpati/hisab/internal/model"
	"github.com/hisabpati/hisab/internal/store"
	"github.com/hisabpati/hisab/internal/voucher"
)

var errBadPeriod = errors.New("invalid period")

type period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// envelope wraps every report with the period it covers.
type envelope struct {
	Period period `json:"period"`
	Data   any    `json:"data"`
}

func (s *Server) company(r *http.Request) books.Company {
	return books.Company{Owner: s.opts.Owner, ID: chi.URLParam(r, "company")}
}

// parsePeriod reads start and end (YYYY-MM-DD). Missing bounds default to
// the fiscal year containing today.
func (s *Server) parsePeriod(r *http.Request, meta model.CompanyMeta) (period, error) {
	start, end := meta.FiscalYear(s.now())
	q := r.URL.Query()
	if v := q.Get("start"); v != "" {
		d, err := model.ParseDay(v)
		if err != nil {
			return period{}, fmt.Errorf("%w: start %q", errBadPeriod, v)
		}
		start = d
	}
	if v := q.Get("end"); v != "" {
		d, err := model.ParseDay(v)
		if err != nil {
			return period{}, fmt.Errorf("%w: end %q", errBadPeriod, v)
		}
		end = d
	}
	if end.Before(start) {
		return period{}, fmt.Errorf("%w: end before start", errBadPeriod)
	}
	return period{Start: start, End: end}, nil
}

// serve loads the company, resolves the period and runs build once for all
// identical concurrent requests.
func (s *Server) serve(w http.ResponseWriter, r *http.Request, name string, build func(store.Snapshot, period) (any, error)) {
	c := s.company(r)
	snap, err := s.books.Load(r.Context(), c)
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}
	p, err := s.parsePeriod(r, snap.Company)
	if err != nil {
		writeError(w, mapError(err), err.Error())
		return
	}

	key := fmt.Sprintf("%s|%s|%s|%s|%d", c.ID, name, p.Start.Format(time.DateOnly), p.End.Format(time.DateOnly), snap.Version)
	v, err, shared := coalesce(r.Context(), key, func() (any, error) {
		return build(snap, p)
	})
	if err != nil {
		status := mapError(err)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, err.Error())
		return
	}
	if shared {
		s.logger.Debug("report shared", "key", key)
	}
	writeJSON(w, http.StatusOK, envelope{Period: p, Data: v})
}

func balances(snap store.Snapshot, p period) ledger.Result {
	return ledger.ComputeBalances(snap.Ledger.Accounts, snap.Ledger.Transactions, p.Start, p.End)
}

func (s *Server) accounts(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, "accounts", func(snap store.Snapshot, p period) (any, error) {
		return balances(snap, p), nil
	})
}

func (s *Server) transactions(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, "transactions", func(snap store.Snapshot, p period) (any, error) {
		var in []model.Transaction
		for _, tx := range snap.Ledger.Transactions {
			d := model.TruncateDay(tx.Date)
			if !d.Before(p.Start) && !d.After(p.End) {
				in = append(in, tx)
			}
		}
		return voucher.SortByVoucherNo(in), nil
	})
}

func (s *Server) items(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, "items", func(snap store.Snapshot, _ period) (any, error) {
		return snap.Ledger.SubLedgers, nil
	})
}

func (s *Server) itemTrail(w http.ResponseWriter, r *http.Request) {
	item := chi.URLParam(r, "item")
	s.serve(w, r, "trail-"+item, func(snap store.Snapshot, _ period) (any, error) {
		if _, ok := snap.Ledger.SubLedger(item); !ok {
			return nil, fmt.Errorf("%w: %s", model.ErrSubLedgerNotFound, item)
		}
		return inventory.AuditTrail(item, snap.Ledger.Movements, snap.Ledger.Transactions), nil
	})
}

func (s *Server) incomeStatement(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, "income-statement", func(snap store.Snapshot, p period) (any, error) {
		return s.reports.IncomeStatement(balances(snap, p).Accounts), nil
	})
}

func (s *Server) balanceSheet(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, "balance-sheet", func(snap store.Snapshot, p period) (any, error) {
		return s.reports.BalanceSheet(balances(snap, p).Accounts), nil
	})
}

func (s *Server) cashFlow(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, "cash-flow", func(snap store.Snapshot, p period) (any, error) {
		return s.reports.CashFlow(balances(snap, p).Accounts), nil
	})
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, "summary", func(snap store.Snapshot, p period) (any, error) {
		return s.reports.Summary(balances(snap, p).Accounts), nil
	})
}

func (s *Server) inventory(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, "inventory", func(snap store.Snapshot, p period) (any, error) {
		return inventory.ItemReport(snap.Ledger.SubLedgers, snap.Ledger.Movements, p.Start, p.End), nil
	})
}

func (s *Server) dailyActivity(w http.ResponseWriter, r *http.Request) {
	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 366 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid days %q", v))
			return
		}
		days = n
	}
	s.serve(w, r, "daily-activity-"+strconv.Itoa(days), func(snap store.Snapshot, p period) (any, error) {
		return ledger.DailyActivity(snap.Ledger.Accounts, snap.Ledger.Transactions, p.End, days), nil
	})
}

func (s *Server) audit(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, "audit", func(snap store.Snapshot, p period) (any, error) {
		return audit.Run(snap.Ledger, p.Start, p.End, s.logger), nil
	})
}
