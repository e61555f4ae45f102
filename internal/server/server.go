// Package server exposes the books as a read-only JSON API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/hisabpati/hisab/internal/books"
	"github.com/hisabpati/hisab/internal/reports"
)

// Options configures a Server.
type Options struct {
	Addr           string
	Owner          string
	RequestsPerMin int // 0 disables rate limiting
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

type Server struct {
	books   *books.Service
	reports *reports.Generator
	logger  *slog.Logger
	router  chi.Router
	opts    Options
	now     func() time.Time
}

func New(svc *books.Service, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if opts.RequestsPerMin > 0 {
		r.Use(httprate.Limit(opts.RequestsPerMin, time.Minute, httprate.WithKeyFuncs(clientKey)))
	}

	s := &Server{
		books:   svc,
		reports: reports.NewGenerator(logger),
		logger:  logger,
		router:  r,
		opts:    opts,
		now:     time.Now,
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/api/v1/companies/{company}", func(r chi.Router) {
		r.Get("/accounts", s.accounts)
		r.Get("/transactions", s.transactions)
		r.Get("/items", s.items)
		r.Get("/items/{item}/trail", s.itemTrail)

		r.Get("/reports/income-statement", s.incomeStatement)
		r.Get("/reports/balance-sheet", s.balanceSheet)
		r.Get("/reports/cash-flow", s.cashFlow)
		r.Get("/reports/summary", s.summary)
		r.Get("/reports/inventory", s.inventory)
		r.Get("/reports/daily-activity", s.dailyActivity)

		r.Get("/audit", s.audit)
	})
	return s
}

func clientKey(r *http.Request) (string, error) {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "ip:" + r.RemoteAddr, nil
	}
	return "ip:" + host, nil
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.router,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("report API listening", "addr", s.opts.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
