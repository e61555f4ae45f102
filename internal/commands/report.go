package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hisabpati/hisab/internal/accounts"
	"github.com/hisabpati/hisab/internal/activity"
	"github.com/hisabpati/hisab/internal/audit"
	"github.com/hisabpati/hisab/internal/journal"
	"github.com/hisabpati/hisab/internal/ledger"
	"github.com/hisabpati/hisab/internal/reports"
)

func newReportCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Financial statements",
	}
	cmd.AddCommand(
		newStatementCommand(opts, "income", "Income statement", func(g *reports.Generator, r *reports.Renderer, res ledger.Result, w io.Writer, asJSON bool) error {
			is := g.IncomeStatement(res.Accounts)
			if asJSON {
				return writeJSON(w, is)
			}
			r.IncomeStatement(w, is)
			return nil
		}),
		newStatementCommand(opts, "balance-sheet", "Balance sheet", func(g *reports.Generator, r *reports.Renderer, res ledger.Result, w io.Writer, asJSON bool) error {
			bs := g.BalanceSheet(res.Accounts)
			if asJSON {
				return writeJSON(w, bs)
			}
			r.BalanceSheet(w, bs)
			return nil
		}),
		newStatementCommand(opts, "cash-flow", "Cash flow statement", func(g *reports.Generator, r *reports.Renderer, res ledger.Result, w io.Writer, asJSON bool) error {
			cf := g.CashFlow(res.Accounts)
			if asJSON {
				return writeJSON(w, cf)
			}
			r.CashFlow(w, cf)
			return nil
		}),
		newStatementCommand(opts, "summary", "Dashboard summary", func(g *reports.Generator, r *reports.Renderer, res ledger.Result, w io.Writer, asJSON bool) error {
			s := g.Summary(res.Accounts)
			if asJSON {
				return writeJSON(w, s)
			}
			r.Summary(w, s)
			return nil
		}),
		newDailyActivityCommand(opts),
	)
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type statementFunc func(*reports.Generator, *reports.Renderer, ledger.Result, io.Writer, bool) error

func newStatementCommand(opts *rootOptions, use, short string, build statementFunc) *cobra.Command {
	var period periodFlags
	var asJSON bool
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			snap, err := a.books.Load(cmd.Context(), a.company)
			if err != nil {
				return err
			}
			start, end, err := period.resolve(snap.Company, time.Now())
			if err != nil {
				return err
			}
			res, err := a.books.Balances(cmd.Context(), a.company, start, end)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if !asJSON {
				fmt.Fprintf(w, "%s\n%s to %s\n\n", snap.Company.Name, start.Format(time.DateOnly), end.Format(time.DateOnly))
			}
			return build(reports.NewGenerator(a.log), reports.NewRenderer(a.cfg.Report.Locale), res, w, asJSON)
		},
	}
	period.bind(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newDailyActivityCommand(opts *rootOptions) *cobra.Command {
	var days int
	var asOf string
	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Income and expense per day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			vf := voucherFlags{date: asOf}
			end, err := vf.day()
			if err != nil {
				return err
			}
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			snap, err := a.books.Load(cmd.Context(), a.company)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "DATE\tINCOME\tEXPENSE\t")
			for _, d := range ledger.DailyActivity(snap.Ledger.Accounts, snap.Ledger.Transactions, end, days) {
				fmt.Fprintf(tw, "%s\t%s\t%s\t\n", d.Date.Format(time.DateOnly), d.Income.StringFixed(2), d.Expense.StringFixed(2))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "number of days")
	cmd.Flags().StringVar(&asOf, "date", "", "last day (YYYY-MM-DD), default today")
	return cmd
}

func newAuditCommand(opts *rootOptions) *cobra.Command {
	var period periodFlags
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Check the books for integrity problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			snap, err := a.books.Load(cmd.Context(), a.company)
			if err != nil {
				return err
			}
			start, end, err := period.resolve(snap.Company, time.Now())
			if err != nil {
				return err
			}

			rep := audit.Run(snap.Ledger, start, end, a.log)
			w := cmd.OutOrStdout()
			if rep.OK() {
				fmt.Fprintln(w, "No problems found")
				return nil
			}
			for _, f := range rep.Findings {
				fmt.Fprintln(w, f)
			}
			return fmt.Errorf("%d problems found", len(rep.Findings))
		},
	}
	period.bind(cmd)
	return cmd
}

func newJournalCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Journal export",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "export [file]",
		Short: "Write every journal line as CSV",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			snap, err := a.books.Load(cmd.Context(), a.company)
			if err != nil {
				return err
			}
			return withOutput(cmd, args, func(w io.Writer) error {
				return journal.WriteRows(w, journal.Rows(snap.Ledger.Transactions, accounts.NewService(snap.Ledger.Accounts)))
			})
		},
	})
	return cmd
}

func newActivityCommand(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show recent changes to the books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.activity.Read()
			if err != nil {
				return err
			}
			entries = activity.ForCompany(entries, a.company.ID)
			if limit > 0 && len(entries) > limit {
				entries = entries[len(entries)-limit:]
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tACTOR\tACTION\tVOUCHER\tDETAILS")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.Timestamp.Format(time.RFC3339), e.Actor, e.Action, e.VoucherNo,
					strings.ReplaceAll(e.Details, "\n", " "))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "show at most this many entries, 0 for all")
	return cmd
}

// withOutput runs fn against the file named by args[0], or stdout.
func withOutput(cmd *cobra.Command, args []string, fn func(io.Writer) error) error {
	if len(args) == 0 || args[0] == "-" {
		return fn(cmd.OutOrStdout())
	}
	f, err := os.Create(args[0])
	if err != nil {
		return fmt.Errorf("creating %s: %w", args[0], err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
