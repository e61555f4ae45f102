// Package audit runs every integrity check over a ledger and collects the
// findings into one report.
package audit

import (
	"log/slog"
	"time"

	"github.com/hisabpati/hisab/internal/accounts"
	"github.com/hisabpati/hisab/internal/inventory"
	"github.com/hisabpati/hisab/internal/journal"
	"github.com/hisabpati/hisab/internal/ledger"
	"github.com/hisabpati/hisab/internal/model"
	"github.com/hisabpati/hisab/internal/reports"
)

// Report is the outcome of Run.
type Report struct {
	Start    time.Time                `json:"start"`
	End      time.Time                `json:"end"`
	Findings []model.IntegrityWarning `json:"findings"`
}

// OK reports whether no check produced a finding.
func (r Report) OK() bool {
	return len(r.Findings) == 0
}

// Count returns the number of findings of each kind.
func (r Report) Count() map[model.WarningKind]int {
	out := map[model.WarningKind]int{}
	for _, f := range r.Findings {
		out[f.Kind]++
	}
	return out
}

// Run checks the chart hierarchy, every voucher's journal, the balance
// engine's warnings, inventory history and GL sync, and the statement
// invariants for start..end. Nothing is corrected.
func Run(l *model.Ledger, start, end time.Time, logger *slog.Logger) Report {
	r := Report{Start: start, End: end}
	add := func(kind model.WarningKind, msg string) {
		r.Findings = append(r.Findings, model.IntegrityWarning{Kind: kind, Message: msg})
	}

	chart := accounts.NewService(l.Accounts)
	for _, err := range chart.ValidateHierarchy() {
		add(model.WarnHierarchy, err.Error())
	}
	for _, err := range journal.ValidateLedger(l.Transactions, chart) {
		add(model.WarnUnbalancedJournal, err.Error())
	}

	res := ledger.ComputeBalances(l.Accounts, l.Transactions, start, end)
	r.Findings = append(r.Findings, res.Warnings...)

	r.Findings = append(r.Findings, inventory.ValidateNegativeInventory(l.SubLedgers, l.Movements)...)
	for _, m := range inventory.ValidateInventoryGLSync(l.SubLedgers, l.Movements, res.Accounts, start, end) {
		r.Findings = append(r.Findings, m.Warning())
	}

	g := reports.NewGenerator(logger)
	r.Findings = append(r.Findings, g.IncomeStatement(res.Accounts).Warnings...)
	r.Findings = append(r.Findings, g.BalanceSheet(res.Accounts).Warnings...)
	r.Findings = append(r.Findings, g.CashFlow(res.Accounts).Warnings...)
	return r
}
