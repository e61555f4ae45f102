package model

import "time"

// CompanyMeta describes the company a ledger belongs to.
type CompanyMeta struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Owner           string    `json:"owner"`
	FiscalYearStart time.Time `json:"fiscalYearStart"`
	CreatedAt       time.Time `json:"createdAt"`
}

// FiscalYear returns the fiscal year containing asOf, as an inclusive
// start..end pair.
func (c CompanyMeta) FiscalYear(asOf time.Time) (start, end time.Time) {
	asOf = TruncateDay(asOf)
	month, day := time.January, 1
	if !c.FiscalYearStart.IsZero() {
		month, day = c.FiscalYearStart.Month(), c.FiscalYearStart.Day()
	}
	start = Day(asOf.Year(), month, day)
	if start.After(asOf) {
		start = start.AddDate(-1, 0, 0)
	}
	return start, start.AddDate(1, 0, -1)
}
