package reports

import (
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/hisabpati/hisab/internal/model"
)

const ruleWidth = 58

// Renderer writes statements as fixed-width text with locale-grouped amounts.
type Renderer struct {
	p     *message.Printer
	group string
	point string
}

// NewRenderer creates a Renderer for the given BCP 47 locale. An unparseable
// tag falls back to English.
func NewRenderer(locale string) *Renderer {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	p := message.NewPrinter(tag)
	group, point := separators(p)
	return &Renderer{p: p, group: group, point: point}
}

// separators reads the locale's grouping and decimal marks off a sample.
func separators(p *message.Printer) (group, point string) {
	s := p.Sprintf("%.2f", 1234.5)
	i := strings.Index(s, "234")
	if i < 1 || !strings.HasPrefix(s, "1") || !strings.HasSuffix(s, "50") || i+3 > len(s)-2 {
		return ",", "."
	}
	return s[1:i], s[i+3 : len(s)-2]
}

// amount formats d to two places with the locale's marks. The digits are
// taken from the decimal's string form, never a float.
func (r *Renderer) amount(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		sign, s = "-", rest
	}
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	b.WriteString(sign)
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteString(r.group)
		}
		b.WriteRune(c)
	}
	b.WriteString(r.point)
	b.WriteString(frac)
	return b.String()
}

func (r *Renderer) heading(w io.Writer, title string) {
	r.p.Fprintf(w, "%s\n%s\n", title, strings.Repeat("=", ruleWidth))
}

func (r *Renderer) row(w io.Writer, label string, amount decimal.Decimal) {
	r.p.Fprintf(w, "  %-38s %16s\n", label, r.amount(amount))
}

func (r *Renderer) total(w io.Writer, label string, amount decimal.Decimal) {
	r.p.Fprintf(w, "  %s\n", strings.Repeat("-", ruleWidth-2))
	r.p.Fprintf(w, "  %-38s %16s\n\n", label, r.amount(amount))
}

func (r *Renderer) lines(w io.Writer, lines []Line) {
	for _, l := range lines {
		r.row(w, l.Name, l.DisplayAmount)
	}
}

func (r *Renderer) flows(w io.Writer, lines []FlowLine) {
	for _, l := range lines {
		r.row(w, l.Name, l.Change)
	}
}

func (r *Renderer) warnings(w io.Writer, ws []model.IntegrityWarning) {
	for _, x := range ws {
		r.p.Fprintf(w, "WARNING %s\n", x)
	}
}

// IncomeStatement writes is to w.
func (r *Renderer) IncomeStatement(w io.Writer, is IncomeStatement) {
	r.heading(w, "Income Statement")
	r.p.Fprintln(w, "Income")
	r.lines(w, is.Income)
	r.total(w, "Total income", is.TotalIncome)
	r.p.Fprintln(w, "Expenses")
	r.lines(w, is.Expenses)
	r.total(w, "Total expenses", is.TotalExpense)
	r.row(w, "Net profit", is.NetProfit)
	r.warnings(w, is.Warnings)
}

// BalanceSheet writes bs to w.
func (r *Renderer) BalanceSheet(w io.Writer, bs BalanceSheet) {
	r.heading(w, "Balance Sheet")
	r.p.Fprintln(w, "Assets")
	r.lines(w, bs.Assets)
	r.total(w, "Total assets", bs.TotalAssets)
	r.p.Fprintln(w, "Liabilities")
	r.lines(w, bs.Liabilities)
	r.total(w, "Total liabilities", bs.TotalLiabilities)
	r.p.Fprintln(w, "Equity")
	r.lines(w, bs.Equity)
	r.total(w, "Total equity", bs.TotalEquity)
	r.warnings(w, bs.Warnings)
}

// CashFlow writes cf to w.
func (r *Renderer) CashFlow(w io.Writer, cf CashFlow) {
	r.heading(w, "Cash Flow Statement")
	r.p.Fprintln(w, "Operating activities")
	r.row(w, "Net profit", cf.NetProfit)
	r.flows(w, cf.Operating)
	r.total(w, "Net cash from operating activities", cf.NetOperating)
	r.p.Fprintln(w, "Investing activities")
	r.flows(w, cf.Investing)
	r.total(w, "Net cash from investing activities", cf.NetInvesting)
	r.p.Fprintln(w, "Financing activities")
	r.flows(w, cf.Financing)
	r.total(w, "Net cash from financing activities", cf.NetFinancing)
	r.row(w, "Net change in cash", cf.NetChange)
	r.row(w, "Opening cash", cf.OpeningCash)
	r.row(w, "Closing cash", cf.ClosingCash)
	r.warnings(w, cf.Warnings)
}

// Summary writes s to w.
func (r *Renderer) Summary(w io.Writer, s Summary) {
	r.heading(w, "Financial Summary")
	r.row(w, "Cash", s.Cash)
	r.row(w, "Receivables", s.Receivables)
	r.row(w, "Payables", s.Payables)
	r.row(w, "Revenue", s.Revenue)
	r.row(w, "Purchases", s.Purchases)
	r.row(w, "Total assets", s.TotalAssets)
	r.row(w, "Total liabilities", s.TotalLiabilities)
	r.row(w, "Total equity", s.TotalEquity)
	r.row(w, "Net income", s.NetIncome)
	r.warnings(w, s.Warnings)
}
