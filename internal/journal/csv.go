package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hisabpati/hisab/internal/model"
)

// Header is the CSV header of a journal export.
const Header = "voucher_no,date,voucher_type,account_code,account_name,description,debit,credit,reference,reversal_of"

const (
	numFields   = 10
	colVoucher  = 0
	colDate     = 1
	colType     = 2
	colCode     = 3
	colAcctName = 4
	colDesc     = 5
	colDebit    = 6
	colCredit   = 7
	colRef      = 8
	colReversal = 9
)

// Row is one journal line of an export, denormalised with its voucher and
// account details.
type Row struct {
	VoucherNo   string
	Date        time.Time
	VoucherType model.VoucherType
	AccountCode string
	AccountName string
	Description string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Reference   string
	ReversalOf  string
}

// Rows flattens transactions into one Row per journal entry. Entries whose
// account is unknown keep the raw account id as their code.
func Rows(transactions []model.Transaction, accounts AccountLookup) []Row {
	var rows []Row
	for _, tx := range transactions {
		reversalOf := ""
		if tx.IsReversal() {
			reversalOf = tx.ReversalOf
		}
		for _, e := range tx.Entries {
			code, name := e.AccountID, ""
			if a, ok := accounts.Get(e.AccountID); ok {
				code, name = a.Code, a.Name
			}
			rows = append(rows, Row{
				VoucherNo:   tx.VoucherNo,
				Date:        tx.Date,
				VoucherType: tx.VoucherType,
				AccountCode: code,
				AccountName: name,
				Description: tx.Description,
				Debit:       e.Debit,
				Credit:      e.Credit,
				Reference:   tx.Reference,
				ReversalOf:  reversalOf,
			})
		}
	}
	return rows
}

// ReadRows reads all rows from a journal export.
func ReadRows(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading journal CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	var rows []Row
	for i, rec := range records[1:] {
		row, err := UnmarshalRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteRows writes rows to w, including the header.
func WriteRows(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, row := range rows {
		if err := cw.Write(MarshalRow(row)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalRow converts a Row to a CSV record.
func MarshalRow(row Row) []string {
	rec := make([]string, numFields)
	rec[colVoucher] = row.VoucherNo
	rec[colDate] = row.Date.Format(time.DateOnly)
	rec[colType] = string(row.VoucherType)
	rec[colCode] = row.AccountCode
	rec[colAcctName] = row.AccountName
	rec[colDesc] = row.Description

	if !row.Debit.IsZero() {
		rec[colDebit] = row.Debit.StringFixed(2)
	}
	if !row.Credit.IsZero() {
		rec[colCredit] = row.Credit.StringFixed(2)
	}

	rec[colRef] = row.Reference
	rec[colReversal] = row.ReversalOf
	return rec
}

// UnmarshalRow converts a CSV record to a Row.
func UnmarshalRow(record []string) (Row, error) {
	if len(record) != numFields {
		return Row{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	date, err := model.ParseDay(record[colDate])
	if err != nil {
		return Row{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}

	debit, credit := decimal.Zero, decimal.Zero
	if record[colDebit] != "" {
		debit, err = decimal.NewFromString(record[colDebit])
		if err != nil {
			return Row{}, fmt.Errorf("parsing debit %q: %w", record[colDebit], err)
		}
	}
	if record[colCredit] != "" {
		credit, err = decimal.NewFromString(record[colCredit])
		if err != nil {
			return Row{}, fmt.Errorf("parsing credit %q: %w", record[colCredit], err)
		}
	}

	return Row{
		VoucherNo:   record[colVoucher],
		Date:        date,
		VoucherType: model.VoucherType(record[colType]),
		AccountCode: record[colCode],
		AccountName: record[colAcctName],
		Description: record[colDesc],
		Debit:       debit,
		Credit:      credit,
		Reference:   record[colRef],
		ReversalOf:  record[colReversal],
	}, nil
}
