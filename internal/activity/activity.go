// Package activity keeps an append-only CSV log of changes made to the books.
package activity

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Action names a change to the books.
type Action string

const (
	ActionInit          Action = "init"
	ActionPost          Action = "post"
	ActionReverse       Action = "reverse"
	ActionAddAccount    Action = "add_account"
	ActionRenameAccount Action = "rename_account"
	ActionAddItem       Action = "add_item"
	ActionRestore       Action = "restore"
	ActionImportChart   Action = "import_chart"
)

// Entry is one row in the activity log.
type Entry struct {
	Timestamp time.Time
	Company   string
	Actor     string
	Action    Action
	RecordID  string
	VoucherNo string
	Details   string
}

// Header is the CSV header for activity-log.csv.
const Header = "timestamp,company,actor,action,record_id,voucher_no,details"

const (
	numFields    = 7
	logDir       = "logs"
	logName      = "activity-log.csv"
	colTimestamp = 0
	colCompany   = 1
	colActor     = 2
	colAction    = 3
	colRecordID  = 4
	colVoucherNo = 5
	colDetails   = 6
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colCompany] = e.Company
	row[colActor] = e.Actor
	row[colAction] = string(e.Action)
	row[colRecordID] = e.RecordID
	row[colVoucherNo] = e.VoucherNo
	row[colDetails] = e.Details
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	return Entry{
		Timestamp: ts,
		Company:   record[colCompany],
		Actor:     record[colActor],
		Action:    Action(record[colAction]),
		RecordID:  record[colRecordID],
		VoucherNo: record[colVoucherNo],
		Details:   record[colDetails],
	}, nil
}

// Log appends entries under <dir>/logs/activity-log.csv. It is safe for
// concurrent use within one process.
type Log struct {
	mu  sync.Mutex
	dir string
}

// New returns a Log rooted at dir.
func New(dir string) *Log {
	return &Log{dir: dir}
}

// Path returns the log file path.
func (l *Log) Path() string {
	return filepath.Join(l.dir, logDir, logName)
}

// Append writes entries, creating the file and header if needed.
func (l *Log) Append(entries ...Entry) error {
	if l == nil || len(entries) == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Join(l.dir, logDir), 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := l.Path()
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns every entry in the log, oldest first. A missing file is an
// empty log.
func (l *Log) Read() ([]Entry, error) {
	f, err := os.Open(l.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()
	return readEntries(f)
}

// ForCompany filters entries to one company.
func ForCompany(entries []Entry, company string) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.Company == company {
			out = append(out, e)
		}
	}
	return out
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading activity log CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
