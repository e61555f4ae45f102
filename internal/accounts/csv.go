package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/hisabpati/hisab/internal/model"
)

const (
	numFields    = 11
	colID        = 0
	colCode      = 1
	colName      = 2
	colType      = 3
	colLevel     = 4
	colParent    = 5
	colClass     = 6
	colSystem    = 7
	colLocked    = 8
	colInventory = 9
	colCOGSFor   = 10
)

var header = []string{
	"account_id", "code", "account_name", "account_type", "level", "parent_id",
	"classification", "is_system", "is_locked", "is_inventory_gl", "cogs_for",
}

// ReadAccounts reads a chart of accounts in CSV form.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var accounts []model.Account
	for i, rec := range records[1:] {
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// WriteAccounts writes a chart of accounts in CSV form.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row. Balances are not written;
// they are always recomputed.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numFields)
	row[colID] = acct.ID
	row[colCode] = acct.Code
	row[colName] = acct.Name
	row[colType] = string(acct.Type)
	row[colLevel] = string(acct.Level)
	row[colParent] = acct.ParentID
	row[colClass] = string(acct.Classification)
	row[colSystem] = strconv.FormatBool(acct.IsSystem)
	row[colLocked] = strconv.FormatBool(acct.IsLocked)
	row[colInventory] = strconv.FormatBool(acct.IsInventoryGL)
	row[colCOGSFor] = acct.COGSFor
	return row
}

// UnmarshalAccount converts a CSV row to an Account. A non-empty cogs_for
// column marks the account as a COGS GL.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != numFields {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	acct := model.Account{
		ID:             record[colID],
		Code:           record[colCode],
		Name:           record[colName],
		Type:           model.AccountType(record[colType]),
		Level:          model.AccountLevel(record[colLevel]),
		ParentID:       record[colParent],
		Classification: model.Classification(record[colClass]),
		COGSFor:        record[colCOGSFor],
	}
	if acct.ID == "" {
		return model.Account{}, fmt.Errorf("account_id is required")
	}
	if !acct.Type.Valid() {
		return model.Account{}, fmt.Errorf("invalid account_type %q", record[colType])
	}

	var err error
	if acct.IsSystem, err = parseFlag(record[colSystem]); err != nil {
		return model.Account{}, fmt.Errorf("parsing is_system: %w", err)
	}
	if acct.IsLocked, err = parseFlag(record[colLocked]); err != nil {
		return model.Account{}, fmt.Errorf("parsing is_locked: %w", err)
	}
	if acct.IsInventoryGL, err = parseFlag(record[colInventory]); err != nil {
		return model.Account{}, fmt.Errorf("parsing is_inventory_gl: %w", err)
	}
	acct.IsCOGSGL = acct.COGSFor != ""
	return acct, nil
}

func parseFlag(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(s)
}
