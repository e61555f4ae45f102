// Package backup reads and writes whole-company JSON backups.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hisabpati/hisab/internal/accounts"
	"github.com/hisabpati/hisab/internal/journal"
	"github.com/hisabpati/hisab/internal/model"
)

// FormatVersion is written into every backup.
const FormatVersion = 1

// ErrInvalidBackup is returned for a backup that is structurally unusable
// or fails the integrity checks.
var ErrInvalidBackup = errors.New("invalid backup")

// Payload is the backup document.
type Payload struct {
	Version      int                        `json:"version"`
	ExportedAt   time.Time                  `json:"exportedAt"`
	CompanyMeta  model.CompanyMeta          `json:"companyMeta"`
	Accounts     []model.Account            `json:"accounts"`
	Transactions []model.Transaction        `json:"transactions"`
	SubLedgers   []model.InventorySubLedger `json:"inventorySubLedgers"`
	Movements    []model.InventoryMovement  `json:"inventoryMovements"`
}

// Export builds a payload from a ledger.
func Export(l *model.Ledger, meta model.CompanyMeta, now time.Time) Payload {
	return Payload{
		Version:      FormatVersion,
		ExportedAt:   now.UTC(),
		CompanyMeta:  meta,
		Accounts:     l.Accounts,
		Transactions: l.Transactions,
		SubLedgers:   l.SubLedgers,
		Movements:    l.Movements,
	}
}

// Ledger returns the payload's records as a ledger. Accounts written by
// older versions are upgraded to carry classification tags.
func (p Payload) Ledger() *model.Ledger {
	return &model.Ledger{
		Accounts:     accounts.UpgradeLegacy(p.Accounts),
		Transactions: p.Transactions,
		SubLedgers:   p.SubLedgers,
		Movements:    p.Movements,
	}
}

// Write encodes p as indented JSON.
func Write(w io.Writer, p Payload) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encoding backup: %w", err)
	}
	return nil
}

// Read decodes a backup. A document without accounts or transactions is
// rejected; the inventory sections are optional.
func Read(r io.Reader) (Payload, error) {
	var p Payload
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return Payload{}, fmt.Errorf("decoding backup: %w", err)
	}
	if p.Accounts == nil || p.Transactions == nil {
		return Payload{}, fmt.Errorf("%w: accounts and transactions are required", ErrInvalidBackup)
	}
	if p.Version > FormatVersion {
		return Payload{}, fmt.Errorf("%w: format version %d is newer than %d", ErrInvalidBackup, p.Version, FormatVersion)
	}
	return p, nil
}

// ValidateIntegrity checks the cross-references of a payload and returns
// one message per problem.
func ValidateIntegrity(p Payload) []string {
	var issues []string

	accts := make(map[string]model.Account, len(p.Accounts))
	hasInventoryGL := false
	for _, a := range p.Accounts {
		accts[a.ID] = a
		hasInventoryGL = hasInventoryGL || a.IsInventoryGL
	}
	if !hasInventoryGL {
		issues = append(issues, "inventory GL accounts missing from backup")
	}

	subLedgers := make(map[string]bool, len(p.SubLedgers))
	for _, sl := range p.SubLedgers {
		subLedgers[sl.ID] = true
		if _, ok := accts[sl.InventoryGLAccountID]; !ok {
			issues = append(issues, fmt.Sprintf("sub-ledger %q references non-existent GL account %s", sl.ItemName, sl.InventoryGLAccountID))
		}
	}

	txs := make(map[string]model.Transaction, len(p.Transactions))
	for _, tx := range p.Transactions {
		txs[tx.ID] = tx
	}
	checked := map[string]bool{}
	for _, m := range p.Movements {
		if !subLedgers[m.SubLedgerID] {
			issues = append(issues, fmt.Sprintf("movement %s references non-existent sub-ledger %s", m.ID, m.SubLedgerID))
		}
		tx, ok := txs[m.VoucherID]
		if !ok {
			issues = append(issues, fmt.Sprintf("movement %s references non-existent voucher %s", m.ID, m.VoucherID))
			continue
		}
		if checked[tx.ID] {
			continue
		}
		checked[tx.ID] = true
		if len(tx.Entries) < 2 {
			issues = append(issues, fmt.Sprintf("voucher %s lacks sufficient GL entries for double-entry accounting", tx.VoucherNo))
		}
	}
	return issues
}

// Check runs ValidateIntegrity and the journal invariants over every
// transaction, and turns any issue into an error wrapping ErrInvalidBackup.
func Check(p Payload) error {
	issues := ValidateIntegrity(p)
	chart := accounts.NewService(p.Ledger().Accounts)
	issues = append(issues, journal.Messages(journal.ValidateLedger(p.Transactions, chart))...)
	if len(issues) > 0 {
		return model.NewValidationError(ErrInvalidBackup, issues...)
	}
	return nil
}
