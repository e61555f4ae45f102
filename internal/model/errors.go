package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnbalanced          = errors.New("journal entries do not balance")
	ErrInsufficientStock   = errors.New("insufficient inventory")
	ErrMissingAccount      = errors.New("required account not selected")
	ErrInvalidLine         = errors.New("invalid voucher line")
	ErrNoCOGSMapping       = errors.New("no COGS account mapped to inventory account")
	ErrCOGSMisconfigured   = errors.New("COGS account misconfigured")
	ErrNoRevenueAccount    = errors.New("no sales revenue account configured")
	ErrAccountNotFound     = errors.New("account not found")
	ErrSubLedgerNotFound   = errors.New("inventory item not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrAlreadyReversed     = errors.New("transaction already reversed")
	ErrSystemAccount       = errors.New("account is system-controlled")
)

// ValidationError blocks an operation before any state change. Messages are
// meant to be shown to the user as-is.
type ValidationError struct {
	Err      error
	Messages []string
}

// NewValidationError builds a ValidationError wrapping err.
func NewValidationError(err error, messages ...string) *ValidationError {
	return &ValidationError{Err: err, Messages: messages}
}

func (e *ValidationError) Error() string {
	if len(e.Messages) == 0 {
		return e.Err.Error()
	}
	return strings.Join(e.Messages, "; ")
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ConfigurationError aborts voucher creation when the chart of accounts
// cannot support it.
type ConfigurationError struct {
	Err       error
	AccountID string
}

func (e *ConfigurationError) Error() string {
	if e.AccountID == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Err, e.AccountID)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// WarningKind identifies the check that produced an IntegrityWarning.
type WarningKind string

const (
	WarnDanglingEntry      WarningKind = "dangling_entry"
	WarnNonGLEntry         WarningKind = "non_gl_entry"
	WarnIncomeStatement    WarningKind = "income_statement_invariant"
	WarnBalanceSheet       WarningKind = "balance_sheet_equation"
	WarnCashFlow           WarningKind = "cash_flow_cross_check"
	WarnInventoryGLSync    WarningKind = "inventory_gl_sync"
	WarnNegativeInventory  WarningKind = "negative_inventory"
	WarnUnbalancedJournal  WarningKind = "unbalanced_journal"
	WarnHierarchy          WarningKind = "hierarchy"
	WarnReferentialRecords WarningKind = "referential_integrity"
)

// IntegrityWarning is an advisory finding. It is logged and surfaced but
// never blocks the read that produced it.
type IntegrityWarning struct {
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}

func (w IntegrityWarning) String() string {
	return fmt.Sprintf("%s: %s", w.Kind, w.Message)
}
