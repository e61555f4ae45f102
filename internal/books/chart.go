package books

import (
	"context"
	"fmt"
	"strings"

	"github.com/hisabpati/hisab/internal/accounts"
	"github.com/hisabpati/hisab/internal/activity"
	"github.com/hisabpati/hisab/internal/id"
	"github.com/hisabpati/hisab/internal/inventory"
	"github.com/hisabpati/hisab/internal/model"
	"github.com/hisabpati/hisab/internal/store"
)

// AddAccount creates a GL account under a GROUP.
func (s *Service) AddAccount(ctx context.Context, c Company, groupID, name string) (model.Account, error) {
	snap, err := s.Load(ctx, c)
	if err != nil {
		return model.Account{}, err
	}
	chart := accounts.NewService(snap.Ledger.Accounts)
	acct, err := chart.NewGL(groupID, name)
	if err != nil {
		return model.Account{}, fmt.Errorf("adding account: %w", err)
	}
	if err := s.saveAccounts(ctx, c, snap, acct); err != nil {
		return model.Account{}, err
	}
	s.log.Info("added account", "company", c.ID, "code", acct.Code, "name", acct.Name)
	s.record(c, activity.Entry{Action: activity.ActionAddAccount, RecordID: acct.ID, Details: acct.Code + " " + acct.Name})
	return acct, nil
}

// AddInventoryAccount creates an inventory GL and its paired COGS GL.
func (s *Service) AddInventoryAccount(ctx context.Context, c Company, name string) (inv, cogs model.Account, err error) {
	snap, err := s.Load(ctx, c)
	if err != nil {
		return inv, cogs, err
	}
	chart := accounts.NewService(snap.Ledger.Accounts)
	inv, cogs, err = chart.NewInventoryGL(name)
	if err != nil {
		return inv, cogs, fmt.Errorf("adding inventory account: %w", err)
	}
	if err := s.saveAccounts(ctx, c, snap, inv, cogs); err != nil {
		return model.Account{}, model.Account{}, err
	}
	s.log.Info("added inventory account", "company", c.ID, "code", inv.Code, "cogs_code", cogs.Code)
	s.record(c, activity.Entry{Action: activity.ActionAddAccount, RecordID: inv.ID, Details: inv.Code + " " + inv.Name})
	return inv, cogs, nil
}

// RenameAccount renames a GL account. System-controlled accounts are
// rejected.
func (s *Service) RenameAccount(ctx context.Context, c Company, accountID, name string) (model.Account, error) {
	snap, err := s.Load(ctx, c)
	if err != nil {
		return model.Account{}, err
	}
	chart := accounts.NewService(snap.Ledger.Accounts)
	if err := chart.Rename(accountID, name); err != nil {
		return model.Account{}, err
	}
	acct, _ := chart.Get(accountID)
	if err := s.saveAccounts(ctx, c, snap, acct); err != nil {
		return model.Account{}, err
	}
	s.record(c, activity.Entry{Action: activity.ActionRenameAccount, RecordID: acct.ID, Details: acct.Name})
	return acct, nil
}

func (s *Service) saveAccounts(ctx context.Context, c Company, snap store.Snapshot, accts ...model.Account) error {
	ops := make([]store.Op, len(accts))
	for i, a := range accts {
		ops[i] = store.Op{Store: store.Accounts, ID: a.ID, Value: a}
	}
	if _, err := s.store.Apply(ctx, c.key(), snap.Version, ops); err != nil {
		return fmt.Errorf("saving accounts: %w", err)
	}
	return nil
}

// AddItem creates an inventory sub-ledger under an inventory GL. Item names
// are unique within a GL.
func (s *Service) AddItem(ctx context.Context, c Company, sl model.InventorySubLedger) (model.InventorySubLedger, error) {
	snap, err := s.Load(ctx, c)
	if err != nil {
		return model.InventorySubLedger{}, err
	}

	sl.ItemName = strings.TrimSpace(sl.ItemName)
	if err := inventory.ValidateSubLedger(sl); err != nil {
		return model.InventorySubLedger{}, err
	}
	gl, ok := accounts.NewService(snap.Ledger.Accounts).Get(sl.InventoryGLAccountID)
	if !ok || !gl.IsInventoryGL {
		return model.InventorySubLedger{}, model.NewValidationError(model.ErrMissingAccount,
			fmt.Sprintf("account %s is not an inventory account", sl.InventoryGLAccountID))
	}
	for _, existing := range inventory.ForGL(snap.Ledger.SubLedgers, gl.ID) {
		if strings.EqualFold(existing.ItemName, sl.ItemName) {
			return model.InventorySubLedger{}, model.NewValidationError(model.ErrInvalidLine,
				fmt.Sprintf("item %q already exists under %s", sl.ItemName, gl.Name))
		}
	}
	if sl.ID == "" {
		sl.ID = id.New(id.PrefixSubLedger)
	}

	if _, err := s.store.Apply(ctx, c.key(), snap.Version, []store.Op{{Store: store.SubLedgers, ID: sl.ID, Value: sl}}); err != nil {
		return model.InventorySubLedger{}, fmt.Errorf("saving item: %w", err)
	}
	s.log.Info("added item", "company", c.ID, "item", sl.ItemName, "gl", gl.Code)
	s.record(c, activity.Entry{Action: activity.ActionAddItem, RecordID: sl.ID, Details: sl.ItemName})
	return sl, nil
}

// ImportChart replaces the chart of accounts of a company that has no
// transactions yet. Charts saved before classification tags existed are
// upgraded first. A chart failing the hierarchy checks is rejected.
func (s *Service) ImportChart(ctx context.Context, c Company, accts []model.Account) (Receipt, error) {
	snap, err := s.Load(ctx, c)
	if err != nil {
		return Receipt{}, err
	}
	if len(snap.Ledger.Transactions) > 0 {
		return Receipt{}, model.NewValidationError(model.ErrInvalidLine,
			fmt.Sprintf("company %s has %d transactions; the chart can only be replaced before posting", c.ID, len(snap.Ledger.Transactions)))
	}

	accts = accounts.UpgradeLegacy(accts)
	chart := accounts.NewService(accts)
	if errs := chart.ValidateHierarchy(); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return Receipt{}, model.NewValidationError(model.ErrInvalidLine, msgs...)
	}
	for _, sl := range snap.Ledger.SubLedgers {
		if gl, ok := chart.Get(sl.InventoryGLAccountID); !ok || !gl.IsInventoryGL {
			return Receipt{}, model.NewValidationError(model.ErrMissingAccount,
				fmt.Sprintf("item %q needs inventory account %s", sl.ItemName, sl.InventoryGLAccountID))
		}
	}

	keep := make(map[string]bool, len(accts))
	ops := make([]store.Op, 0, len(accts)+len(snap.Ledger.Accounts))
	for _, a := range accts {
		keep[a.ID] = true
		ops = append(ops, store.Op{Store: store.Accounts, ID: a.ID, Value: a})
	}
	for _, a := range snap.Ledger.Accounts {
		if !keep[a.ID] {
			ops = append(ops, store.Op{Store: store.Accounts, ID: a.ID, Delete: true})
		}
	}
	version, err := s.store.Apply(ctx, c.key(), snap.Version, ops)
	if err != nil {
		return Receipt{}, fmt.Errorf("saving chart: %w", err)
	}
	s.log.Info("imported chart", "company", c.ID, "accounts", len(accts))
	s.record(c, activity.Entry{Action: activity.ActionImportChart, RecordID: c.ID, Details: fmt.Sprintf("%d accounts", len(accts))})
	return Receipt{Version: version}, nil
}
