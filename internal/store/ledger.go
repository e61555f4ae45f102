package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/hisabpati/hisab/internal/model"
)

// Snapshot is everything stored for one owner, read at Version.
type Snapshot struct {
	Ledger  *model.Ledger
	Company model.CompanyMeta
	Version int64
}

// LoadLedger reads every record of an owner. A missing company record
// leaves Company zero.
func (s *Store) LoadLedger(ctx context.Context, owner string) (Snapshot, error) {
	// The version is read first so a concurrent write between the reads
	// surfaces as a conflict on the next Apply rather than going unnoticed.
	version, err := s.Version(ctx, owner)
	if err != nil {
		return Snapshot{}, err
	}

	l := &model.Ledger{}
	if l.Accounts, err = GetAll[model.Account](ctx, s, Accounts, owner); err != nil {
		return Snapshot{}, err
	}
	if l.Transactions, err = GetAll[model.Transaction](ctx, s, Transactions, owner); err != nil {
		return Snapshot{}, err
	}
	if l.SubLedgers, err = GetAll[model.InventorySubLedger](ctx, s, SubLedgers, owner); err != nil {
		return Snapshot{}, err
	}
	if l.Movements, err = GetAll[model.InventoryMovement](ctx, s, Movements, owner); err != nil {
		return Snapshot{}, err
	}

	var meta model.CompanyMeta
	if err := s.Get(ctx, CompanyMeta, owner, CompanyMeta, &meta); err != nil && !errors.Is(err, ErrNotFound) {
		return Snapshot{}, fmt.Errorf("load company: %w", err)
	}
	return Snapshot{Ledger: l, Company: meta, Version: version}, nil
}

// LedgerOps returns the ops that write every record of l and the company.
func LedgerOps(l *model.Ledger, meta model.CompanyMeta) []Op {
	ops := make([]Op, 0, 1+len(l.Accounts)+len(l.Transactions)+len(l.SubLedgers)+len(l.Movements))
	ops = append(ops, Op{Store: CompanyMeta, ID: CompanyMeta, Value: meta})
	for _, a := range l.Accounts {
		ops = append(ops, Op{Store: Accounts, ID: a.ID, Value: a})
	}
	for _, tx := range l.Transactions {
		ops = append(ops, Op{Store: Transactions, ID: tx.ID, Value: tx})
	}
	for _, sl := range l.SubLedgers {
		ops = append(ops, Op{Store: SubLedgers, ID: sl.ID, Value: sl})
	}
	for _, m := range l.Movements {
		ops = append(ops, Op{Store: Movements, ID: m.ID, Value: m})
	}
	return ops
}
