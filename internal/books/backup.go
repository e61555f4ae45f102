package books

import (
	"context"
	"fmt"

	"github.com/hisabpati/hisab/internal/activity"
	"github.com/hisabpati/hisab/internal/backup"
	"github.com/hisabpati/hisab/internal/store"
)

// Export returns a backup of the company's books.
func (s *Service) Export(ctx context.Context, c Company) (backup.Payload, error) {
	snap, err := s.Load(ctx, c)
	if err != nil {
		return backup.Payload{}, err
	}
	return backup.Export(snap.Ledger, snap.Company, s.now()), nil
}

// Restore replaces the company's books with p. A payload failing the
// integrity checks is rejected before anything is written.
func (s *Service) Restore(ctx context.Context, c Company, p backup.Payload) (Receipt, error) {
	if err := backup.Check(p); err != nil {
		return Receipt{}, err
	}

	meta := p.CompanyMeta
	meta.ID, meta.Owner = c.ID, c.Owner
	l := p.Ledger()

	version, err := s.store.ReplaceOwner(ctx, c.key(), store.LedgerOps(l, meta))
	if err != nil {
		return Receipt{}, fmt.Errorf("restoring: %w", err)
	}

	s.log.Info("restored backup", "company", c.ID,
		"accounts", len(l.Accounts), "transactions", len(l.Transactions), "movements", len(l.Movements))
	s.record(c, activity.Entry{Action: activity.ActionRestore, RecordID: c.ID,
		Details: fmt.Sprintf("%d transactions", len(l.Transactions))})

	r := Receipt{Version: version, Warnings: s.advise(l)}
	s.logWarnings(c, r.Warnings)
	return r, nil
}
