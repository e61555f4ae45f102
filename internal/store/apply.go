package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// AnyVersion disables the version check in Apply.
const AnyVersion int64 = -1

// Op is one record write in an Apply batch.
type Op struct {
	Store  string
	ID     string
	Value  any
	Delete bool
}

// Apply writes ops in a single transaction. When expected is not
// AnyVersion and the owner's version differs from it, nothing is written
// and ErrConflict is returned. On success the owner's version is bumped and
// the new version returned.
func (s *Store) Apply(ctx context.Context, owner string, expected int64, ops []Op) (int64, error) {
	tx, err := s.writer.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var current int64
	if err := tx.GetContext(ctx, &current,
		`SELECT COALESCE(MAX(version), 0) FROM owner_versions WHERE owner = ?`, owner); err != nil {
		return 0, fmt.Errorf("read version: %w", err)
	}
	if expected != AnyVersion && expected != current {
		return current, fmt.Errorf("%w: expected version %d, found %d", ErrConflict, expected, current)
	}

	for _, op := range ops {
		if err := applyOp(ctx, tx, owner, op); err != nil {
			return 0, err
		}
	}

	next := current + 1
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO owner_versions (owner, version) VALUES (?, ?)
		 ON CONFLICT(owner) DO UPDATE SET version = excluded.version`, owner, next); err != nil {
		return 0, fmt.Errorf("bump version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return next, nil
}

func applyOp(ctx context.Context, tx *sqlx.Tx, owner string, op Op) error {
	if op.Delete {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM records WHERE store = ? AND owner = ? AND id = ?`, op.Store, owner, op.ID); err != nil {
			return fmt.Errorf("delete %s %s: %w", op.Store, op.ID, err)
		}
		return nil
	}

	body, err := json.Marshal(op.Value)
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", op.Store, op.ID, err)
	}
	_, err = tx.NamedExecContext(ctx,
		`INSERT INTO records (store, owner, id, body, updated_at) VALUES (:store, :owner, :id, :body, :updated_at)
		 ON CONFLICT(store, owner, id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		map[string]any{
			"store":      op.Store,
			"owner":      owner,
			"id":         op.ID,
			"body":       string(body),
			"updated_at": time.Now().UTC().Format(time.RFC3339Nano),
		})
	if err != nil {
		return fmt.Errorf("put %s %s: %w", op.Store, op.ID, err)
	}
	return nil
}

// ReplaceOwner deletes every record of the owner and writes ops in the same
// transaction. Used by restore.
func (s *Store) ReplaceOwner(ctx context.Context, owner string, ops []Op) (int64, error) {
	tx, err := s.writer.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE owner = ?`, owner); err != nil {
		return 0, fmt.Errorf("clear owner: %w", err)
	}
	for _, op := range ops {
		if err := applyOp(ctx, tx, owner, op); err != nil {
			return 0, err
		}
	}

	var next int64
	if err := tx.GetContext(ctx, &next,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM owner_versions WHERE owner = ?`, owner); err != nil {
		return 0, fmt.Errorf("read version: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO owner_versions (owner, version) VALUES (?, ?)
		 ON CONFLICT(owner) DO UPDATE SET version = excluded.version`, owner, next); err != nil {
		return 0, fmt.Errorf("bump version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return next, nil
}
