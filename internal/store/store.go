// Package store persists ledger records in SQLite.
//
// Every record is a JSON body addressed by (store name, owner, id), the
// shape of the key-value collaborator the books were designed against. An
// owner is one company of one user. Each owner also carries a version that
// every write bumps, so concurrent writers can detect that they worked from
// a stale snapshot.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Store names.
const (
	Accounts     = "accounts"
	Transactions = "transactions"
	SubLedgers   = "inventorySubLedgers"
	Movements    = "inventoryMovements"
	CompanyMeta  = "companyMeta"
)

// ErrConflict is returned by Apply when the owner's version moved on since
// the caller read it.
var ErrConflict = errors.New("ledger was modified concurrently")

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// OwnerKey combines a user and company into the owner a record is stored
// under.
func OwnerKey(userID, companyID string) string {
	return userID + "/" + companyID
}

type Store struct {
	writer *sqlx.DB
	reader *sqlx.DB
}

type record struct {
	ID   string `db:"id"`
	Body string `db:"body"`
}

// Open opens or creates the database at path and migrates it.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", path)

	writer, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open writer: %w", err)
	}
	writer.SetMaxOpenConns(1)

	reader, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("open reader: %w", err)
	}
	reader.SetMaxOpenConns(runtime.NumCPU())

	s := &Store{writer: writer, reader: reader}
	if err := s.migrate(context.Background()); err != nil {
		s.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	err1 := s.writer.Close()
	err2 := s.reader.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// GetAllForOwner returns the raw bodies of every record in a store for an
// owner, in insertion order.
func (s *Store) GetAllForOwner(ctx context.Context, storeName, owner string) ([]json.RawMessage, error) {
	var rows []record
	err := s.reader.SelectContext(ctx, &rows,
		`SELECT id, body FROM records WHERE store = ? AND owner = ? ORDER BY seq`, storeName, owner)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", storeName, err)
	}
	out := make([]json.RawMessage, len(rows))
	for i, r := range rows {
		out[i] = json.RawMessage(r.Body)
	}
	return out, nil
}

// GetAll decodes every record in a store for an owner into T.
func GetAll[T any](ctx context.Context, s *Store, storeName, owner string) ([]T, error) {
	bodies, err := s.GetAllForOwner(ctx, storeName, owner)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(bodies))
	for _, b := range bodies {
		var v T
		if err := json.Unmarshal(b, &v); err != nil {
			return nil, fmt.Errorf("decode %s record: %w", storeName, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// Get decodes a single record into v.
func (s *Store) Get(ctx context.Context, storeName, owner, id string, v any) error {
	var body string
	err := s.reader.GetContext(ctx, &body,
		`SELECT body FROM records WHERE store = ? AND owner = ? AND id = ?`, storeName, owner, id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", storeName, id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("get %s %s: %w", storeName, id, err)
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return fmt.Errorf("decode %s %s: %w", storeName, id, err)
	}
	return nil
}

// Put inserts or replaces a record. It does not check the owner's version.
func (s *Store) Put(ctx context.Context, storeName, owner, id string, v any) error {
	_, err := s.Apply(ctx, owner, AnyVersion, []Op{{Store: storeName, ID: id, Value: v}})
	return err
}

// Delete removes a record. Deleting a missing record is not an error.
func (s *Store) Delete(ctx context.Context, storeName, owner, id string) error {
	_, err := s.Apply(ctx, owner, AnyVersion, []Op{{Store: storeName, ID: id, Delete: true}})
	return err
}

// Version returns the owner's current version. An owner that has never been
// written is at version 0.
func (s *Store) Version(ctx context.Context, owner string) (int64, error) {
	var v int64
	err := s.reader.GetContext(ctx, &v, `SELECT COALESCE(MAX(version), 0) FROM owner_versions WHERE owner = ?`, owner)
	if err != nil {
		return 0, fmt.Errorf("read version: %w", err)
	}
	return v, nil
}
