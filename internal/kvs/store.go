// Package kvs handles namespaced key-value persistence on SQLite.
//
// Every operation degrades to a safe default on failure: errors are logged
// and never returned to callers.
package kvs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Namespace isolates one logical table.
type Namespace string

// Known namespaces.
const (
	Vocab    Namespace = "vocab"
	Trash    Namespace = "trash"
	Progress Namespace = "progress"
	Settings Namespace = "settings"
	Meta     Namespace = "meta"
	Mentor   Namespace = "mentor"
)

// DataKey is the key under which each store keeps its single record.
const DataKey = "data"

// Namespaces lists every known namespace.
var Namespaces = []Namespace{Vocab, Trash, Progress, Settings, Meta, Mentor}

func (n Namespace) valid() bool {
	for _, known := range Namespaces {
		if n == known {
			return true
		}
	}
	return false
}

var errUnknownNamespace = errors.New("unknown namespace")

// Store wraps SQLite access for namespaced records.
type Store struct {
	db  *sqlx.DB
	log *zap.Logger
	now func() time.Time
}

type row struct {
	Key   string `db:"key"`
	Value []byte `db:"value"`
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection serialises writes.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	store := &Store{db: db, log: log.Named("kvs"), now: time.Now}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			namespace TEXT NOT NULL,
			key TEXT NOT NULL,
			value BLOB NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (namespace, key)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) fail(op string, ns Namespace, key string, err error) {
	s.log.Error("storage operation failed",
		zap.String("op", op),
		zap.String("store", string(ns)),
		zap.String("key", key),
		zap.Error(err),
	)
}

// Get returns the raw value stored under ns/key. Missing records and
// failures both report false.
func (s *Store) Get(ctx context.Context, ns Namespace, key string) ([]byte, bool) {
	if !ns.valid() {
		s.fail("get", ns, key, errUnknownNamespace)
		return nil, false
	}
	var value []byte
	err := s.db.GetContext(ctx, &value, `SELECT value FROM kv WHERE namespace = ? AND key = ?`, string(ns), key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		s.fail("get", ns, key, err)
		return nil, false
	}
	return value, true
}

// Set writes value under ns/key as one atomic upsert.
func (s *Store) Set(ctx context.Context, ns Namespace, key string, value []byte) bool {
	if !ns.valid() {
		s.fail("set", ns, key, errUnknownNamespace)
		return false
	}
	if value == nil {
		value = []byte{}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (namespace, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		string(ns), key, value, s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		s.fail("set", ns, key, err)
		return false
	}
	return true
}

// Delete removes ns/key. Deleting a missing key succeeds.
func (s *Store) Delete(ctx context.Context, ns Namespace, key string) bool {
	if !ns.valid() {
		s.fail("delete", ns, key, errUnknownNamespace)
		return false
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE namespace = ? AND key = ?`, string(ns), key); err != nil {
		s.fail("delete", ns, key, err)
		return false
	}
	return true
}

// Clear removes every record in ns.
func (s *Store) Clear(ctx context.Context, ns Namespace) bool {
	if !ns.valid() {
		s.fail("clear", ns, "", errUnknownNamespace)
		return false
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE namespace = ?`, string(ns)); err != nil {
		s.fail("clear", ns, "", err)
		return false
	}
	return true
}

// ListAll returns every value in ns ordered by key.
func (s *Store) ListAll(ctx context.Context, ns Namespace) [][]byte {
	rows, ok := s.list(ctx, "list", ns)
	if !ok {
		return nil
	}
	out := make([][]byte, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Value)
	}
	return out
}

// Keys returns every key in ns in order.
func (s *Store) Keys(ctx context.Context, ns Namespace) []string {
	rows, ok := s.list(ctx, "keys", ns)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Key)
	}
	return out
}

func (s *Store) list(ctx context.Context, op string, ns Namespace) ([]row, bool) {
	if !ns.valid() {
		s.fail(op, ns, "", errUnknownNamespace)
		return nil, false
	}
	var rows []row
	if err := s.db.SelectContext(ctx, &rows, `SELECT key, value FROM kv WHERE namespace = ? ORDER BY key`, string(ns)); err != nil {
		s.fail(op, ns, "", err)
		return nil, false
	}
	return rows, true
}

// GetJSON decodes ns/key into dst. A record that fails to decode is treated
// as corrupt: it is logged and reported as missing.
func (s *Store) GetJSON(ctx context.Context, ns Namespace, key string, dst any) bool {
	raw, ok := s.Get(ctx, ns, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.fail("decode", ns, key, err)
		return false
	}
	return true
}

// SetJSON encodes v and writes it under ns/key.
func (s *Store) SetJSON(ctx context.Context, ns Namespace, key string, v any) bool {
	raw, err := json.Marshal(v)
	if err != nil {
		s.fail("encode", ns, key, err)
		return false
	}
	return s.Set(ctx, ns, key, raw)
}
