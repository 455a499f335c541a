// Copyright 2016 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sqlstore is a durable storage.Writer/Transactional backend over
// database/sql, giving the indexed Merkle tree's TransactionalStorage
// contract real ACID backing. It is dialect-agnostic: callers open the
// *sql.DB themselves (with the driver of their choice, e.g.
// github.com/go-sql-driver/mysql or github.com/lib/pq) and pass a Dialect
// describing how that driver spells placeholders.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/golang/glog"

	"github.com/keyspace-labs/imt/storage"
)

// Dialect captures the handful of SQL-syntax differences between drivers
// this package supports.
type Dialect interface {
	// Placeholder returns the bind-parameter marker for the n-th (1-based)
	// parameter in a statement, e.g. "?" for MySQL or "$1" for PostgreSQL.
	Placeholder(n int) string
	// BlobType returns the column type to use for arbitrary-length byte
	// strings, e.g. "BLOB" for MySQL or "BYTEA" for PostgreSQL.
	BlobType() string
}

// MySQL is the Dialect for github.com/go-sql-driver/mysql.
type MySQL struct{}

func (MySQL) Placeholder(int) string { return "?" }
func (MySQL) BlobType() string       { return "BLOB" }

// Postgres is the Dialect for github.com/lib/pq.
type Postgres struct{}

func (Postgres) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }
func (Postgres) BlobType() string         { return "BYTEA" }

// Store is a SQL-backed key/value store holding a single table of
// (key, value) byte-string pairs, ordered by key.
type Store struct {
	db      *sql.DB
	dialect Dialect
	table   string
}

// Open wraps an already-open *sql.DB. table is the name of the key/value
// table to use (or create, via EnsureSchema).
func Open(db *sql.DB, dialect Dialect, table string) *Store {
	return &Store{db: db, dialect: dialect, table: table}
}

// EnsureSchema creates the backing table if it does not already exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmt := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (k %s PRIMARY KEY, v %s NOT NULL)",
		s.table, s.dialect.BlobType(), s.dialect.BlobType(),
	)
	_, err := s.db.ExecContext(ctx, stmt)
	return err
}

// Get implements storage.Reader.
func (s *Store) Get(key []byte) ([]byte, bool) {
	row := s.db.QueryRow(
		fmt.Sprintf("SELECT v FROM %s WHERE k = %s", s.table, s.dialect.Placeholder(1)),
		key,
	)
	var v []byte
	if err := row.Scan(&v); err != nil {
		if err != sql.ErrNoRows {
			glog.Errorf("sqlstore: Get(%x): %v", key, err)
		}
		return nil, false
	}
	return v, true
}

// GetLT implements storage.Reader.
func (s *Store) GetLT(key []byte) ([]byte, []byte, bool) {
	row := s.db.QueryRow(
		fmt.Sprintf("SELECT k, v FROM %s WHERE k < %s ORDER BY k DESC LIMIT 1", s.table, s.dialect.Placeholder(1)),
		key,
	)
	var k, v []byte
	if err := row.Scan(&k, &v); err != nil {
		if err != sql.ErrNoRows {
			glog.Errorf("sqlstore: GetLT(%x): %v", key, err)
		}
		return nil, nil, false
	}
	return k, v, true
}

// Set implements storage.Writer using an upsert. MySQL and PostgreSQL spell
// "upsert" differently, so Set is expressed as two statements (DELETE then
// INSERT) run inside one explicit single-row transaction rather than one
// dialect-specific clause.
func (s *Store) Set(key, value []byte) {
	tx, err := s.db.Begin()
	if err != nil {
		glog.Errorf("sqlstore: Set(%x): begin: %v", key, err)
		return
	}
	if err := upsert(tx, s.dialect, s.table, key, value); err != nil {
		glog.Errorf("sqlstore: Set(%x): %v", key, err)
		tx.Rollback()
		return
	}
	if err := tx.Commit(); err != nil {
		glog.Errorf("sqlstore: Set(%x): commit: %v", key, err)
	}
}

func upsert(tx *sql.Tx, d Dialect, table string, key, value []byte) error {
	if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE k = %s", table, d.Placeholder(1)), key); err != nil {
		return err
	}
	_, err := tx.Exec(fmt.Sprintf("INSERT INTO %s (k, v) VALUES (%s, %s)", table, d.Placeholder(1), d.Placeholder(2)), key, value)
	return err
}

// Transaction implements storage.Transactional using a real *sql.Tx: writes
// are buffered in-process (so reads-through within the transaction see
// them immediately) and flushed to the database on Commit.
func (s *Store) Transaction() storage.Transaction {
	return &Transaction{store: s, buffer: map[string][]byte{}}
}

// Transaction is a storage.Transaction backed by a database/sql
// transaction.
type Transaction struct {
	store  *Store
	buffer map[string][]byte
	done   bool
}

func (t *Transaction) checkLive() {
	if t.done {
		panic("sqlstore: use of Transaction after Commit or Discard")
	}
}

// Get implements storage.Reader.
func (t *Transaction) Get(key []byte) ([]byte, bool) {
	t.checkLive()
	if v, ok := t.buffer[string(key)]; ok {
		return v, true
	}
	return t.store.Get(key)
}

// GetLT implements storage.Reader. Scanning the in-process buffer is O(n)
// in the number of buffered writes, which is acceptable: a single engine
// mutation buffers O(depth) writes, not O(tree size).
func (t *Transaction) GetLT(key []byte) ([]byte, []byte, bool) {
	t.checkLive()

	storeKey, storeVal, storeOK := t.store.GetLT(key)

	var bestKey, bestVal []byte
	bestOK := false
	for k, v := range t.buffer {
		if k >= string(key) {
			continue
		}
		if !bestOK || k > string(bestKey) {
			bestKey, bestVal, bestOK = []byte(k), v, true
		}
	}

	switch {
	case !bestOK:
		return storeKey, storeVal, storeOK
	case !storeOK:
		return bestKey, bestVal, true
	case string(bestKey) > string(storeKey):
		return bestKey, bestVal, true
	default:
		return storeKey, storeVal, true
	}
}

// Set implements storage.Writer.
func (t *Transaction) Set(key, value []byte) {
	t.checkLive()
	t.buffer[string(key)] = append([]byte(nil), value...)
}

// Commit implements storage.Transaction, flushing the buffer inside a real
// database transaction so the batch is applied atomically.
func (t *Transaction) Commit() {
	t.checkLive()
	t.done = true

	tx, err := t.store.db.Begin()
	if err != nil {
		glog.Errorf("sqlstore: Commit: begin: %v", err)
		return
	}
	for k, v := range t.buffer {
		if err := upsert(tx, t.store.dialect, t.store.table, []byte(k), v); err != nil {
			glog.Errorf("sqlstore: Commit: %v", err)
			tx.Rollback()
			return
		}
	}
	if err := tx.Commit(); err != nil {
		glog.Errorf("sqlstore: Commit: %v", err)
	}
}

// Discard implements storage.Transaction.
func (t *Transaction) Discard() {
	t.checkLive()
	t.done = true
}

var (
	_ storage.Writer        = (*Store)(nil)
	_ storage.Transactional = (*Store)(nil)
	_ storage.Transaction   = (*Transaction)(nil)
)
