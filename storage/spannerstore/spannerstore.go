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

// Package spannerstore is a storage.Writer/Transactional backend over
// Cloud Spanner, for deployments that already run Spanner as their
// strongly-consistent, horizontally-scaled store of record rather than a
// single MySQL/Postgres instance (storage/sqlstore) or an etcd cluster
// (storage/etcdstore). GetLT is realized with an ORDER BY key DESC LIMIT 1
// query, the same shape sqlstore uses, since Spanner's read API has no
// native "largest key less than" primitive the way etcd's ranged Get does.
package spannerstore

import (
	"context"
	"time"

	"cloud.google.com/go/spanner"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"

	"github.com/golang/glog"

	"github.com/keyspace-labs/imt/storage"
)

const defaultTimeout = 10 * time.Second

// Store is a Spanner-backed key/value store. Rows live in table, which
// must have a schema of (key BYTES(MAX), value BYTES(MAX)) with key as the
// primary key.
type Store struct {
	client *spanner.Client
	table  string
}

// New wraps an already-connected Spanner client. table names the table
// this Store reads and writes; it is not created or migrated here.
func New(client *spanner.Client, table string) *Store {
	return &Store{client: client, table: table}
}

// Get implements storage.Reader.
func (s *Store) Get(key []byte) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	row, err := s.client.Single().ReadRow(ctx, s.table, spanner.Key{key}, []string{"value"})
	if err != nil {
		if spanner.ErrCode(err) != codes.NotFound {
			glog.Errorf("spannerstore: Get(%x): %v", key, err)
		}
		return nil, false
	}

	var value []byte
	if err := row.Column(0, &value); err != nil {
		glog.Errorf("spannerstore: Get(%x): decoding row: %v", key, err)
		return nil, false
	}
	return value, true
}

// GetLT implements storage.Reader via a descending, limit-1 range query.
func (s *Store) GetLT(key []byte) ([]byte, []byte, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	stmt := spanner.Statement{
		SQL: "SELECT key, value FROM `" + s.table + "` WHERE key < @key ORDER BY key DESC LIMIT 1",
		Params: map[string]interface{}{
			"key": key,
		},
	}

	iter := s.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	row, err := iter.Next()
	if err == iterator.Done {
		return nil, nil, false
	}
	if err != nil {
		glog.Errorf("spannerstore: GetLT(%x): %v", key, err)
		return nil, nil, false
	}

	var gotKey, value []byte
	if err := row.Columns(&gotKey, &value); err != nil {
		glog.Errorf("spannerstore: GetLT(%x): decoding row: %v", key, err)
		return nil, nil, false
	}
	return gotKey, value, true
}

// Set implements storage.Writer.
func (s *Store) Set(key, value []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	mut := spanner.InsertOrUpdate(s.table, []string{"key", "value"}, []interface{}{key, value})
	if _, err := s.client.Apply(ctx, []*spanner.Mutation{mut}); err != nil {
		glog.Errorf("spannerstore: Set(%x): %v", key, err)
	}
}

// Transaction implements storage.Transactional. Writes are buffered
// in-process and applied as a single Spanner mutation batch on Commit.
func (s *Store) Transaction() storage.Transaction {
	return &Transaction{store: s, buffer: map[string][]byte{}}
}

// Transaction is a storage.Transaction backed by a batch of Spanner
// InsertOrUpdate mutations applied atomically on Commit.
type Transaction struct {
	store  *Store
	buffer map[string][]byte
	done   bool
}

func (t *Transaction) checkLive() {
	if t.done {
		panic("spannerstore: use of Transaction after Commit or Discard")
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

// GetLT implements storage.Reader.
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

// Commit implements storage.Transaction, applying all buffered writes as a
// single Spanner mutation batch.
func (t *Transaction) Commit() {
	t.checkLive()
	t.done = true

	if len(t.buffer) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	muts := make([]*spanner.Mutation, 0, len(t.buffer))
	for k, v := range t.buffer {
		muts = append(muts, spanner.InsertOrUpdate(t.store.table, []string{"key", "value"}, []interface{}{[]byte(k), v}))
	}

	if _, err := t.store.client.Apply(ctx, muts); err != nil {
		glog.Errorf("spannerstore: Commit: %v", err)
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
