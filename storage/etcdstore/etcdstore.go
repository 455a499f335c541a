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

// Package etcdstore is a storage.Writer/Transactional backend over etcd's
// clientv3, chosen because etcd's native ordered-range Get maps directly
// onto the GetLT ("largest key strictly less than") primitive the indexed
// Merkle tree's low-nullifier lookup depends on.
package etcdstore

import (
	"context"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/golang/glog"

	"github.com/keyspace-labs/imt/storage"
)

const defaultTimeout = 5 * time.Second

// Store is an etcd-backed key/value store. All keys live under prefix so
// that multiple trees (or other etcd tenants) can share a cluster.
type Store struct {
	cli    *clientv3.Client
	prefix string
}

// New wraps an already-connected etcd client. prefix is prepended to every
// key this Store touches.
func New(cli *clientv3.Client, prefix string) *Store {
	return &Store{cli: cli, prefix: prefix}
}

func (s *Store) fullKey(key []byte) string {
	return s.prefix + string(key)
}

// Get implements storage.Reader.
func (s *Store) Get(key []byte) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	resp, err := s.cli.Get(ctx, s.fullKey(key))
	if err != nil {
		glog.Errorf("etcdstore: Get(%x): %v", key, err)
		return nil, false
	}
	if len(resp.Kvs) == 0 {
		return nil, false
	}
	return resp.Kvs[0].Value, true
}

// GetLT implements storage.Reader using a descending, limit-1 ranged Get
// over [prefix, prefix||key), which is exactly "the largest stored key
// strictly less than key".
func (s *Store) GetLT(key []byte) ([]byte, []byte, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	resp, err := s.cli.Get(ctx, s.prefix,
		clientv3.WithRange(s.fullKey(key)),
		clientv3.WithSort(clientv3.SortByKey, clientv3.SortDescend),
		clientv3.WithLimit(1),
	)
	if err != nil {
		glog.Errorf("etcdstore: GetLT(%x): %v", key, err)
		return nil, nil, false
	}
	if len(resp.Kvs) == 0 {
		return nil, nil, false
	}
	gotKey := resp.Kvs[0].Key[len(s.prefix):]
	return gotKey, resp.Kvs[0].Value, true
}

// Set implements storage.Writer.
func (s *Store) Set(key, value []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if _, err := s.cli.Put(ctx, s.fullKey(key), string(value)); err != nil {
		glog.Errorf("etcdstore: Set(%x): %v", key, err)
	}
}

// Transaction implements storage.Transactional. Writes are buffered
// in-process and applied as a single etcd Txn on Commit.
func (s *Store) Transaction() storage.Transaction {
	return &Transaction{store: s, buffer: map[string][]byte{}}
}

// Transaction is a storage.Transaction backed by etcd's clientv3.Txn.
type Transaction struct {
	store  *Store
	buffer map[string][]byte
	done   bool
}

func (t *Transaction) checkLive() {
	if t.done {
		panic("etcdstore: use of Transaction after Commit or Discard")
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
// single etcd transaction.
func (t *Transaction) Commit() {
	t.checkLive()
	t.done = true

	if len(t.buffer) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	ops := make([]clientv3.Op, 0, len(t.buffer))
	for k, v := range t.buffer {
		ops = append(ops, clientv3.OpPut(t.store.fullKey([]byte(k)), string(v)))
	}

	if _, err := t.store.cli.Txn(ctx).Then(ops...).Commit(); err != nil {
		glog.Errorf("etcdstore: Commit: %v", err)
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
