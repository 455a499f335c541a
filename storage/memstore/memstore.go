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

// Package memstore is an in-memory storage.Writer/Transactional backend
// built on google/btree, the natural Go analogue of an ordered BTreeMap:
// DescendLessThan gives GetLT for free.
package memstore

import (
	"bytes"
	"sync"

	"github.com/google/btree"

	"github.com/keyspace-labs/imt/storage"
)

const defaultDegree = 32

type kv struct {
	key, value []byte
}

func (a kv) Less(than btree.Item) bool {
	return bytes.Compare(a.key, than.(kv).key) < 0
}

// Store is an in-memory ordered key/value store.
type Store struct {
	mu   sync.RWMutex
	tree *btree.BTree
}

// New returns an empty Store.
func New() *Store {
	return &Store{tree: btree.New(defaultDegree)}
}

// Get implements storage.Reader.
func (s *Store) Get(key []byte) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item := s.tree.Get(kv{key: key})
	if item == nil {
		return nil, false
	}
	return item.(kv).value, true
}

// GetLT implements storage.Reader.
func (s *Store) GetLT(key []byte) ([]byte, []byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found kv
	ok := false
	s.tree.DescendLessThan(kv{key: key}, func(i btree.Item) bool {
		found = i.(kv)
		ok = true
		return false
	})
	if !ok {
		return nil, nil, false
	}
	return found.key, found.value, true
}

// Set implements storage.Writer.
func (s *Store) Set(key, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree.ReplaceOrInsert(kv{key: append([]byte(nil), key...), value: append([]byte(nil), value...)})
}

// Transaction implements storage.Transactional.
func (s *Store) Transaction() storage.Transaction {
	return &Transaction{store: s, buffer: btree.New(defaultDegree)}
}

// Transaction is a storage.Transaction over a Store: reads fall through to
// the underlying store for keys not yet written in the transaction; writes
// are buffered until Commit.
type Transaction struct {
	store  *Store
	buffer *btree.BTree
	done   bool
}

func (t *Transaction) checkLive() {
	if t.done {
		panic("memstore: use of Transaction after Commit or Discard")
	}
}

// Get implements storage.Reader.
func (t *Transaction) Get(key []byte) ([]byte, bool) {
	t.checkLive()
	if item := t.buffer.Get(kv{key: key}); item != nil {
		return item.(kv).value, true
	}
	return t.store.Get(key)
}

// GetLT implements storage.Reader. It returns the larger of the buffer's and
// the underlying store's predecessor, since a buffered write between the
// store's predecessor and key must win.
func (t *Transaction) GetLT(key []byte) ([]byte, []byte, bool) {
	t.checkLive()

	var bufKey, bufVal []byte
	bufOK := false
	t.buffer.DescendLessThan(kv{key: key}, func(i btree.Item) bool {
		bufKey, bufVal = i.(kv).key, i.(kv).value
		bufOK = true
		return false
	})

	storeKey, storeVal, storeOK := t.store.GetLT(key)

	switch {
	case !bufOK && !storeOK:
		return nil, nil, false
	case !bufOK:
		return storeKey, storeVal, true
	case !storeOK:
		return bufKey, bufVal, true
	case bytes.Compare(bufKey, storeKey) > 0:
		return bufKey, bufVal, true
	default:
		return storeKey, storeVal, true
	}
}

// Set implements storage.Writer.
func (t *Transaction) Set(key, value []byte) {
	t.checkLive()
	t.buffer.ReplaceOrInsert(kv{key: append([]byte(nil), key...), value: append([]byte(nil), value...)})
}

// Commit implements storage.Transaction.
func (t *Transaction) Commit() {
	t.checkLive()
	t.done = true
	t.buffer.Ascend(func(i btree.Item) bool {
		e := i.(kv)
		t.store.Set(e.key, e.value)
		return true
	})
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
