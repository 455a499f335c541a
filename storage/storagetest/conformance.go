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

// Package storagetest provides a conformance suite that every storage
// backend runs against its own constructor, so the four-operation contract
// (get, get_lt, set, transaction commit/discard) is exercised identically
// regardless of which backend is under test.
package storagetest

import (
	"bytes"
	"testing"

	"github.com/keyspace-labs/imt/storage"
)

// Backend is implemented by test-only constructors that hand back a fresh,
// empty storage.Writer + storage.Transactional pair.
type Backend interface {
	storage.Writer
	storage.Transactional
}

// RunConformanceTests exercises the storage.Reader/Writer/Transactional
// contract against a freshly constructed backend. newStorage must return an
// empty backend every time it is called.
func RunConformanceTests(t *testing.T, newStorage func() Backend) {
	t.Helper()

	t.Run("GetMissingKey", func(t *testing.T) {
		s := newStorage()
		if _, ok := s.Get([]byte("missing")); ok {
			t.Error("Get on empty store returned ok=true")
		}
	})

	t.Run("SetThenGet", func(t *testing.T) {
		s := newStorage()
		s.Set([]byte("k1"), []byte("v1"))
		v, ok := s.Get([]byte("k1"))
		if !ok || !bytes.Equal(v, []byte("v1")) {
			t.Fatalf("Get(k1) = %q, %v, want v1, true", v, ok)
		}
	})

	t.Run("SetOverwrites", func(t *testing.T) {
		s := newStorage()
		s.Set([]byte("k1"), []byte("v1"))
		s.Set([]byte("k1"), []byte("v2"))
		v, ok := s.Get([]byte("k1"))
		if !ok || !bytes.Equal(v, []byte("v2")) {
			t.Fatalf("Get(k1) after overwrite = %q, %v, want v2, true", v, ok)
		}
	})

	t.Run("GetLTOrdering", func(t *testing.T) {
		s := newStorage()
		for _, k := range []string{"a", "c", "e", "g"} {
			s.Set([]byte(k), []byte(k+"-value"))
		}

		cases := []struct {
			query   string
			wantKey string
			wantOK  bool
		}{
			{"a", "", false},
			{"b", "a", true},
			{"d", "c", true},
			{"f", "e", true},
			{"z", "g", true},
		}
		for _, c := range cases {
			gotKey, _, ok := s.GetLT([]byte(c.query))
			if ok != c.wantOK {
				t.Errorf("GetLT(%q) ok = %v, want %v", c.query, ok, c.wantOK)
				continue
			}
			if ok && string(gotKey) != c.wantKey {
				t.Errorf("GetLT(%q) key = %q, want %q", c.query, gotKey, c.wantKey)
			}
		}
	})

	t.Run("TransactionReadsThrough", func(t *testing.T) {
		s := newStorage()
		s.Set([]byte("k1"), []byte("v1"))

		tx := s.Transaction()
		v, ok := tx.Get([]byte("k1"))
		if !ok || !bytes.Equal(v, []byte("v1")) {
			t.Fatalf("tx.Get(k1) = %q, %v, want v1, true (read-through)", v, ok)
		}
		tx.Discard()
	})

	t.Run("TransactionIsolatesUncommittedWrites", func(t *testing.T) {
		s := newStorage()
		tx := s.Transaction()
		tx.Set([]byte("k1"), []byte("v1"))

		if _, ok := s.Get([]byte("k1")); ok {
			t.Error("uncommitted write is visible outside the transaction")
		}

		v, ok := tx.Get([]byte("k1"))
		if !ok || !bytes.Equal(v, []byte("v1")) {
			t.Fatalf("tx.Get(k1) = %q, %v, want v1, true", v, ok)
		}
		tx.Discard()
	})

	t.Run("CommitAppliesWrites", func(t *testing.T) {
		s := newStorage()
		tx := s.Transaction()
		tx.Set([]byte("k1"), []byte("v1"))
		tx.Commit()

		v, ok := s.Get([]byte("k1"))
		if !ok || !bytes.Equal(v, []byte("v1")) {
			t.Fatalf("Get(k1) after commit = %q, %v, want v1, true", v, ok)
		}
	})

	t.Run("DiscardLeavesStoreUntouched", func(t *testing.T) {
		s := newStorage()
		tx := s.Transaction()
		tx.Set([]byte("k1"), []byte("v1"))
		tx.Discard()

		if _, ok := s.Get([]byte("k1")); ok {
			t.Error("Discard must leave the underlying store untouched")
		}
	})

	t.Run("TransactionGetLTSeesOwnWrites", func(t *testing.T) {
		s := newStorage()
		s.Set([]byte("a"), []byte("a-value"))

		tx := s.Transaction()
		tx.Set([]byte("b"), []byte("b-value"))

		gotKey, _, ok := tx.GetLT([]byte("c"))
		if !ok || string(gotKey) != "b" {
			t.Fatalf("tx.GetLT(c) key = %q, ok=%v, want b, true", gotKey, ok)
		}
		tx.Discard()
	})
}
