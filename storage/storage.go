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

// Package storage defines the ordered key/value capability the indexed
// Merkle tree adapter (storage/imt) is built on, independent of any
// particular backend.
package storage

// Reader provides ordered, read-only access to a byte-keyed store. Key
// ordering is lexicographic; GetLT relies on it to find the immediate
// predecessor of a key.
type Reader interface {
	// Get returns the value stored at key, or ok=false if absent.
	Get(key []byte) (value []byte, ok bool)

	// GetLT returns the (key, value) pair with the largest key strictly
	// less than key, by lexicographic byte order, or ok=false if none
	// exists.
	GetLT(key []byte) (gotKey, value []byte, ok bool)
}

// Writer extends Reader with mutation.
type Writer interface {
	Reader

	// Set stores value at key, overwriting any prior value.
	Set(key, value []byte)
}

// Transactional is implemented by storages that support atomic batches of
// writes.
type Transactional interface {
	// Transaction returns a new Transaction for atomic batch updates. The
	// returned Transaction must be committed or discarded exactly once.
	Transaction() Transaction
}

// Transaction is a Writer that reads through to the underlying store for
// keys it has not itself written, and whose writes become visible to the
// underlying store only on Commit.
//
// After Commit or Discard is called, the Transaction is inert: further
// calls to any of its methods panic. Go has no move semantics to enforce
// this at compile time, so it is enforced at runtime instead.
type Transaction interface {
	Writer

	// Commit applies the transaction's buffered writes to the underlying
	// store. Commit consumes the transaction.
	Commit()

	// Discard drops the transaction's buffered writes without touching the
	// underlying store. Discard consumes the transaction.
	Discard()
}
