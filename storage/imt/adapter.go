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

// Package imt adapts a generic ordered storage.Reader/Writer into the
// typed, prefix-disciplined view the indexed Merkle tree engine needs:
// nodes keyed by their Key, cached per-level hashes, the current size and
// root, and a side table of registered verifying keys.
package imt

import (
	"encoding/binary"
	"fmt"

	"github.com/keyspace-labs/imt/merkle"
	"github.com/keyspace-labs/imt/storage"
)

// Adapter is a typed view of an ordered byte-keyed store for one indexed
// Merkle tree. It holds no state of its own beyond the storage.Reader or
// storage.Writer it wraps, so an Adapter built over a storage.Transaction
// participates in that transaction's atomicity automatically.
type Adapter struct {
	r storage.Reader
	w storage.Writer
}

// NewReader builds a read-only Adapter.
func NewReader(r storage.Reader) *Adapter {
	return &Adapter{r: r}
}

// NewWriter builds a read/write Adapter. w is also used to satisfy reads.
func NewWriter(w storage.Writer) *Adapter {
	return &Adapter{r: w, w: w}
}

func encodeNode(n merkle.Node) []byte {
	out := make([]byte, 32+32+32+8)
	copy(out[0:32], n.Key[:])
	copy(out[32:64], n.Value[:])
	copy(out[64:96], n.NextKey[:])
	binary.BigEndian.PutUint64(out[96:104], uint64(n.Index))
	return out
}

func decodeNode(b []byte) (merkle.Node, error) {
	if len(b) != 32+32+32+8 {
		return merkle.Node{}, fmt.Errorf("imt: corrupt node encoding: want 104 bytes, got %d", len(b))
	}
	var n merkle.Node
	copy(n.Key[:], b[0:32])
	copy(n.Value[:], b[32:64])
	copy(n.NextKey[:], b[64:96])
	n.Index = merkle.Index(binary.BigEndian.Uint64(b[96:104]))
	return n, nil
}

// GetNode returns the node stored at key, if any.
func (a *Adapter) GetNode(key merkle.Key) (merkle.Node, bool, error) {
	raw, ok := a.r.Get(nodeStorageKey(key))
	if !ok {
		return merkle.Node{}, false, nil
	}
	n, err := decodeNode(raw)
	return n, true, err
}

// GetLowNullifier returns the node whose Key is the largest stored key
// strictly less than nodeKey: the low-nullifier candidate for nodeKey. The
// node-key prefix is the lowest storage prefix, so a plain GetLT lands
// directly on it without risking a collision with hash/size/root/vk
// entries, which all sort after every node entry; the prefix byte of the
// result is still checked, and a non-node result is reported as not found.
func (a *Adapter) GetLowNullifier(nodeKey merkle.Key) (merkle.Node, bool, error) {
	gotKey, raw, ok := a.r.GetLT(nodeStorageKey(nodeKey))
	if !ok || len(gotKey) == 0 || gotKey[0] != nodePrefix {
		return merkle.Node{}, false, nil
	}
	n, err := decodeNode(raw)
	return n, true, err
}

// GetHash returns the cached hash at (level, index), if any.
func (a *Adapter) GetHash(level merkle.Level, index merkle.Index) (merkle.Hash, bool) {
	raw, ok := a.r.Get(hashStorageKey(uint8(level), uint64(index)))
	if !ok {
		return merkle.Hash{}, false
	}
	var h merkle.Hash
	copy(h[:], raw)
	return h, true
}

// GetSize returns the current tree size, or ok=false if the tree has never
// been initialized.
func (a *Adapter) GetSize() (merkle.Size, bool) {
	raw, ok := a.r.Get(sizeStorageKey())
	if !ok {
		return 0, false
	}
	return merkle.Size(binary.LittleEndian.Uint64(raw)), true
}

// GetRoot returns the current tree root, or ok=false if the tree has never
// been initialized.
func (a *Adapter) GetRoot() (merkle.Hash, bool) {
	raw, ok := a.r.Get(rootStorageKey())
	if !ok {
		return merkle.Hash{}, false
	}
	var h merkle.Hash
	copy(h[:], raw)
	return h, true
}

// GetVerifyingKey returns the verifying-key bytes registered under vkHash.
func (a *Adapter) GetVerifyingKey(vkHash [32]byte) ([]byte, bool) {
	return a.r.Get(vkStorageKey(vkHash))
}

func (a *Adapter) mustWriter() storage.Writer {
	if a.w == nil {
		panic("imt: adapter built with NewReader cannot write")
	}
	return a.w
}

// SetNode stores n, keyed by n.Key.
func (a *Adapter) SetNode(n merkle.Node) {
	a.mustWriter().Set(nodeStorageKey(n.Key), encodeNode(n))
}

// SetHash caches hash at (level, index).
func (a *Adapter) SetHash(level merkle.Level, index merkle.Index, hash merkle.Hash) {
	a.mustWriter().Set(hashStorageKey(uint8(level), uint64(index)), hash[:])
}

// SetSize records the current tree size. Size is encoded little-endian,
// matching the reference storage layout (state-manager's
// storage/imt/{btree,sled}.rs use size.to_le_bytes()), unlike the
// big-endian index suffix in a hash_storage_key, which is ordered for
// get_lt rather than for bit-exact reconstruction.
func (a *Adapter) SetSize(size merkle.Size) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(size))
	a.mustWriter().Set(sizeStorageKey(), buf)
}

// SetRoot records the current tree root.
func (a *Adapter) SetRoot(root merkle.Hash) {
	a.mustWriter().Set(rootStorageKey(), root[:])
}

// SetVerifyingKey registers vk under its hash vkHash.
func (a *Adapter) SetVerifyingKey(vkHash [32]byte, vk []byte) {
	a.mustWriter().Set(vkStorageKey(vkHash), vk)
}
