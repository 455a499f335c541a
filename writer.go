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

package imt

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/keyspace-labs/imt/merkle"
	"github.com/keyspace-labs/imt/merkle/proof"
	"github.com/keyspace-labs/imt/storage"
	imtstorage "github.com/keyspace-labs/imt/storage/imt"
)

// Writer is a read/write view of an indexed Merkle tree.
type Writer struct {
	core
}

// NewWriter attaches a read/write Writer to w. If storage reports no prior
// size, the sentinel node (index 0, all-zero key/value/next_key) is
// inserted, size is set to 1, and the initial root is computed.
func NewWriter(newHasher merkle.HasherFactory, w storage.Writer) (*Writer, error) {
	adapter := imtstorage.NewWriter(w)
	tree := &Writer{core{newHasher: newHasher, adapter: adapter}}

	if _, ok := adapter.GetSize(); !ok {
		adapter.SetSize(1)
		tree.setNode(0, merkle.Node{})
	}

	return tree, nil
}

// setNode writes node, refreshes the cached hash path up to depth, and
// refreshes the root. It returns the sibling vector observed while
// climbing, which callers assemble into a proof.
func (w *Writer) setNode(depth merkle.Level, node merkle.Node) []*merkle.Hash {
	w.adapter.SetNode(node)

	hash := node.Hash(w.newHasher)
	index := node.Index
	w.adapter.SetHash(0, index, hash)

	siblings := make([]*merkle.Hash, depth)
	for level := merkle.Level(0); level < depth; level++ {
		siblingIndex := siblingIndexOf(index)

		var siblingHash *merkle.Hash
		if h, ok := w.adapter.GetHash(level, siblingIndex); ok {
			hh := h
			siblingHash = &hh
			siblings[level] = &hh
		}

		nodeHash := hash
		var left, right *merkle.Hash
		if index%2 == 0 {
			left, right = &nodeHash, siblingHash
		} else {
			left, right = siblingHash, &nodeHash
		}

		h := w.newHasher()
		switch {
		case left == nil && right == nil:
			panic("imt: both sibling slots absent while refreshing a path")
		case left == nil:
			h.Write(right[:])
		case right == nil:
			h.Write(left[:])
		default:
			h.Write(left[:])
			h.Write(right[:])
		}
		hash = h.Sum(nil)

		index /= 2
		w.adapter.SetHash(level+1, index, hash)
	}

	w.refreshRoot(depth)
	return siblings
}

// refreshRoot recomputes the size-bound root from the cached hash at
// (depth, 0), mirroring merkle.RootFromNode's final H(hash||size) step.
func (w *Writer) refreshRoot(depth merkle.Level) {
	size := w.Size()

	rootHash, _ := w.adapter.GetHash(depth, 0)

	sizeBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(sizeBytes, uint64(size))

	h := w.newHasher()
	h.Write(rootHash[:])
	h.Write(sizeBytes)
	w.adapter.SetRoot(h.Sum(nil))
}

// InsertNode splices (k, v) into the sorted linked-list overlay and
// returns the InsertProof witnessing the mutation. It fails if k is
// already present.
func (w *Writer) InsertNode(k merkle.Key, v merkle.Value) (*proof.InsertProof, error) {
	if _, ok, err := w.adapter.GetNode(k); err != nil {
		return nil, err
	} else if ok {
		return nil, fmt.Errorf("node \"%x\" already exists", k)
	}

	oldSize := w.Size()
	if oldSize == math.MaxUint64 {
		return nil, fmt.Errorf("imt: max size overflow")
	}

	oldRoot := w.Root()
	oldDepth := merkle.Depth(oldSize)

	lnNode, ok, err := w.adapter.GetLowNullifier(k)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("low nullifier not found for \"%x\"", k)
	}
	lnSiblings := w.siblings(oldDepth, lnNode.Index)

	node := merkle.Node{Index: merkle.Index(oldSize), Key: k, Value: v, NextKey: lnNode.NextKey}

	originalLnNextKey := lnNode.NextKey
	lnNode.NextKey = k
	w.setNode(oldDepth, lnNode)

	newSize := oldSize + 1
	w.adapter.SetSize(newSize)

	newDepth := merkle.Depth(newSize)
	nodeSiblings := w.setNode(newDepth, node)
	updatedLnSiblings := w.siblings(newDepth, lnNode.Index)

	restoredLn := lnNode
	restoredLn.NextKey = originalLnNextKey

	return &proof.InsertProof{
		OldRoot: oldRoot, OldSize: oldSize,
		LnNode: restoredLn, LnSiblings: lnSiblings,
		Node: node, NodeSiblings: nodeSiblings,
		UpdatedLnSiblings: updatedLnSiblings,
	}, nil
}

// UpdateNode overwrites the value stored at k and returns the UpdateProof
// witnessing the mutation. It fails if k is absent.
func (w *Writer) UpdateNode(k merkle.Key, v merkle.Value) (*proof.UpdateProof, error) {
	oldRoot := w.Root()
	size := w.Size()

	node, ok, err := w.adapter.GetNode(k)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("node \"%x\" does not exist", k)
	}
	oldNode := node
	node.Value = v

	nodeSiblings := w.setNode(merkle.Depth(size), node)

	return &proof.UpdateProof{
		OldRoot: oldRoot, Size: size,
		Node: oldNode, NodeSiblings: nodeSiblings,
		NewValue: v,
	}, nil
}

// SetNode inserts or updates (k, v), dispatching on whether k is already
// present, and returns the resulting MutateProof.
func (w *Writer) SetNode(k merkle.Key, v merkle.Value) (proof.MutateProof, error) {
	_, ok, err := w.adapter.GetNode(k)
	if err != nil {
		return nil, err
	}
	if ok {
		p, err := w.UpdateNode(k, v)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	p, err := w.InsertNode(k, v)
	if err != nil {
		return nil, err
	}
	return p, nil
}
