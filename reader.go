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

// Package imt is the indexed Merkle tree engine: it ties together the node
// model and hashing primitives of package merkle, the self-contained
// verifiers of package merkle/proof, and a storage/imt adapter into a
// stateful reader/writer over one tree.
package imt

import (
	"fmt"

	"github.com/keyspace-labs/imt/merkle"
	"github.com/keyspace-labs/imt/merkle/proof"
	"github.com/keyspace-labs/imt/storage"
	imtstorage "github.com/keyspace-labs/imt/storage/imt"
)

// core holds the state and read-only operations shared by Reader and
// Writer: both need Root/Size/Depth/proof generation, only Writer can
// mutate.
type core struct {
	newHasher merkle.HasherFactory
	adapter   *imtstorage.Adapter
}

// Root returns the current tree root, or the zero hash if uninitialized.
func (c *core) Root() merkle.Hash {
	root, _ := c.adapter.GetRoot()
	return root
}

// Size returns the current tree size (including the sentinel), or 0 if
// uninitialized.
func (c *core) Size() merkle.Size {
	size, _ := c.adapter.GetSize()
	return size
}

// Depth returns ceil(log2(Size())), with Depth() == 0 at size 1.
func (c *core) Depth() merkle.Level {
	return merkle.Depth(c.Size())
}

// siblings returns the cached sibling hash at each level from the leaf up
// to (but not including) depth, for the subtree rooted at node.Index. A
// nil entry means no node yet occupies that sibling slot.
func (c *core) siblings(depth merkle.Level, index merkle.Index) []*merkle.Hash {
	siblings := make([]*merkle.Hash, depth)
	for level := merkle.Level(0); level < depth; level++ {
		siblingIndex := siblingIndexOf(index)
		if h, ok := c.adapter.GetHash(level, siblingIndex); ok {
			hh := h
			siblings[level] = &hh
		}
		index /= 2
	}
	return siblings
}

func siblingIndexOf(index merkle.Index) merkle.Index {
	if index%2 == 0 {
		return index + 1
	}
	return index - 1
}

// InclusionProof generates a proof that k is present in the tree.
func (c *core) InclusionProof(k merkle.Key) (*proof.InclusionProof, error) {
	node, ok, err := c.adapter.GetNode(k)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("node \"%x\" does not exist", k)
	}

	depth := c.Depth()
	return &proof.InclusionProof{
		Root:     c.Root(),
		Size:     c.Size(),
		Node:     node,
		Siblings: c.siblings(depth, node.Index),
	}, nil
}

// ExclusionProof generates a proof that k is absent from the tree, via its
// low-nullifier node.
func (c *core) ExclusionProof(k merkle.Key) (*proof.ExclusionProof, error) {
	ln, ok, err := c.adapter.GetLowNullifier(k)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("low nullifier not found for \"%x\"", k)
	}

	depth := c.Depth()
	return &proof.ExclusionProof{
		Root:       c.Root(),
		Size:       c.Size(),
		LnNode:     ln,
		LnSiblings: c.siblings(depth, ln.Index),
		NodeKey:    k,
	}, nil
}

// NodeProof generates an InclusionProof if k is present, else an
// ExclusionProof.
func (c *core) NodeProof(k merkle.Key) (proof.NodeProof, error) {
	_, ok, err := c.adapter.GetNode(k)
	if err != nil {
		return nil, err
	}
	if ok {
		p, err := c.InclusionProof(k)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	p, err := c.ExclusionProof(k)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Reader is a read-only view of an indexed Merkle tree.
type Reader struct {
	core
}

// NewReader attaches a read-only Reader to existing tree state. It fails
// loudly (returns an error) if storage reports no prior size, since a
// Reader cannot perform the sentinel-insertion that initializes a tree.
func NewReader(newHasher merkle.HasherFactory, r storage.Reader) (*Reader, error) {
	adapter := imtstorage.NewReader(r)
	if _, ok := adapter.GetSize(); !ok {
		return nil, fmt.Errorf("imt: tree is empty")
	}
	return &Reader{core{newHasher: newHasher, adapter: adapter}}, nil
}
