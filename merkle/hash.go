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

package merkle

import "encoding/binary"

// Depth returns the tree depth for the given size: ceil(log2(size)), with
// Depth(1) == 0. Implementations may cache this per mutation but must never
// let a cached value drift from this pure function of size.
func Depth(size Size) Level {
	if size <= 1 {
		return 0
	}
	depth := Level(0)
	for (Size(1) << depth) < size {
		depth++
	}
	return depth
}

// RootFromNode recomputes the tree root committed to by node, given its
// sibling vector (one entry per level, nil meaning no node yet occupies that
// subtree) and the claimed tree size. It is the single source of truth for
// the sibling-folding algorithm used by both the writer (to refresh cached
// hashes after a mutation) and every proof verifier (to recompute a root
// without touching storage).
//
// The single-argument H(x) case (exactly one sibling present) is distinct
// from H(x||0): callers relying on this function to interoperate with other
// implementations must preserve that distinction bit-for-bit.
func RootFromNode(newHasher HasherFactory, size Size, node Node, siblings []*Hash) Hash {
	hash := node.Hash(newHasher)
	index := node.Index

	for _, sibling := range siblings {
		nodeHash := hash

		var left, right *Hash
		if index%2 == 0 {
			left, right = &nodeHash, sibling
		} else {
			left, right = sibling, &nodeHash
		}

		h := newHasher()
		switch {
		case left == nil && right == nil:
			panic("merkle: both sibling slots absent while folding a merkle path")
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
	}

	sizeBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(sizeBytes, uint64(size))

	h := newHasher()
	h.Write(hash[:])
	h.Write(sizeBytes)
	return h.Sum(nil)
}

// NodeExistsIn reports whether node is provably present in root, given its
// sibling vector and the tree size the root was computed at.
func NodeExistsIn(newHasher HasherFactory, root Hash, size Size, node Node, siblings []*Hash) bool {
	return root == RootFromNode(newHasher, size, node, siblings)
}
