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

// Package proof holds the self-contained proof objects the indexed Merkle
// tree engine (package imt) emits: each one verifies against a claimed root
// using only merkle.RootFromNode, without touching storage.
package proof

import "github.com/keyspace-labs/imt/merkle"

// NodeProof is either an InclusionProof or an ExclusionProof: a witness
// that a key is, or is not, present in the tree committed to by a root.
type NodeProof interface {
	// Verify checks the proof against its own embedded root and returns an
	// error describing the first violated invariant, if any.
	Verify(newHasher merkle.HasherFactory) error

	isNodeProof()
}

// MutateProof is either an InsertProof or an UpdateProof: a witness that
// applying a mutation to the tree committed to by old_root yields the
// returned new root.
type MutateProof interface {
	// Verify checks the proof against the caller-supplied oldRoot (which
	// must match the proof's own recorded old root) and returns the new
	// root the mutation produces.
	Verify(newHasher merkle.HasherFactory, oldRoot merkle.Hash) (merkle.Hash, error)

	isMutateProof()
}
