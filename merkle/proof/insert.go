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

package proof

import (
	"errors"

	"github.com/keyspace-labs/imt/merkle"
)

// InsertProof witnesses that inserting Node.Key/Node.Value into the tree
// committed to by OldRoot, splicing it in after LnNode in the sorted
// linked-list overlay, yields the verified new root.
type InsertProof struct {
	OldRoot    merkle.Hash
	OldSize    merkle.Size
	LnNode     merkle.Node
	LnSiblings []*merkle.Hash

	Node              merkle.Node
	NodeSiblings      []*merkle.Hash
	UpdatedLnSiblings []*merkle.Hash
}

func (p *InsertProof) isValidLN(newHasher merkle.HasherFactory) bool {
	return p.LnNode.IsLowNullifierOf(p.Node.Key) &&
		merkle.NodeExistsIn(newHasher, p.OldRoot, p.OldSize, p.LnNode, p.LnSiblings)
}

// Verify implements MutateProof.
func (p *InsertProof) Verify(newHasher merkle.HasherFactory, oldRoot merkle.Hash) (merkle.Hash, error) {
	if oldRoot != p.OldRoot {
		return merkle.Hash{}, errors.New("ImtMutate.old_root is stale")
	}

	if !p.isValidLN(newHasher) {
		return merkle.Hash{}, errors.New("ImtMutate.ln_node is invalid")
	}

	updatedLn := p.LnNode
	updatedLn.NextKey = p.Node.Key

	newSize := p.OldSize + 1
	rootFromNode := merkle.RootFromNode(newHasher, newSize, p.Node, p.NodeSiblings)
	rootFromUpdatedLn := merkle.RootFromNode(newHasher, newSize, updatedLn, p.UpdatedLnSiblings)

	if rootFromNode != rootFromUpdatedLn {
		return merkle.Hash{}, errors.New("ImtMutate.updated_ln_siblings is invalid")
	}

	return rootFromNode, nil
}

func (*InsertProof) isMutateProof() {}

var _ MutateProof = (*InsertProof)(nil)
