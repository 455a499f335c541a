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

// UpdateProof witnesses that replacing Node's value with NewValue in the
// tree committed to by OldRoot yields the verified new root.
type UpdateProof struct {
	OldRoot      merkle.Hash
	Size         merkle.Size
	Node         merkle.Node
	NodeSiblings []*merkle.Hash

	NewValue merkle.Value
}

// Verify implements MutateProof.
func (p *UpdateProof) Verify(newHasher merkle.HasherFactory, oldRoot merkle.Hash) (merkle.Hash, error) {
	if oldRoot != p.OldRoot {
		return merkle.Hash{}, errors.New("ImtMutate.old_root is stale")
	}

	if !merkle.NodeExistsIn(newHasher, p.OldRoot, p.Size, p.Node, p.NodeSiblings) {
		return merkle.Hash{}, errors.New("ImtMutate.node is not in the imt")
	}

	updated := p.Node
	updated.Value = p.NewValue

	return merkle.RootFromNode(newHasher, p.Size, updated, p.NodeSiblings), nil
}

func (*UpdateProof) isMutateProof() {}

var _ MutateProof = (*UpdateProof)(nil)
