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

// ExclusionProof witnesses that NodeKey is absent from the tree committed
// to by Root, via its low-nullifier node LnNode.
type ExclusionProof struct {
	Root       merkle.Hash
	Size       merkle.Size
	LnNode     merkle.Node
	LnSiblings []*merkle.Hash
	NodeKey    merkle.Key
}

// Verify implements NodeProof.
func (p *ExclusionProof) Verify(newHasher merkle.HasherFactory) error {
	if !merkle.NodeExistsIn(newHasher, p.Root, p.Size, p.LnNode, p.LnSiblings) {
		return errors.New("ln node does not exist")
	}
	if !p.LnNode.IsLowNullifierOf(p.NodeKey) {
		return errors.New("ln node is invalid for the given key")
	}
	return nil
}

func (*ExclusionProof) isNodeProof() {}

var _ NodeProof = (*ExclusionProof)(nil)
