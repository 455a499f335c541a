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

// InclusionProof witnesses that Node is present in the tree committed to by
// Root.
type InclusionProof struct {
	Root     merkle.Hash
	Size     merkle.Size
	Node     merkle.Node
	Siblings []*merkle.Hash
}

// Verify implements NodeProof.
func (p *InclusionProof) Verify(newHasher merkle.HasherFactory) error {
	if !merkle.NodeExistsIn(newHasher, p.Root, p.Size, p.Node, p.Siblings) {
		return errors.New("node does not exist")
	}
	return nil
}

func (*InclusionProof) isNodeProof() {}

var _ NodeProof = (*InclusionProof)(nil)
