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
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/keyspace-labs/imt/merkle"
	"github.com/keyspace-labs/imt/merkle/proof"
)

// BatchNodeProofs fans NodeProof lookups for keys out across goroutines
// sharing reader and collects the results in the same order as keys. It
// is a conservative realization of the read-only concurrency the engine
// allows: reader itself is never mutated, only its underlying storage is
// read, so this is safe exactly when the storage backing reader supports
// concurrent reads.
//
// If ctx is canceled, or any lookup fails, BatchNodeProofs returns the
// first error encountered and cancels the remaining lookups.
func BatchNodeProofs(ctx context.Context, reader *Reader, keys []merkle.Key) ([]proof.NodeProof, error) {
	proofs := make([]proof.NodeProof, len(keys))

	g, ctx := errgroup.WithContext(ctx)
	for i, k := range keys {
		i, k := i, k
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := reader.NodeProof(k)
			if err != nil {
				return err
			}
			proofs[i] = p
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return proofs, nil
}
