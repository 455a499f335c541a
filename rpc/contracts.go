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

// Package rpc names the boundary between this module and the external
// collaborators that sit around an indexed Merkle tree in production: a
// sequencer/batcher that orders mutations, a zk-proof program that
// consumes witnesses, and a verifying-key registry shared across both.
// None of those collaborators are implemented here; this package only
// defines the contracts they would satisfy or call, so the core engine's
// types (merkle.Key, merkle/proof.NodeProof, merkle/proof.MutateProof)
// have a named boundary instead of leaking into ad-hoc RPC bindings.
package rpc

import (
	"context"

	"github.com/keyspace-labs/imt/merkle"
	"github.com/keyspace-labs/imt/merkle/proof"
)

// NodeProofService is consumed by the RPC surface that answers external
// inclusion/exclusion queries against a tree, e.g. a wallet or verifier
// asking "is this key present, and what is its witness".
type NodeProofService interface {
	// NodeProof returns an InclusionProof or ExclusionProof for k,
	// whichever applies, against the service's current root.
	NodeProof(ctx context.Context, k merkle.Key) (proof.NodeProof, error)

	// BatchNodeProofs is the batched form, consumed by callers needing
	// witnesses for many keys in one round trip (e.g. a zk-proof program
	// assembling a block's worth of exclusion proofs).
	BatchNodeProofs(ctx context.Context, keys []merkle.Key) ([]proof.NodeProof, error)
}

// MutateProofService is consumed by the sequencer/batcher: it submits
// (key, value) mutations in transaction order and receives the
// InsertProof or UpdateProof witnessing each one, which it forwards to
// the zk-proof program as a mutation witness.
type MutateProofService interface {
	// SetNode applies (k, v) to the tree and returns the witnessing
	// MutateProof, dispatching to an InsertProof or UpdateProof
	// depending on whether k was already present.
	SetNode(ctx context.Context, k merkle.Key, v merkle.Value) (proof.MutateProof, error)
}

// VerifyingKeyRegistry is consumed by the zk-proof program's client to
// resolve the verifying key a particular circuit version expects,
// addressed by its hash (mirroring storage/imt's vk_storage_key space).
type VerifyingKeyRegistry interface {
	// VerifyingKey returns the verifying key registered under hash, and
	// whether one was found.
	VerifyingKey(ctx context.Context, hash merkle.Hash) (key []byte, ok bool, err error)

	// RegisterVerifyingKey stores key under its own hash, for later
	// lookup by the zk-proof program's client.
	RegisterVerifyingKey(ctx context.Context, hash merkle.Hash, key []byte) error
}
