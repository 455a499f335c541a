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

// Package imthash provides concrete merkle.Hasher factories. The engine
// itself never hard-codes a hash function; this package supplies the
// Keccak-256 sponge the reference test fixtures are built around, plus a
// SHA3-256 alternative, wired through golang.org/x/crypto.
package imthash

import (
	"golang.org/x/crypto/sha3"

	"github.com/keyspace-labs/imt/merkle"
)

type sponge struct {
	h interface {
		Write([]byte) (int, error)
		Sum([]byte) []byte
	}
}

func (s *sponge) Write(p []byte) (int, error) { return s.h.Write(p) }

func (s *sponge) Sum(out []byte) merkle.Hash {
	var h merkle.Hash
	copy(h[:], s.h.Sum(out))
	return h
}

// Keccak256 is a merkle.HasherFactory producing the legacy Keccak-256 sponge
// used throughout the reference test suite (NIST SHA3 finalists changed
// their padding after Keccak was adopted by Ethereum; LegacyKeccak256
// reproduces the pre-standardization variant).
func Keccak256() merkle.Hasher {
	return &sponge{h: sha3.NewLegacyKeccak256()}
}

// SHA3256 is a merkle.HasherFactory using the standardized SHA3-256 sponge,
// offered as a drop-in alternative to demonstrate that the engine is not
// hard-coded to Keccak.
func SHA3256() merkle.Hasher {
	return &sponge{h: sha3.New256()}
}
