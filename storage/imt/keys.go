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

import "encoding/binary"

// Storage keys are prefixed so that their lexicographic ordering inside a
// single flat keyspace matches the ordering get_lt depends on: "0" <
// "0000001" < "1". Node keys MUST sort before every other prefix, since
// GetLowNullifier relies on GetLT landing on a node entry and not, say, a
// cached hash or the size counter.
const (
	nodePrefix = 0x00
	hashPrefix = 0x01
	sizePrefix = 0x02
	rootPrefix = 0x03
	vkPrefix   = 0x04
)

func nodeStorageKey(key [32]byte) []byte {
	out := make([]byte, 1+32)
	out[0] = nodePrefix
	copy(out[1:], key[:])
	return out
}

func hashStorageKey(level uint8, index uint64) []byte {
	out := make([]byte, 1+1+8)
	out[0] = hashPrefix
	out[1] = level
	binary.BigEndian.PutUint64(out[2:], index)
	return out
}

func sizeStorageKey() []byte {
	return []byte{sizePrefix}
}

func rootStorageKey() []byte {
	return []byte{rootPrefix}
}

// vkStorageKey returns the key under which a verifying key's bytes are
// stored, indexed by a hash of the key itself. This side table piggybacks
// on the same keyspace as node/hash/size/root data, following the
// reference's verifying-key registry, so a single storage.Writer serves
// both the tree and its verifying-key lookups.
func vkStorageKey(vkHash [32]byte) []byte {
	out := make([]byte, 1+32)
	out[0] = vkPrefix
	copy(out[1:], vkHash[:])
	return out
}
