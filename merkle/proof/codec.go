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
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/keyspace-labs/imt/merkle"
)

// The wire format is hand-rolled rather than built on a general-purpose
// serializer: a proof emitted here must reproduce identical bytes in any
// other implementation verifying it (e.g. inside a zk circuit), which pins
// down a layout more precise than gob/protobuf/msgpack would give us for
// free. Every field is either fixed-width (hashes, keys, values) or a
// varint (sizes, indices); sibling vectors are length-prefixed with one
// presence byte per slot.

func writeHash(buf *bytes.Buffer, h merkle.Hash) {
	buf.Write(h[:])
}

func writeKey(buf *bytes.Buffer, k merkle.Key) {
	buf.Write(k[:])
}

func writeValue(buf *bytes.Buffer, v merkle.Value) {
	buf.Write(v[:])
}

func writeUvarint(buf *bytes.Buffer, v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	buf.Write(tmp[:n])
}

func writeNode(buf *bytes.Buffer, n merkle.Node) {
	writeUvarint(buf, uint64(n.Index))
	writeKey(buf, n.Key)
	writeValue(buf, n.Value)
	writeKey(buf, n.NextKey)
}

func writeSiblings(buf *bytes.Buffer, siblings []*merkle.Hash) {
	writeUvarint(buf, uint64(len(siblings)))
	for _, s := range siblings {
		if s == nil {
			buf.WriteByte(0)
			continue
		}
		buf.WriteByte(1)
		writeHash(buf, *s)
	}
}

func readHash(r *bytes.Reader) (merkle.Hash, error) {
	var h merkle.Hash
	if _, err := io.ReadFull(r, h[:]); err != nil {
		return merkle.Hash{}, fmt.Errorf("proof: reading hash: %w", err)
	}
	return h, nil
}

func readKey(r *bytes.Reader) (merkle.Key, error) {
	var k merkle.Key
	if _, err := io.ReadFull(r, k[:]); err != nil {
		return merkle.Key{}, fmt.Errorf("proof: reading key: %w", err)
	}
	return k, nil
}

func readValue(r *bytes.Reader) (merkle.Value, error) {
	var v merkle.Value
	if _, err := io.ReadFull(r, v[:]); err != nil {
		return merkle.Value{}, fmt.Errorf("proof: reading value: %w", err)
	}
	return v, nil
}

func readNode(r *bytes.Reader) (merkle.Node, error) {
	index, err := binary.ReadUvarint(r)
	if err != nil {
		return merkle.Node{}, fmt.Errorf("proof: reading node index: %w", err)
	}
	key, err := readKey(r)
	if err != nil {
		return merkle.Node{}, err
	}
	value, err := readValue(r)
	if err != nil {
		return merkle.Node{}, err
	}
	nextKey, err := readKey(r)
	if err != nil {
		return merkle.Node{}, err
	}
	return merkle.Node{Index: merkle.Index(index), Key: key, Value: value, NextKey: nextKey}, nil
}

func readSiblings(r *bytes.Reader) ([]*merkle.Hash, error) {
	n, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("proof: reading sibling count: %w", err)
	}
	siblings := make([]*merkle.Hash, n)
	for i := range siblings {
		present, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("proof: reading sibling presence byte: %w", err)
		}
		if present == 0 {
			continue
		}
		h, err := readHash(r)
		if err != nil {
			return nil, err
		}
		siblings[i] = &h
	}
	return siblings, nil
}

// MarshalInclusionProof encodes p to the deterministic wire format.
func MarshalInclusionProof(p *InclusionProof) []byte {
	var buf bytes.Buffer
	writeHash(&buf, p.Root)
	writeUvarint(&buf, uint64(p.Size))
	writeNode(&buf, p.Node)
	writeSiblings(&buf, p.Siblings)
	return buf.Bytes()
}

// UnmarshalInclusionProof decodes an InclusionProof produced by
// MarshalInclusionProof.
func UnmarshalInclusionProof(b []byte) (*InclusionProof, error) {
	r := bytes.NewReader(b)

	root, err := readHash(r)
	if err != nil {
		return nil, err
	}
	size, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("proof: reading size: %w", err)
	}
	node, err := readNode(r)
	if err != nil {
		return nil, err
	}
	siblings, err := readSiblings(r)
	if err != nil {
		return nil, err
	}
	return &InclusionProof{Root: root, Size: merkle.Size(size), Node: node, Siblings: siblings}, nil
}

// MarshalExclusionProof encodes p to the deterministic wire format.
func MarshalExclusionProof(p *ExclusionProof) []byte {
	var buf bytes.Buffer
	writeHash(&buf, p.Root)
	writeUvarint(&buf, uint64(p.Size))
	writeNode(&buf, p.LnNode)
	writeSiblings(&buf, p.LnSiblings)
	writeKey(&buf, p.NodeKey)
	return buf.Bytes()
}

// UnmarshalExclusionProof decodes an ExclusionProof produced by
// MarshalExclusionProof.
func UnmarshalExclusionProof(b []byte) (*ExclusionProof, error) {
	r := bytes.NewReader(b)

	root, err := readHash(r)
	if err != nil {
		return nil, err
	}
	size, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("proof: reading size: %w", err)
	}
	lnNode, err := readNode(r)
	if err != nil {
		return nil, err
	}
	lnSiblings, err := readSiblings(r)
	if err != nil {
		return nil, err
	}
	nodeKey, err := readKey(r)
	if err != nil {
		return nil, err
	}
	return &ExclusionProof{
		Root: root, Size: merkle.Size(size),
		LnNode: lnNode, LnSiblings: lnSiblings,
		NodeKey: nodeKey,
	}, nil
}

// MarshalInsertProof encodes p to the deterministic wire format.
func MarshalInsertProof(p *InsertProof) []byte {
	var buf bytes.Buffer
	writeHash(&buf, p.OldRoot)
	writeUvarint(&buf, uint64(p.OldSize))
	writeNode(&buf, p.LnNode)
	writeSiblings(&buf, p.LnSiblings)
	writeNode(&buf, p.Node)
	writeSiblings(&buf, p.NodeSiblings)
	writeSiblings(&buf, p.UpdatedLnSiblings)
	return buf.Bytes()
}

// UnmarshalInsertProof decodes an InsertProof produced by
// MarshalInsertProof.
func UnmarshalInsertProof(b []byte) (*InsertProof, error) {
	r := bytes.NewReader(b)

	oldRoot, err := readHash(r)
	if err != nil {
		return nil, err
	}
	oldSize, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("proof: reading old_size: %w", err)
	}
	lnNode, err := readNode(r)
	if err != nil {
		return nil, err
	}
	lnSiblings, err := readSiblings(r)
	if err != nil {
		return nil, err
	}
	node, err := readNode(r)
	if err != nil {
		return nil, err
	}
	nodeSiblings, err := readSiblings(r)
	if err != nil {
		return nil, err
	}
	updatedLnSiblings, err := readSiblings(r)
	if err != nil {
		return nil, err
	}
	return &InsertProof{
		OldRoot: oldRoot, OldSize: merkle.Size(oldSize),
		LnNode: lnNode, LnSiblings: lnSiblings,
		Node: node, NodeSiblings: nodeSiblings,
		UpdatedLnSiblings: updatedLnSiblings,
	}, nil
}

// MarshalUpdateProof encodes p to the deterministic wire format.
func MarshalUpdateProof(p *UpdateProof) []byte {
	var buf bytes.Buffer
	writeHash(&buf, p.OldRoot)
	writeUvarint(&buf, uint64(p.Size))
	writeNode(&buf, p.Node)
	writeSiblings(&buf, p.NodeSiblings)
	writeValue(&buf, p.NewValue)
	return buf.Bytes()
}

// UnmarshalUpdateProof decodes an UpdateProof produced by
// MarshalUpdateProof.
func UnmarshalUpdateProof(b []byte) (*UpdateProof, error) {
	r := bytes.NewReader(b)

	oldRoot, err := readHash(r)
	if err != nil {
		return nil, err
	}
	size, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("proof: reading size: %w", err)
	}
	node, err := readNode(r)
	if err != nil {
		return nil, err
	}
	nodeSiblings, err := readSiblings(r)
	if err != nil {
		return nil, err
	}
	newValue, err := readValue(r)
	if err != nil {
		return nil, err
	}
	return &UpdateProof{
		OldRoot: oldRoot, Size: merkle.Size(size),
		Node: node, NodeSiblings: nodeSiblings,
		NewValue: newValue,
	}, nil
}
