package merkle

import (
	"testing"

	"golang.org/x/crypto/sha3"
)

type keccakHasher struct {
	sponge interface {
		Write([]byte) (int, error)
		Sum([]byte) []byte
	}
}

func newKeccakHasher() Hasher {
	return &keccakHasher{sponge: sha3.NewLegacyKeccak256()}
}

func (k *keccakHasher) Write(p []byte) (int, error) { return k.sponge.Write(p) }
func (k *keccakHasher) Sum(out []byte) Hash {
	var h Hash
	copy(h[:], k.sponge.Sum(out))
	return h
}

func repeat(b byte) [32]byte {
	var a [32]byte
	for i := range a {
		a[i] = b
	}
	return a
}

func TestNodeHash(t *testing.T) {
	node := Node{
		Index:   0,
		Key:     repeat(1),
		Value:   repeat(2),
		NextKey: repeat(3),
	}

	got := node.Hash(newKeccakHasher)

	s := sha3.NewLegacyKeccak256()
	s.Write(node.Key[:])
	s.Write(node.Value[:])
	s.Write(node.NextKey[:])
	var want Hash
	copy(want[:], s.Sum(nil))

	if got != want {
		t.Errorf("Hash() = %x, want %x", got, want)
	}
}

func TestNodeHashExcludesIndex(t *testing.T) {
	a := Node{Index: 0, Key: repeat(1), Value: repeat(2), NextKey: repeat(3)}
	b := Node{Index: 99, Key: repeat(1), Value: repeat(2), NextKey: repeat(3)}

	if a.Hash(newKeccakHasher) != b.Hash(newKeccakHasher) {
		t.Error("leaf hash must not depend on Index")
	}
}

func TestIsLowNullifierOf(t *testing.T) {
	ln := Node{Index: 0, Key: repeat(0), Value: repeat(0), NextKey: repeat(0)}

	if !ln.IsLowNullifierOf(repeat(5)) {
		t.Error("sentinel with next_key=0 should be ln of any larger key")
	}

	ln.NextKey = repeat(10)
	if !ln.IsLowNullifierOf(repeat(2)) {
		t.Error("expected ln.key < node_key < ln.next_key to hold")
	}

	if ln.IsLowNullifierOf(repeat(11)) {
		t.Error("next_key < node_key must not be ln")
	}

	ln.Key = repeat(12)
	if ln.IsLowNullifierOf(repeat(3)) {
		t.Error("ln.key > node_key must not be ln")
	}
}

func TestDepth(t *testing.T) {
	cases := []struct {
		size Size
		want Level
	}{
		{1, 0},
		{2, 1},
		{3, 2},
		{4, 2},
		{5, 3},
		{8, 3},
		{9, 4},
	}
	for _, c := range cases {
		if got := Depth(c.size); got != c.want {
			t.Errorf("Depth(%d) = %d, want %d", c.size, got, c.want)
		}
	}
}
