package imt

import (
	"hash"
	"testing"

	"golang.org/x/crypto/sha3"

	"github.com/keyspace-labs/imt/merkle"
	"github.com/keyspace-labs/imt/merkle/proof"
	"github.com/keyspace-labs/imt/storage/memstore"
)

type keccakHasher struct {
	h hash.Hash
}

func newKeccakHasher() merkle.Hasher {
	return &keccakHasher{h: sha3.NewLegacyKeccak256()}
}

func (k *keccakHasher) Write(p []byte) (int, error) { return k.h.Write(p) }

func (k *keccakHasher) Sum(out []byte) merkle.Hash {
	digest := k.h.Sum(out)
	var h merkle.Hash
	copy(h[:], digest)
	return h
}

func key(b byte) merkle.Key {
	var k merkle.Key
	for i := range k {
		k[i] = b
	}
	return k
}

func value(b byte) merkle.Value {
	var v merkle.Value
	for i := range v {
		v[i] = b
	}
	return v
}

func mustWriter(t *testing.T) *Writer {
	t.Helper()
	w, err := NewWriter(newKeccakHasher, memstore.New())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	return w
}

// Scenario 1: construct empty, expect size 1, depth 0, and a root equal to
// H(leaf_hash(sentinel) || size_be_64).
func TestConstructEmpty(t *testing.T) {
	w := mustWriter(t)

	if got := w.Size(); got != 1 {
		t.Fatalf("Size() = %d, want 1", got)
	}
	if got := w.Depth(); got != 0 {
		t.Fatalf("Depth() = %d, want 0", got)
	}

	sentinel := merkle.Node{}
	want := merkle.RootFromNode(newKeccakHasher, 1, sentinel, nil)
	if got := w.Root(); got != want {
		t.Fatalf("Root() = %x, want %x", got, want)
	}
}

// Scenario 2: single insert, verify against the captured pre-insert root.
func TestSingleInsert(t *testing.T) {
	w := mustWriter(t)
	oldRoot := w.Root()

	p, err := w.InsertNode(key(1), value(42))
	if err != nil {
		t.Fatalf("InsertNode: %v", err)
	}

	newRoot, err := p.Verify(newKeccakHasher, oldRoot)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if newRoot != w.Root() {
		t.Fatalf("Verify new root = %x, want %x", newRoot, w.Root())
	}
}

// Scenario 3: multi-insert sequence; every InsertProof verifies against
// its own pre-mutation root and returns the exact next root.
func TestMultiInsertSequence(t *testing.T) {
	w := mustWriter(t)

	keys := []byte{1, 2, 3, 4, 5, 10, 15, 11, 20, 16, 25}
	for _, kb := range keys {
		oldRoot := w.Root()
		p, err := w.InsertNode(key(kb), value(42))
		if err != nil {
			t.Fatalf("InsertNode(%d): %v", kb, err)
		}
		newRoot, err := p.Verify(newKeccakHasher, oldRoot)
		if err != nil {
			t.Fatalf("Verify(%d): %v", kb, err)
		}
		if newRoot != w.Root() {
			t.Fatalf("Verify(%d) new root = %x, want %x", kb, newRoot, w.Root())
		}
	}
}

// Scenario 4: repeatedly updating a stable set of keys always verifies.
func TestUpdateStability(t *testing.T) {
	w := mustWriter(t)

	for _, kb := range []byte{1, 2, 3} {
		if _, err := w.InsertNode(key(kb), value(42)); err != nil {
			t.Fatalf("InsertNode(%d): %v", kb, err)
		}
	}

	for _, kb := range []byte{1, 2, 3} {
		for i := 0; i <= 255; i++ {
			oldRoot := w.Root()
			p, err := w.UpdateNode(key(kb), value(byte(i)))
			if err != nil {
				t.Fatalf("UpdateNode(%d, %d): %v", kb, i, err)
			}
			if _, err := p.Verify(newKeccakHasher, oldRoot); err != nil {
				t.Fatalf("Verify(%d, %d): %v", kb, i, err)
			}
		}
	}
}

// Scenario 5: an ExclusionProof for an absent key verifies, but is
// invalidated by inserting that key.
func TestExclusionThenInsertionInvalidation(t *testing.T) {
	w := mustWriter(t)

	for _, kb := range []byte{1, 2, 3, 4, 5, 10, 15, 11, 20, 16, 25} {
		if _, err := w.InsertNode(key(kb), value(42)); err != nil {
			t.Fatalf("InsertNode(%d): %v", kb, err)
		}
	}

	excl, err := w.ExclusionProof(key(7))
	if err != nil {
		t.Fatalf("ExclusionProof(7): %v", err)
	}
	if err := excl.Verify(newKeccakHasher); err != nil {
		t.Fatalf("Verify(exclusion of 7) = %v, want nil", err)
	}

	if _, err := w.InsertNode(key(7), value(42)); err != nil {
		t.Fatalf("InsertNode(7): %v", err)
	}

	// The proof's embedded root is now stale; it must no longer verify
	// against the tree's current state.
	excl.Root = w.Root()
	if err := excl.Verify(newKeccakHasher); err == nil {
		t.Fatalf("Verify(stale exclusion of 7) = nil, want error")
	}
}

// Scenario 6: stale-root and invalid-witness rejection, exact error text.
func TestStaleRootAndInvalidWitnessRejection(t *testing.T) {
	w := mustWriter(t)
	oldRoot := w.Root()

	p, err := w.InsertNode(key(1), value(42))
	if err != nil {
		t.Fatalf("InsertNode: %v", err)
	}

	if _, err := p.Verify(newKeccakHasher, merkle.Hash{0xff}); err == nil || err.Error() != "ImtMutate.old_root is stale" {
		t.Fatalf("Verify(wrong old_root) err = %v, want %q", err, "ImtMutate.old_root is stale")
	}

	tamperedSiblings := *p
	tamperedSiblings.UpdatedLnSiblings = append([]*merkle.Hash{}, p.UpdatedLnSiblings...)
	if len(tamperedSiblings.UpdatedLnSiblings) == 0 {
		tamperedSiblings.UpdatedLnSiblings = make([]*merkle.Hash, 1)
	}
	bad := merkle.Hash{0xff}
	tamperedSiblings.UpdatedLnSiblings[0] = &bad
	if _, err := tamperedSiblings.Verify(newKeccakHasher, oldRoot); err == nil || err.Error() != "ImtMutate.updated_ln_siblings is invalid" {
		t.Fatalf("Verify(tampered siblings) err = %v, want %q", err, "ImtMutate.updated_ln_siblings is invalid")
	}

	fabricatedLn := *p
	fabricatedLn.LnNode = merkle.Node{Index: 42, Key: key(200), Value: value(1), NextKey: key(250)}
	if _, err := fabricatedLn.Verify(newKeccakHasher, oldRoot); err == nil || err.Error() != "ImtMutate.ln_node is invalid" {
		t.Fatalf("Verify(fabricated ln_node) err = %v, want %q", err, "ImtMutate.ln_node is invalid")
	}
}

func TestInsertNodeRejectsDuplicateKey(t *testing.T) {
	w := mustWriter(t)
	if _, err := w.InsertNode(key(1), value(42)); err != nil {
		t.Fatalf("InsertNode: %v", err)
	}
	if _, err := w.InsertNode(key(1), value(43)); err == nil {
		t.Fatalf("InsertNode(duplicate) = nil, want error")
	}
}

func TestUpdateNodeRejectsMissingKey(t *testing.T) {
	w := mustWriter(t)
	if _, err := w.UpdateNode(key(1), value(42)); err == nil {
		t.Fatalf("UpdateNode(missing key) = nil, want error")
	}
}

func TestSetNodeDispatchesInsertThenUpdate(t *testing.T) {
	w := mustWriter(t)

	mp, err := w.SetNode(key(1), value(1))
	if err != nil {
		t.Fatalf("SetNode (insert): %v", err)
	}
	if _, ok := mp.(*proof.InsertProof); !ok {
		t.Fatalf("SetNode (first call) = %T, want *proof.InsertProof", mp)
	}

	mp, err = w.SetNode(key(1), value(2))
	if err != nil {
		t.Fatalf("SetNode (update): %v", err)
	}
	if _, ok := mp.(*proof.UpdateProof); !ok {
		t.Fatalf("SetNode (second call) = %T, want *proof.UpdateProof", mp)
	}
}

func TestInclusionProofRoundTrip(t *testing.T) {
	w := mustWriter(t)
	for _, kb := range []byte{1, 2, 3} {
		if _, err := w.InsertNode(key(kb), value(42)); err != nil {
			t.Fatalf("InsertNode(%d): %v", kb, err)
		}
	}

	p, err := w.InclusionProof(key(2))
	if err != nil {
		t.Fatalf("InclusionProof: %v", err)
	}
	if err := p.Verify(newKeccakHasher); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestReaderAttachesToExistingState(t *testing.T) {
	store := memstore.New()
	w, err := NewWriter(newKeccakHasher, store)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if _, err := w.InsertNode(key(1), value(42)); err != nil {
		t.Fatalf("InsertNode: %v", err)
	}

	r, err := NewReader(newKeccakHasher, store)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if r.Root() != w.Root() {
		t.Fatalf("Reader.Root() = %x, want %x", r.Root(), w.Root())
	}
}

func TestReaderRejectsEmptyStorage(t *testing.T) {
	_, err := NewReader(newKeccakHasher, memstore.New())
	if err == nil {
		t.Fatalf("NewReader(empty storage) = nil, want error")
	}
}

func TestDepthCrossesPowerOfTwoBoundary(t *testing.T) {
	w := mustWriter(t)
	// size starts at 1 (depth 0). Inserting brings size to 2 (depth 1),
	// then 3 (depth 2), exercising the depth-increase path on both sides
	// of a power-of-two boundary.
	for i, kb := range []byte{1, 2, 3} {
		oldRoot := w.Root()
		p, err := w.InsertNode(key(kb), value(42))
		if err != nil {
			t.Fatalf("InsertNode(%d): %v", kb, err)
		}
		if _, err := p.Verify(newKeccakHasher, oldRoot); err != nil {
			t.Fatalf("Verify(%d): %v", kb, err)
		}
		wantDepth := merkle.Depth(merkle.Size(i + 2))
		if got := w.Depth(); got != wantDepth {
			t.Fatalf("after insert %d, Depth() = %d, want %d", kb, got, wantDepth)
		}
	}
}
