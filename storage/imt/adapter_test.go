package imt

import (
	"testing"

	"github.com/keyspace-labs/imt/merkle"
	"github.com/keyspace-labs/imt/storage/memstore"
)

func key(b byte) merkle.Key {
	var k merkle.Key
	k[31] = b
	return k
}

func TestAdapterNodeRoundTrip(t *testing.T) {
	store := memstore.New()
	a := NewWriter(store)

	n := merkle.Node{Index: 3, Key: key(5), Value: merkle.Value{1, 2, 3}, NextKey: key(9)}
	a.SetNode(n)

	got, ok, err := a.GetNode(key(5))
	if err != nil {
		t.Fatalf("GetNode: %v", err)
	}
	if !ok {
		t.Fatalf("GetNode(5) not found")
	}
	if got != n {
		t.Fatalf("GetNode(5) = %+v, want %+v", got, n)
	}
}

func TestAdapterGetLowNullifier(t *testing.T) {
	store := memstore.New()
	a := NewWriter(store)

	a.SetNode(merkle.Node{Index: 0, Key: key(0), Value: merkle.Value{}, NextKey: key(10)})
	a.SetNode(merkle.Node{Index: 1, Key: key(10), Value: merkle.Value{}, NextKey: key(20)})
	a.SetNode(merkle.Node{Index: 2, Key: key(20), Value: merkle.Value{}, NextKey: merkle.Key{}})

	ln, ok, err := a.GetLowNullifier(key(15))
	if err != nil {
		t.Fatalf("GetLowNullifier: %v", err)
	}
	if !ok {
		t.Fatalf("GetLowNullifier(15) not found")
	}
	if ln.Key != key(10) {
		t.Fatalf("GetLowNullifier(15).Key = %x, want %x", ln.Key, key(10))
	}

	if !ln.IsLowNullifierOf(key(15)) {
		t.Fatalf("node found by GetLowNullifier(15) does not self-report as a low nullifier")
	}
}

func TestAdapterGetLowNullifierDoesNotLeakAcrossPrefix(t *testing.T) {
	store := memstore.New()
	a := NewWriter(store)

	// Only the sentinel node exists; size/root/vk keys sort after all node
	// keys, so GetLowNullifier must never return one of them.
	a.SetNode(merkle.Node{Index: 0, Key: key(0), Value: merkle.Value{}, NextKey: merkle.Key{}})
	a.SetSize(1)
	a.SetRoot(merkle.Hash{0xff})

	ln, ok, err := a.GetLowNullifier(key(1))
	if err != nil {
		t.Fatalf("GetLowNullifier: %v", err)
	}
	if !ok || ln.Key != key(0) {
		t.Fatalf("GetLowNullifier(1) = %+v, %v, want sentinel, true", ln, ok)
	}
}

func TestAdapterSizeAndRoot(t *testing.T) {
	store := memstore.New()
	a := NewWriter(store)

	if _, ok := a.GetSize(); ok {
		t.Fatalf("GetSize on empty adapter = found, want not found")
	}

	a.SetSize(7)
	size, ok := a.GetSize()
	if !ok || size != 7 {
		t.Fatalf("GetSize = %v, %v, want 7, true", size, ok)
	}

	root := merkle.Hash{1, 2, 3}
	a.SetRoot(root)
	got, ok := a.GetRoot()
	if !ok || got != root {
		t.Fatalf("GetRoot = %x, %v, want %x, true", got, ok, root)
	}
}

func TestAdapterSizeIsStoredLittleEndian(t *testing.T) {
	store := memstore.New()
	a := NewWriter(store)

	a.SetSize(1)

	raw, ok := store.Get(sizeStorageKey())
	if !ok {
		t.Fatalf("raw size entry not found")
	}
	want := []byte{0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	if string(raw) != string(want) {
		t.Fatalf("raw size bytes = % x, want % x (little-endian)", raw, want)
	}
}

func TestAdapterHashCache(t *testing.T) {
	store := memstore.New()
	a := NewWriter(store)

	if _, ok := a.GetHash(2, 5); ok {
		t.Fatalf("GetHash on empty adapter = found, want not found")
	}

	h := merkle.Hash{9, 9, 9}
	a.SetHash(2, 5, h)
	got, ok := a.GetHash(2, 5)
	if !ok || got != h {
		t.Fatalf("GetHash(2, 5) = %x, %v, want %x, true", got, ok, h)
	}
}

func TestAdapterVerifyingKeyRegistry(t *testing.T) {
	store := memstore.New()
	a := NewWriter(store)

	vkHash := [32]byte{1}
	vk := []byte("verifying key bytes")
	a.SetVerifyingKey(vkHash, vk)

	got, ok := a.GetVerifyingKey(vkHash)
	if !ok || string(got) != string(vk) {
		t.Fatalf("GetVerifyingKey = %q, %v, want %q, true", got, ok, vk)
	}
}

func TestAdapterReadOnlyPanicsOnWrite(t *testing.T) {
	store := memstore.New()
	a := NewReader(store)

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("SetSize on a read-only adapter did not panic")
		}
	}()
	a.SetSize(1)
}
