package rediscache

import (
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis"

	"github.com/keyspace-labs/imt/storage/memstore"
)

// Conformance against a real Redis instance is gated behind an env var,
// matching sqlstore's and etcdstore's pattern.
func TestGetSetThrough(t *testing.T) {
	addr := os.Getenv("IMT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("IMT_TEST_REDIS_ADDR not set; skipping redis-backed cache test")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	backend := memstore.New()
	cache := New(backend, rdb, "imt_cache_test:", time.Minute)

	if _, ok := cache.Get([]byte("missing")); ok {
		t.Fatalf("Get(missing) = found, want not found")
	}

	cache.Set([]byte("k"), []byte("v1"))
	if v, ok := cache.Get([]byte("k")); !ok || string(v) != "v1" {
		t.Fatalf("Get(k) = %q, %v, want v1, true", v, ok)
	}

	// A second Get should be served from Redis without touching backend;
	// verify indirectly by mutating the backend directly and confirming
	// the cached value still wins until invalidated by Set.
	backend.Set([]byte("k"), []byte("v2-direct"))
	if v, ok := cache.Get([]byte("k")); !ok || string(v) != "v1" {
		t.Fatalf("Get(k) after direct backend write = %q, %v, want cached v1, true", v, ok)
	}

	cache.Set([]byte("k"), []byte("v3"))
	if v, ok := cache.Get([]byte("k")); !ok || string(v) != "v3" {
		t.Fatalf("Get(k) after Set invalidation = %q, %v, want v3, true", v, ok)
	}
}

func TestGetLTPassesThrough(t *testing.T) {
	addr := os.Getenv("IMT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("IMT_TEST_REDIS_ADDR not set; skipping redis-backed cache test")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	backend := memstore.New()
	backend.Set([]byte("a"), []byte("1"))
	backend.Set([]byte("c"), []byte("3"))
	cache := New(backend, rdb, "imt_cache_test2:", time.Minute)

	k, v, ok := cache.GetLT([]byte("b"))
	if !ok || string(k) != "a" || string(v) != "1" {
		t.Fatalf("GetLT(b) = %q, %q, %v, want a, 1, true", k, v, ok)
	}
}
