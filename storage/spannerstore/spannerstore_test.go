package spannerstore

import (
	"context"
	"os"
	"testing"

	"cloud.google.com/go/spanner"

	"github.com/keyspace-labs/imt/storage/storagetest"
)

// Conformance against a real Spanner database is gated behind an env var,
// matching sqlstore's and etcdstore's pattern of skipping backend-specific
// tests when no live instance is configured for the environment.
func TestConformance(t *testing.T) {
	db := os.Getenv("IMT_TEST_SPANNER_DATABASE")
	if db == "" {
		t.Skip("IMT_TEST_SPANNER_DATABASE not set; skipping Spanner-backed conformance test")
	}

	storagetest.RunConformanceTests(t, func() storagetest.Backend {
		client, err := spanner.NewClient(context.Background(), db)
		if err != nil {
			t.Fatalf("spanner.NewClient: %v", err)
		}
		return New(client, "imt_store_test")
	})
}
