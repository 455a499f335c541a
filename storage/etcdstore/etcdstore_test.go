package etcdstore

import (
	"os"
	"strings"
	"testing"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/keyspace-labs/imt/storage/storagetest"
)

// Conformance against a real etcd cluster is gated behind an env var,
// matching sqlstore's pattern of skipping backend-specific tests when no
// live instance is configured for the environment.
func TestConformance(t *testing.T) {
	endpoints := os.Getenv("IMT_TEST_ETCD_ENDPOINTS")
	if endpoints == "" {
		t.Skip("IMT_TEST_ETCD_ENDPOINTS not set; skipping etcd-backed conformance test")
	}

	n := 0
	storagetest.RunConformanceTests(t, func() storagetest.Backend {
		n++
		cli, err := clientv3.New(clientv3.Config{
			Endpoints:   strings.Split(endpoints, ","),
			DialTimeout: 5 * time.Second,
		})
		if err != nil {
			t.Fatalf("clientv3.New: %v", err)
		}
		return New(cli, "/imt/store_test/")
	})
}
