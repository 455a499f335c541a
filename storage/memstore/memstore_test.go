package memstore

import (
	"testing"

	"github.com/keyspace-labs/imt/storage/storagetest"
)

func TestConformance(t *testing.T) {
	storagetest.RunConformanceTests(t, func() storagetest.Backend {
		return New()
	})
}
