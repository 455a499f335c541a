package imt

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/keyspace-labs/imt/metrics"
)

func TestInstrumentedWriterRecordsMetrics(t *testing.T) {
	w := mustWriter(t)
	reg := prometheus.NewRegistry()
	iw := Instrument(w, metrics.NewRecorder(reg))

	ctx := context.Background()
	if _, err := iw.InsertNode(ctx, key(1), value(1)); err != nil {
		t.Fatalf("InsertNode: %v", err)
	}
	if _, err := iw.UpdateNode(ctx, key(1), value(2)); err != nil {
		t.Fatalf("UpdateNode: %v", err)
	}
	if _, err := iw.NodeProof(ctx, key(1)); err != nil {
		t.Fatalf("NodeProof: %v", err)
	}
	if _, err := iw.InsertNode(ctx, key(1), value(3)); err == nil {
		t.Fatal("InsertNode: expected error on duplicate key, got nil")
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	var sawInsert, sawErr bool
	for _, f := range families {
		if f.GetName() != "imt_operations_total" && f.GetName() != "imt_operation_errors_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() != "op" || l.GetValue() != "insert" {
					continue
				}
				if f.GetName() == "imt_operations_total" {
					sawInsert = true
				} else {
					sawErr = true
				}
			}
		}
	}
	if !sawInsert {
		t.Fatal("imt_operations_total{op=insert} was not recorded")
	}
	if !sawErr {
		t.Fatal("imt_operation_errors_total{op=insert} was not recorded")
	}
}

func TestInstrumentedWriterWithNilRecorder(t *testing.T) {
	w := mustWriter(t)
	iw := Instrument(w, nil)

	if _, err := iw.InsertNode(context.Background(), key(1), value(1)); err != nil {
		t.Fatalf("InsertNode: %v", err)
	}
}
