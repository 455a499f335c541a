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

// Package metrics instruments indexed Merkle tree operations with
// Prometheus counters and histograms, following the reference's
// convention of naming metrics after the mutation or proof they measure.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Op identifies an instrumented engine operation.
type Op string

const (
	OpInsert         Op = "insert"
	OpUpdate         Op = "update"
	OpInclusionProof Op = "inclusion_proof"
	OpExclusionProof Op = "exclusion_proof"
	OpNodeProof      Op = "node_proof"
)

// Recorder wraps the Prometheus collectors an imt.Writer/Reader reports
// through. A nil *Recorder is safe to call methods on; they become no-ops,
// so instrumentation can be threaded through without forcing every caller
// to construct a registry.
type Recorder struct {
	mutations   *prometheus.CounterVec
	mutationErr *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	treeSize    prometheus.Gauge
}

// NewRecorder registers the imt collectors with reg and returns a Recorder
// bound to them.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "imt",
			Name:      "operations_total",
			Help:      "Number of indexed Merkle tree operations, by kind.",
		}, []string{"op"}),
		mutationErr: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "imt",
			Name:      "operation_errors_total",
			Help:      "Number of indexed Merkle tree operations that returned an error, by kind.",
		}, []string{"op"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "imt",
			Name:      "operation_duration_seconds",
			Help:      "Latency of indexed Merkle tree operations, by kind.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		treeSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "imt",
			Name:      "size",
			Help:      "Current indexed Merkle tree size, including the sentinel.",
		}),
	}

	reg.MustRegister(r.mutations, r.mutationErr, r.duration, r.treeSize)
	return r
}

// ObserveOp records that op ran for the given seconds, incrementing the error
// counter too if err is non-nil.
func (r *Recorder) ObserveOp(op Op, seconds float64, err error) {
	if r == nil {
		return
	}
	r.mutations.WithLabelValues(string(op)).Inc()
	r.duration.WithLabelValues(string(op)).Observe(seconds)
	if err != nil {
		r.mutationErr.WithLabelValues(string(op)).Inc()
	}
}

// SetSize records the tree's current size.
func (r *Recorder) SetSize(size uint64) {
	if r == nil {
		return
	}
	r.treeSize.Set(float64(size))
}
