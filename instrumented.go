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

package imt

import (
	"context"
	"time"

	"github.com/keyspace-labs/imt/merkle"
	"github.com/keyspace-labs/imt/merkle/proof"
	"github.com/keyspace-labs/imt/metrics"
	"github.com/keyspace-labs/imt/tracing"
)

// InstrumentedWriter decorates a Writer with metrics and tracing, so a
// service embedding the engine gets both for free instead of wiring each
// operation by hand.
type InstrumentedWriter struct {
	*Writer
	recorder *metrics.Recorder
}

// Instrument wraps w, recording metrics to recorder (which may be nil).
func Instrument(w *Writer, recorder *metrics.Recorder) *InstrumentedWriter {
	return &InstrumentedWriter{Writer: w, recorder: recorder}
}

// InsertNode traces and instruments Writer.InsertNode.
func (w *InstrumentedWriter) InsertNode(ctx context.Context, k merkle.Key, v merkle.Value) (*proof.InsertProof, error) {
	_, span := tracing.StartSpan(ctx, "insert_node", k)
	defer span.End()

	start := time.Now()
	p, err := w.Writer.InsertNode(k, v)
	w.recorder.ObserveOp(metrics.OpInsert, time.Since(start).Seconds(), err)
	w.recorder.SetSize(uint64(w.Size()))
	if err == nil {
		tracing.SetRoot(span, w.Root())
	}
	tracing.SetError(span, err)

	return p, err
}

// UpdateNode traces and instruments Writer.UpdateNode.
func (w *InstrumentedWriter) UpdateNode(ctx context.Context, k merkle.Key, v merkle.Value) (*proof.UpdateProof, error) {
	_, span := tracing.StartSpan(ctx, "update_node", k)
	defer span.End()

	start := time.Now()
	p, err := w.Writer.UpdateNode(k, v)
	w.recorder.ObserveOp(metrics.OpUpdate, time.Since(start).Seconds(), err)
	if err == nil {
		tracing.SetRoot(span, w.Root())
	}
	tracing.SetError(span, err)

	return p, err
}

// NodeProof traces and instruments core.NodeProof.
func (w *InstrumentedWriter) NodeProof(ctx context.Context, k merkle.Key) (proof.NodeProof, error) {
	_, span := tracing.StartSpan(ctx, "node_proof", k)
	defer span.End()

	start := time.Now()
	p, err := w.Writer.NodeProof(k)
	w.recorder.ObserveOp(metrics.OpNodeProof, time.Since(start).Seconds(), err)
	tracing.SetError(span, err)

	return p, err
}
