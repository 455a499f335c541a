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

// Package tracing wraps indexed Merkle tree operations in OpenCensus
// spans, following the reference's pattern of tagging each traced
// operation with the domain entity it touches (here, the node key).
package tracing

import (
	"context"
	"encoding/hex"

	"go.opencensus.io/trace"

	"github.com/keyspace-labs/imt/merkle"
)

const tracerName = "github.com/keyspace-labs/imt"

// StartSpan starts a span named "<tracerName>/<op>" tagged with the node
// key. The caller must End() the returned span.
func StartSpan(ctx context.Context, op string, key merkle.Key) (context.Context, *trace.Span) {
	ctx, span := trace.StartSpan(ctx, tracerName+"/"+op)
	span.AddAttributes(trace.StringAttribute("imt.key", hex.EncodeToString(key[:])))
	return ctx, span
}

// SetRoot annotates span with the tree root a traced operation produced.
func SetRoot(span *trace.Span, root merkle.Hash) {
	span.AddAttributes(trace.StringAttribute("imt.root", hex.EncodeToString(root[:])))
}

// SetError annotates span with err and marks the span as failed, if err
// is non-nil.
func SetError(span *trace.Span, err error) {
	if err == nil {
		return
	}
	span.AddAttributes(trace.StringAttribute("imt.error", err.Error()))
	span.SetStatus(trace.Status{Code: trace.StatusCodeUnknown, Message: err.Error()})
}
