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

// imtctl drives an in-memory indexed Merkle tree from a script of
// operations, printing the root after each mutation and the wire-encoded
// proof for each query. It exists to exercise the library end-to-end, not
// as a production sequencer front-end: persistence, RPC, and the
// zk-proof program live outside this module (see package rpc).
package main

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/keyspace-labs/imt"
	"github.com/keyspace-labs/imt/imthash"
	"github.com/keyspace-labs/imt/merkle"
	"github.com/keyspace-labs/imt/merkle/proof"
	"github.com/keyspace-labs/imt/metrics"
	"github.com/keyspace-labs/imt/storage/memstore"
)

func main() {
	app := &cli.App{
		Name:  "imtctl",
		Usage: "drive an indexed Merkle tree from a script of operations",
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "execute a script of insert/update/prove lines against a fresh tree",
				ArgsUsage: "<script-file>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "metrics", Usage: "print Prometheus counters after the run"},
				},
				Action: runScript,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		glog.Exitf("imtctl: %v", err)
	}
}

func runScript(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return cli.Exit("usage: imtctl run <script-file>", 1)
	}

	f, err := os.Open(c.Args().First())
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer f.Close()

	writer, err := imt.NewWriter(imthash.Keccak256, memstore.New())
	if err != nil {
		return cli.Exit(fmt.Errorf("imt.NewWriter: %w", err), 1)
	}

	registry := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(registry)

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := execLine(writer, recorder, line); err != nil {
			return cli.Exit(fmt.Errorf("line %d: %w", lineNo, err), 1)
		}
	}
	if err := scanner.Err(); err != nil {
		return cli.Exit(err, 1)
	}

	glog.V(1).Infof("final root: %x, size: %d", writer.Root(), writer.Size())

	if c.Bool("metrics") {
		families, err := registry.Gather()
		if err != nil {
			return cli.Exit(fmt.Errorf("gathering metrics: %w", err), 1)
		}
		for _, f := range families {
			fmt.Printf("# %s: %s\n", f.GetName(), f.GetHelp())
			for _, m := range f.GetMetric() {
				fmt.Printf("  %v\n", m)
			}
		}
	}
	return nil
}

func opStart() time.Time { return time.Now() }

func opDuration(start time.Time) float64 { return time.Since(start).Seconds() }

func execLine(w *imt.Writer, recorder *metrics.Recorder, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	op := fields[0]
	switch op {
	case "insert", "update":
		if len(fields) != 3 {
			return fmt.Errorf("%s requires <key> <value>", op)
		}
		k, err := parseKey(fields[1])
		if err != nil {
			return err
		}
		v, err := parseValue(fields[2])
		if err != nil {
			return err
		}

		start := opStart()
		var opErr error
		if op == "insert" {
			_, opErr = w.InsertNode(k, v)
			recorder.ObserveOp(metrics.OpInsert, opDuration(start), opErr)
		} else {
			_, opErr = w.UpdateNode(k, v)
			recorder.ObserveOp(metrics.OpUpdate, opDuration(start), opErr)
		}
		if opErr != nil {
			return opErr
		}
		recorder.SetSize(uint64(w.Size()))
		fmt.Printf("%s %s -> root %x\n", op, fields[1], w.Root())

	case "prove":
		if len(fields) != 2 {
			return fmt.Errorf("prove requires <key>")
		}
		k, err := parseKey(fields[1])
		if err != nil {
			return err
		}

		start := opStart()
		p, err := w.NodeProof(k)
		recorder.ObserveOp(metrics.OpNodeProof, opDuration(start), err)
		if err != nil {
			return err
		}
		fmt.Printf("prove %s -> %s\n", fields[1], encodeNodeProof(p))

	default:
		return fmt.Errorf("unknown operation %q", op)
	}
	return nil
}

func encodeNodeProof(p proof.NodeProof) string {
	switch v := p.(type) {
	case *proof.InclusionProof:
		return "inclusion:" + hex.EncodeToString(proof.MarshalInclusionProof(v))
	case *proof.ExclusionProof:
		return "exclusion:" + hex.EncodeToString(proof.MarshalExclusionProof(v))
	default:
		return fmt.Sprintf("unknown proof type %T", p)
	}
}

func parseKey(s string) (merkle.Key, error) {
	var k merkle.Key
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(k) {
		return k, fmt.Errorf("key %q: want %d hex bytes", s, len(k))
	}
	copy(k[:], b)
	return k, nil
}

func parseValue(s string) (merkle.Value, error) {
	var v merkle.Value
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(v) {
		return v, fmt.Errorf("value %q: want %d hex bytes", s, len(v))
	}
	copy(v[:], b)
	return v, nil
}

