package runner

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/sheerbytes/thrubench/internal/config"
	"github.com/sheerbytes/thrubench/internal/sink"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunMemcopy(t *testing.T) {
	cfg := config.RunConfig{
		Workloads: []config.WorkloadSpec{
			{Kind: "memcopy", Workers: 3, Ops: 200, ChunkBytes: 64 * 1024},
		},
	}

	var results bytes.Buffer
	run, err := Run(context.Background(), cfg, testLogger(), &results, io.Discard)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if run.ID == "" {
		t.Fatal("run id missing")
	}
	if len(run.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(run.Results))
	}

	res := run.Results[0]
	if res.Workload != "memcopy" || res.Workers != 3 || res.Ops != 200 {
		t.Fatalf("unexpected result metadata: %+v", res)
	}
	if res.Failed != 0 {
		t.Fatalf("expected no failed ops, got %d", res.Failed)
	}
	if res.Summary.MicrosPerOp < 0 {
		t.Fatalf("negative latency: %f", res.Summary.MicrosPerOp)
	}
	if res.Summary.BytesPerSecond <= 0 {
		t.Fatalf("expected positive throughput, got %f", res.Summary.BytesPerSecond)
	}

	line := results.String()
	if !strings.Contains(line, "memcopy") || !strings.Contains(line, "micros/op") {
		t.Fatalf("unexpected result line: %q", line)
	}
}

func TestRunTCPAgainstSink(t *testing.T) {
	s := sink.New(testLogger())
	if err := s.Start(sink.Config{TCPAddr: "127.0.0.1:0"}); err != nil {
		t.Fatalf("start sink: %v", err)
	}
	defer s.Close()

	cfg := config.RunConfig{
		TCPAddr: s.TCPAddr(),
		Workloads: []config.WorkloadSpec{
			{Kind: "tcp", Workers: 2, Ops: 20, ChunkBytes: 32 * 1024},
		},
	}

	run, err := Run(context.Background(), cfg, testLogger(), io.Discard, io.Discard)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(run.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(run.Results))
	}
	res := run.Results[0]
	if res.Failed != 0 {
		t.Fatalf("expected no failed ops, got %d", res.Failed)
	}
	if res.Summary.BytesPerSecond <= 0 {
		t.Fatalf("expected positive throughput, got %f", res.Summary.BytesPerSecond)
	}
}

func TestRunUnknownWorkload(t *testing.T) {
	cfg := config.RunConfig{
		Workloads: []config.WorkloadSpec{
			{Kind: "teleport", Workers: 1, Ops: 1, ChunkBytes: 64},
		},
	}
	if _, err := Run(context.Background(), cfg, testLogger(), io.Discard, io.Discard); err == nil {
		t.Fatal("expected error for unknown workload kind")
	}
}

func TestRunSkipsNeverExecutedWorkload(t *testing.T) {
	// The TCP workload points at a dead address: every Setup fails, the
	// merged stats stay empty and the workload is dropped from the report
	// while the rest of the run continues.
	cfg := config.RunConfig{
		TCPAddr: "127.0.0.1:1", // nothing listens here
		Workloads: []config.WorkloadSpec{
			{Kind: "tcp", Workers: 2, Ops: 5, ChunkBytes: 1024},
			{Kind: "memcopy", Workers: 1, Ops: 5, ChunkBytes: 1024},
		},
	}

	run, err := Run(context.Background(), cfg, testLogger(), io.Discard, io.Discard)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(run.Results) != 1 {
		t.Fatalf("expected only the memcopy result, got %d", len(run.Results))
	}
	if run.Results[0].Workload != "memcopy" {
		t.Fatalf("unexpected surviving workload: %s", run.Results[0].Workload)
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := config.RunConfig{
		Workloads: []config.WorkloadSpec{
			{Kind: "memcopy", Workers: 1, Ops: 1 << 30, ChunkBytes: 64},
		},
	}
	if _, err := Run(ctx, cfg, testLogger(), io.Discard, io.Discard); err == nil {
		t.Fatal("expected context error")
	}
}
