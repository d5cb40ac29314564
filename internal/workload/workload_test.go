package workload

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/sheerbytes/thrubench/internal/bufpool"
)

func testOptions(chunk int) Options {
	return Options{
		Chunks: bufpool.New(chunk),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestKindsSorted(t *testing.T) {
	want := []string{"memcopy", "quic", "tcp", "ws"}
	if got := Kinds(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected kinds %v, got %v", want, got)
	}
}

func TestNewUnknownKind(t *testing.T) {
	if _, err := New("carrier-pigeon", testOptions(1024)); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestNewRequiresChunkPool(t *testing.T) {
	if _, err := New("memcopy", Options{}); err == nil {
		t.Fatal("expected error for missing chunk pool")
	}
}

func TestMemcopyMovesChunkBytes(t *testing.T) {
	wl, err := New("memcopy", testOptions(8192))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	if err := wl.Setup(ctx); err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer wl.Close()

	for i := 0; i < 3; i++ {
		n, err := wl.RunOp(ctx)
		if err != nil {
			t.Fatalf("op %d: %v", i, err)
		}
		if n != 8192 {
			t.Fatalf("expected 8192 bytes per op, got %d", n)
		}
	}
}

func TestMemcopyCloseReleasesBuffers(t *testing.T) {
	wl := newMemcopy(testOptions(1024))
	if err := wl.Setup(context.Background()); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := wl.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if wl.src != nil || wl.dst != nil {
		t.Fatal("buffers not released on close")
	}
	// Double close must be harmless.
	if err := wl.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
