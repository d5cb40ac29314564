package bufpool

import "testing"

func TestGetReturnsExactSize(t *testing.T) {
	p := New(4096)
	buf := p.Get()
	if len(buf) != 4096 {
		t.Fatalf("expected 4096-byte buffer, got %d", len(buf))
	}
	p.Put(buf)
	again := p.Get()
	if len(again) != 4096 {
		t.Fatalf("expected 4096-byte buffer after reuse, got %d", len(again))
	}
}

func TestPutDiscardsUndersized(t *testing.T) {
	p := New(1024)
	p.Put(make([]byte, 16))
	buf := p.Get()
	if len(buf) != 1024 {
		t.Fatalf("undersized buffer leaked back out: %d", len(buf))
	}
}

func TestNewPanicsOnBadSize(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for non-positive size")
		}
	}()
	New(0)
}
