package sink

import (
	"net"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sheerbytes/thrubench/internal/logging"
)

func startSink(t *testing.T, cfg Config) *Sink {
	t.Helper()
	s := New(logging.NewWithWriter("sink-test", "error", testWriter{t}))
	if err := s.Start(cfg); err != nil {
		t.Fatalf("start sink: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func TestTCPSinkDiscards(t *testing.T) {
	s := startSink(t, Config{TCPAddr: "127.0.0.1:0"})

	conn, err := net.DialTimeout("tcp", s.TCPAddr(), 5*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	payload := make([]byte, 256*1024)
	for i := 0; i < 8; i++ {
		if _, err := conn.Write(payload); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}
}

func TestWSSinkDiscards(t *testing.T) {
	s := startSink(t, Config{WSAddr: "127.0.0.1:0"})

	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, _, err := dialer.Dial(s.WSURL(), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	payload := make([]byte, 64*1024)
	for i := 0; i < 4; i++ {
		if err := conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}
}

func TestDisabledTransportsReportEmpty(t *testing.T) {
	s := startSink(t, Config{TCPAddr: "127.0.0.1:0"})
	if s.QUICAddr() != "" {
		t.Fatalf("expected empty QUIC addr, got %q", s.QUICAddr())
	}
	if s.WSURL() != "" {
		t.Fatalf("expected empty WS URL, got %q", s.WSURL())
	}
	if s.TCPAddr() == "" {
		t.Fatal("expected bound TCP addr")
	}
}
