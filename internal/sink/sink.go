package sink

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/quic-go/quic-go"

	"github.com/sheerbytes/thrubench/internal/bufpool"
	"github.com/sheerbytes/thrubench/internal/quictransport"
)

const copyBufferSize = 1024 * 1024

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Config holds the listen addresses for the sink. An empty address
// disables that transport.
type Config struct {
	TCPAddr  string
	QUICAddr string
	WSAddr   string
}

// Sink accepts connections from transfer workloads and discards every
// byte it receives. It is the counterpart every network workload pushes at.
type Sink struct {
	logger *slog.Logger
	pool   *bufpool.Pool

	tcpLn  net.Listener
	quicLn *quic.Listener
	wsSrv  *http.Server
	wsLn   net.Listener

	mu    sync.Mutex
	conns map[net.Conn]struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a sink; call Start to begin accepting.
func New(logger *slog.Logger) *Sink {
	ctx, cancel := context.WithCancel(context.Background())
	return &Sink{
		logger: logger,
		pool:   bufpool.New(copyBufferSize),
		conns:  make(map[net.Conn]struct{}),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start opens the configured listeners and begins discarding traffic.
func (s *Sink) Start(cfg Config) error {
	if cfg.TCPAddr != "" {
		ln, err := net.Listen("tcp", cfg.TCPAddr)
		if err != nil {
			return err
		}
		s.tcpLn = ln
		s.logger.Info("TCP sink ready", "addr", ln.Addr())
		s.wg.Add(1)
		go s.acceptTCP(ln)
	}

	if cfg.QUICAddr != "" {
		ln, err := quictransport.Listen(cfg.QUICAddr, s.logger)
		if err != nil {
			s.closeListeners()
			return err
		}
		s.quicLn = ln
		s.wg.Add(1)
		go s.acceptQUIC(ln)
	}

	if cfg.WSAddr != "" {
		ln, err := net.Listen("tcp", cfg.WSAddr)
		if err != nil {
			s.closeListeners()
			return err
		}
		s.wsLn = ln
		mux := http.NewServeMux()
		mux.HandleFunc("/ingest", s.handleWS)
		s.wsSrv = &http.Server{Handler: mux}
		s.logger.Info("WebSocket sink ready", "addr", ln.Addr())
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.wsSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error("websocket sink stopped", "error", err)
			}
		}()
	}

	return nil
}

// TCPAddr returns the bound TCP address, or "" when disabled.
func (s *Sink) TCPAddr() string {
	if s.tcpLn == nil {
		return ""
	}
	return s.tcpLn.Addr().String()
}

// QUICAddr returns the bound QUIC address, or "" when disabled.
func (s *Sink) QUICAddr() string {
	if s.quicLn == nil {
		return ""
	}
	return s.quicLn.Addr().String()
}

// WSURL returns the WebSocket ingest URL, or "" when disabled.
func (s *Sink) WSURL() string {
	if s.wsLn == nil {
		return ""
	}
	return "ws://" + s.wsLn.Addr().String() + "/ingest"
}

// Close stops all listeners and waits for connection handlers to drain.
func (s *Sink) Close() error {
	s.cancel()
	s.closeListeners()
	s.mu.Lock()
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
	return nil
}

func (s *Sink) closeListeners() {
	if s.tcpLn != nil {
		_ = s.tcpLn.Close()
	}
	if s.quicLn != nil {
		_ = s.quicLn.Close()
	}
	if s.wsSrv != nil {
		_ = s.wsSrv.Close()
	} else if s.wsLn != nil {
		_ = s.wsLn.Close()
	}
}

func (s *Sink) acceptTCP(ln net.Listener) {
	defer s.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		s.track(conn)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			s.discard(conn)
		}()
	}
}

// track keeps TCP connections reachable so Close can unblock their
// handlers; hung clients must not stall sink shutdown.
func (s *Sink) track(conn net.Conn) {
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
}

func (s *Sink) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	_ = conn.Close()
}

func (s *Sink) acceptQUIC(ln *quic.Listener) {
	defer s.wg.Done()
	for {
		conn, err := ln.Accept(s.ctx)
		if err != nil {
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.drainQUIC(conn)
		}()
	}
}

func (s *Sink) drainQUIC(conn *quic.Conn) {
	defer conn.CloseWithError(0, "")
	for {
		stream, err := conn.AcceptStream(s.ctx)
		if err != nil {
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.discard(stream)
		}()
	}
}

func (s *Sink) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Sink) discard(r io.Reader) {
	buf := s.pool.Get()
	defer s.pool.Put(buf)
	for {
		if _, err := r.Read(buf); err != nil {
			return
		}
	}
}
