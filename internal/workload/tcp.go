package workload

import (
	"context"
	"fmt"
	"net"
	"time"
)

// tcpXfer pushes chunks at the TCP sink over a single connection.
type tcpXfer struct {
	opts Options
	conn net.Conn
	buf  []byte
}

func newTCP(opts Options) *tcpXfer {
	return &tcpXfer{opts: opts}
}

func (w *tcpXfer) Name() string { return "tcp" }

func (w *tcpXfer) Setup(ctx context.Context) error {
	d := net.Dialer{Timeout: 5 * time.Second}
	conn, err := d.DialContext(ctx, "tcp", w.opts.TCPAddr)
	if err != nil {
		return fmt.Errorf("tcp dial %s: %w", w.opts.TCPAddr, err)
	}
	w.conn = conn
	w.buf = w.opts.Chunks.Get()
	return nil
}

func (w *tcpXfer) RunOp(ctx context.Context) (int64, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = w.conn.SetWriteDeadline(deadline)
	}
	n, err := w.conn.Write(w.buf)
	if err != nil {
		return int64(n), fmt.Errorf("tcp write: %w", err)
	}
	return int64(n), nil
}

func (w *tcpXfer) Close() error {
	if w.buf != nil {
		w.opts.Chunks.Put(w.buf)
		w.buf = nil
	}
	if w.conn == nil {
		return nil
	}
	return w.conn.Close()
}
