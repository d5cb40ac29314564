package workload

import (
	"context"
	"fmt"

	"github.com/quic-go/quic-go"

	"github.com/sheerbytes/thrubench/internal/quictransport"
)

// quicXfer pushes chunks at the QUIC sink over one stream.
type quicXfer struct {
	opts   Options
	conn   *quic.Conn
	stream *quic.Stream
	buf    []byte
}

func newQUIC(opts Options) *quicXfer {
	return &quicXfer{opts: opts}
}

func (w *quicXfer) Name() string { return "quic" }

func (w *quicXfer) Setup(ctx context.Context) error {
	conn, err := quictransport.Dial(ctx, w.opts.QUICAddr)
	if err != nil {
		return err
	}
	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		_ = conn.CloseWithError(0, "setup failed")
		return fmt.Errorf("quic open stream: %w", err)
	}
	w.conn = conn
	w.stream = stream
	w.buf = w.opts.Chunks.Get()
	return nil
}

func (w *quicXfer) RunOp(ctx context.Context) (int64, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = w.stream.SetWriteDeadline(deadline)
	}
	n, err := w.stream.Write(w.buf)
	if err != nil {
		return int64(n), fmt.Errorf("quic write: %w", err)
	}
	return int64(n), nil
}

func (w *quicXfer) Close() error {
	if w.buf != nil {
		w.opts.Chunks.Put(w.buf)
		w.buf = nil
	}
	if w.stream != nil {
		_ = w.stream.Close()
		w.stream = nil
	}
	if w.conn == nil {
		return nil
	}
	conn := w.conn
	w.conn = nil
	return conn.CloseWithError(0, "")
}
