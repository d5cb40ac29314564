package workload

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

var wsDialer = websocket.Dialer{
	HandshakeTimeout: 5 * time.Second,
}

// wsXfer pushes chunks at the WebSocket sink, one binary message per op.
type wsXfer struct {
	opts Options
	conn *websocket.Conn
	buf  []byte
}

func newWS(opts Options) *wsXfer {
	return &wsXfer{opts: opts}
}

func (w *wsXfer) Name() string { return "ws" }

func (w *wsXfer) Setup(ctx context.Context) error {
	conn, resp, err := wsDialer.DialContext(ctx, w.opts.WSURL, nil)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
			return fmt.Errorf("websocket upgrade failed (%d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("websocket dial %s: %w", w.opts.WSURL, err)
	}
	w.conn = conn
	w.buf = w.opts.Chunks.Get()
	return nil
}

func (w *wsXfer) RunOp(ctx context.Context) (int64, error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(10 * time.Second)
	}
	_ = w.conn.SetWriteDeadline(deadline)
	if err := w.conn.WriteMessage(websocket.BinaryMessage, w.buf); err != nil {
		return 0, fmt.Errorf("websocket write: %w", err)
	}
	return int64(len(w.buf)), nil
}

func (w *wsXfer) Close() error {
	if w.buf != nil {
		w.opts.Chunks.Put(w.buf)
		w.buf = nil
	}
	if w.conn == nil {
		return nil
	}
	_ = w.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return w.conn.Close()
}
