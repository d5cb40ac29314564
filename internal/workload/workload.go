package workload

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/sheerbytes/thrubench/internal/bufpool"
)

// Workload performs one kind of benchmark operation for a single worker.
// Instances are never shared between workers: the worker that calls Setup
// is the only one that calls RunOp and Close.
type Workload interface {
	Name() string
	// Setup prepares the workload (dials the sink, allocates buffers).
	Setup(ctx context.Context) error
	// RunOp performs one operation and reports the bytes it moved.
	// The calling worker measures elapsed time around this call.
	RunOp(ctx context.Context) (int64, error)
	Close() error
}

// Options carries the per-worker settings a workload needs.
type Options struct {
	Chunks   *bufpool.Pool
	TCPAddr  string
	QUICAddr string
	WSURL    string
	Logger   *slog.Logger
}

type constructor func(Options) Workload

var kinds = map[string]constructor{
	"memcopy": func(o Options) Workload { return newMemcopy(o) },
	"tcp":     func(o Options) Workload { return newTCP(o) },
	"quic":    func(o Options) Workload { return newQUIC(o) },
	"ws":      func(o Options) Workload { return newWS(o) },
}

// New constructs a workload instance of the given kind for one worker.
func New(kind string, opts Options) (Workload, error) {
	ctor, ok := kinds[kind]
	if !ok {
		return nil, fmt.Errorf("unknown workload kind %q (have %v)", kind, Kinds())
	}
	if opts.Chunks == nil {
		return nil, fmt.Errorf("workload %q needs a chunk pool", kind)
	}
	return ctor(opts), nil
}

// Kinds lists the registered workload kinds, sorted.
func Kinds() []string {
	out := make([]string, 0, len(kinds))
	for k := range kinds {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
