package workload

import "context"

// memcopy moves chunks between two in-process buffers. It needs no sink
// and gives a baseline the transfer workloads can be compared against.
type memcopy struct {
	opts Options
	src  []byte
	dst  []byte
}

func newMemcopy(opts Options) *memcopy {
	return &memcopy{opts: opts}
}

func (m *memcopy) Name() string { return "memcopy" }

func (m *memcopy) Setup(ctx context.Context) error {
	m.src = m.opts.Chunks.Get()
	m.dst = m.opts.Chunks.Get()
	for i := range m.src {
		m.src[i] = byte(i)
	}
	return nil
}

func (m *memcopy) RunOp(ctx context.Context) (int64, error) {
	n := copy(m.dst, m.src)
	return int64(n), nil
}

func (m *memcopy) Close() error {
	if m.src != nil {
		m.opts.Chunks.Put(m.src)
		m.src = nil
	}
	if m.dst != nil {
		m.opts.Chunks.Put(m.dst)
		m.dst = nil
	}
	return nil
}
