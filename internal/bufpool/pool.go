package bufpool

import "sync"

// Pool hands out fixed-size byte buffers. Sink connections and transfer
// workloads churn through copy buffers for the whole run, so reuse keeps
// steady-state allocation flat.
type Pool struct {
	size int
	pool sync.Pool
}

// New creates a pool of buffers that are exactly size bytes long.
func New(size int) *Pool {
	if size <= 0 {
		panic("bufpool: size must be positive")
	}
	p := &Pool{size: size}
	p.pool.New = func() any { return make([]byte, size) }
	return p
}

// Get returns a buffer of the pool's size.
func (p *Pool) Get() []byte {
	buf := p.pool.Get().([]byte)
	if cap(buf) < p.size {
		return make([]byte, p.size)
	}
	return buf[:p.size]
}

// Put returns a buffer for reuse. Undersized buffers are discarded.
func (p *Pool) Put(buf []byte) {
	if cap(buf) < p.size {
		return
	}
	p.pool.Put(buf[:cap(buf)])
}

// Size reports the length of buffers returned by Get.
func (p *Pool) Size() int { return p.size }
