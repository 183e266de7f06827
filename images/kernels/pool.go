package kernels

import "sync"

// Pool lets callers reuse large scratch buffers to reduce GC pressure when
// the same pipeline runs over many images. A nil *Pool is valid and simply
// allocates.
type Pool struct {
	sums sync.Pool // *[]uint32
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	return &Pool{}
}

// Get returns a []uint32 of length n. The contents are not cleared; callers
// fully overwrite it.
func (p *Pool) Get(n int) []uint32 {
	if p == nil {
		return make([]uint32, n)
	}
	if v := p.sums.Get(); v != nil {
		buf := *(v.(*[]uint32))
		if cap(buf) >= n {
			return buf[:n]
		}
	}
	return make([]uint32, n)
}

// Put returns a buffer obtained from Get.
func (p *Pool) Put(buf []uint32) {
	if p == nil || buf == nil {
		return
	}
	p.sums.Put(&buf)
}
