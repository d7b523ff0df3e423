// sync_pool is a generic sync.Pool wrapper
package sync_pool

import "sync"

// SyncPool is a typed sync.Pool. Every value handed out has been reset.
type SyncPool[T any] struct {
	pool  sync.Pool
	reset func(T)
}

// New creates a new pool. init allocates a value; reset prepares a
// value for reuse and runs on every Get.
func New[T any](init func() T, reset func(T)) SyncPool[T] {
	return SyncPool[T]{
		pool: sync.Pool{
			New: func() any { return init() },
		},
		reset: reset,
	}
}

// Get returns a value from the pool, allocating one if the pool is empty.
func (p *SyncPool[T]) Get() T {
	val := p.pool.Get().(T)
	p.reset(val)
	return val
}

// Put returns a value to the pool.
func (p *SyncPool[T]) Put(val T) {
	p.pool.Put(val)
}
