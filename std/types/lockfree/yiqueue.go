// Lock-free data structures
package lockfree

import (
	"iter"
	"sync/atomic"
)

// YiQueue is a lock-free Yielding Queue.
//
// It wraps a Queue with a count of promised values and a notification
// channel. Consumers that run out of work can select on Notify instead of
// polling; the channel is signalled when a Push finds the queue empty.
// No operation on YiQueue itself blocks.
type YiQueue[T any] struct {
	Notify chan struct{}
	queue  *Queue[T]
	size   atomic.Int64
}

// NewYiQueue creates an empty yielding queue.
func NewYiQueue[T any]() *YiQueue[T] {
	return &YiQueue[T]{
		Notify: make(chan struct{}, 1),
		queue:  NewQueue[T](),
	}
}

// Push appends v and wakes up a waiting consumer if the queue was empty.
func (yq *YiQueue[T]) Push(v T) {
	sizenow := yq.size.Add(1)
	yq.queue.Enqueue(v)
	if sizenow == 1 {
		select {
		case yq.Notify <- struct{}{}:
		default:
		}
	}
}

// Pop removes the value at the front, or returns ok=false if none is promised.
func (yq *YiQueue[T]) Pop() (val T, ok bool) {
	for yq.size.Load() > 0 {
		val, ok = yq.queue.Dequeue()
		if !ok {
			// a value is promised but its Push has not linked it yet,
			// or another consumer took it and has not decremented yet
			continue
		}
		yq.size.Add(-1)
		return val, true
	}
	return val, false
}

// Len returns the number of promised values. It is approximate under
// concurrent use.
func (yq *YiQueue[T]) Len() int {
	return int(yq.size.Load())
}

// Iter pops values until none are promised.
func (yq *YiQueue[T]) Iter() iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			val, ok := yq.Pop()
			if !ok || !yield(val) {
				return
			}
		}
	}
}
