package lockfree

import (
	"iter"
	"sync/atomic"

	"github.com/named-data/lfq/std/types/optional"
	"golang.org/x/sys/cpu"
)

// Queue is an unbounded lock-free FIFO queue (Michael-Scott).
// It is safe for any number of concurrent producers and consumers.
//
// Detached nodes are left to the garbage collector, which never reclaims
// a node while some goroutine still holds a pointer to it. Nodes must not
// be pooled or reused, or ABA on the head and tail CAS becomes possible.
type Queue[T any] struct {
	_    cpu.CacheLinePad
	head atomic.Pointer[node[T]]
	_    cpu.CacheLinePad
	tail atomic.Pointer[node[T]]
	_    cpu.CacheLinePad
}

type node[T any] struct {
	val  optional.Optional[T]
	next atomic.Pointer[node[T]]
}

// NewQueue creates an empty queue holding only a sentinel node.
func NewQueue[T any]() *Queue[T] {
	q := &Queue[T]{}
	q.init()
	return q
}

func (q *Queue[T]) init() {
	sentinel := &node[T]{}
	q.head.Store(sentinel)
	q.tail.Store(sentinel)
}

// Enqueue appends v to the back of the queue. It never blocks.
func (q *Queue[T]) Enqueue(v T) {
	n := &node[T]{val: optional.Some(v)}
	for {
		tail := q.tail.Load()
		next := tail.next.Load()
		if tail != q.tail.Load() {
			continue
		}

		if next != nil {
			// tail is lagging behind a linked node, help move it
			q.tail.CompareAndSwap(tail, next)
			continue
		}

		if tail.next.CompareAndSwap(nil, n) {
			// failure is fine, the next operation will fix the tail
			q.tail.CompareAndSwap(tail, n)
			return
		}
	}
}

// Dequeue removes the value at the front of the queue.
// Returns ok=false immediately if the queue is empty.
func (q *Queue[T]) Dequeue() (val T, ok bool) {
	for {
		head := q.head.Load()
		tail := q.tail.Load()
		next := head.next.Load()
		if head != q.head.Load() {
			continue
		}

		if next == nil {
			return val, false
		}

		if head == tail {
			// head must never pass tail
			q.tail.CompareAndSwap(tail, next)
			continue
		}

		if q.head.CompareAndSwap(head, next) {
			// next is the new sentinel. Only the winner of the CAS
			// reaches here, so it owns the payload slot exclusively.
			return next.val.Take()
		}
	}
}

// IsEmpty reports whether the queue held no values at the time of the call.
// The answer may be stale as soon as it is returned.
func (q *Queue[T]) IsEmpty() bool {
	return q.head.Load().next.Load() == nil
}

// All returns an iterator that dequeues values until the queue is empty.
func (q *Queue[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			val, ok := q.Dequeue()
			if !ok || !yield(val) {
				return
			}
		}
	}
}

// Dispose releases every node still in the queue, including the sentinel,
// and returns how many were released. The queue is left empty.
//
// Dispose must not run concurrently with any other operation.
func (q *Queue[T]) Dispose() (released int) {
	for n := q.head.Load(); n != nil; {
		next := n.next.Load()
		n.val.Unset()
		n.next.Store(nil)
		n = next
		released++
	}
	q.init()
	return released
}
