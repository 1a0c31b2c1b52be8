// Package dlist implements a concurrent ordered doubly-linked list: a
// multi-reader, multi-writer container supporting traversal, insertion,
// deletion, and positional access via iterators, backed by fine-grained
// per-node locking and a deferred-reclamation purgatory that lets
// iterators outlive a node's removal from the list.
//
// Order is insertion-determined; this is not a sorted container. See
// SPEC_FULL.md for the full component design this package implements.
package dlist

import (
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/dijkstracula/colist/gate"
)

// List is a concurrent ordered doubly-linked list of T. The zero value is
// not usable; construct one with New or NewFrom.
type List[T any] struct {
	head, tail *node[T]
	size       atomic.Int64

	gate      gate.Gate
	purgatory *purgatory[T]
	log       zerolog.Logger

	closed atomic.Bool
}

// New constructs an empty List.
func New[T any](opts ...Option) *List[T] {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	l := &List[T]{
		gate: cfg.newGate(),
		log:  cfg.log,
	}
	var zero T
	l.head = newNode[T](l, zero)
	l.head.sentinel = true
	l.tail = newNode[T](l, zero)
	l.tail.sentinel = true
	// Wire the sentinels to each other the same way insert wires any new
	// node: via capture, so their refcounts start consistent with every
	// other adjacency in the list.
	capture(&l.head.next, l.tail)
	capture(&l.tail.prev, l.head)

	l.purgatory = newPurgatory[T](l.gate, cfg.cleanerPeriod, l.log)
	l.purgatory.start()
	return l
}

// NewFrom constructs a List pre-populated with values, in order, via
// PushBack semantics.
func NewFrom[T any](values []T, opts ...Option) *List[T] {
	l := New[T](opts...)
	for _, v := range values {
		l.PushBack(v)
	}
	return l
}

// Close stops the purgatory cleaner, blocking until it has drained every
// pending reclamation. This is the idiomatic Go replacement for an
// implicit C++ destructor; callers that construct a List should Close it
// once it is no longer needed.
func (l *List[T]) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	l.purgatory.shutdown()
	return nil
}

// Size returns the number of live elements in the list in O(1).
func (l *List[T]) Size() int {
	return int(l.size.Load())
}

// Empty reports whether the list currently has no elements.
func (l *List[T]) Empty() bool {
	return l.Size() == 0
}

// Begin returns an iterator positioned at the first live element, or End()
// if the list is empty.
func (l *List[T]) Begin() Iterator[T] {
	l.gate.RLock()
	defer l.gate.RUnlock()

	l.head.mu.RLock()
	n := l.head.next
	l.head.mu.RUnlock()
	return newIterator(l, n)
}

// End returns an iterator positioned at the tail sentinel. It must never
// be dereferenced or advanced; it exists solely as the boundary value
// returned by failed or exhausted traversals.
func (l *List[T]) End() Iterator[T] {
	l.gate.RLock()
	defer l.gate.RUnlock()
	return newIterator(l, l.tail)
}

// PushFront inserts v at the front of the list.
func (l *List[T]) PushFront(v T) {
	it := newIterator(l, l.head)
	result, _ := l.Insert(&it, v)
	result.Close()
}

// PushBack inserts v after the element that is last when PushBack reads
// the tail's predecessor. If that element is erased concurrently before
// the insertion takes its lock, Insert returns End() and v is not
// inserted.
func (l *List[T]) PushBack(v T) {
	l.tail.mu.RLock()
	p := l.tail.prev
	l.tail.mu.RUnlock()

	it := newIterator(l, p)
	result, _ := l.Insert(&it, v)
	result.Close()
}

// PopFront removes and returns the first live element. It returns
// ErrOutOfRange if the list is empty.
func (l *List[T]) PopFront() (T, error) {
	for {
		it := l.Begin()
		if it.node.sentinel {
			it.Close()
			var zero T
			return zero, wrapOutOfRange()
		}
		v, _ := it.Value()
		_, already, err := l.eraseNode(&it)
		it.Close()
		if err != nil {
			var zero T
			return zero, err
		}
		if already {
			// Begin() raced an in-flight erase of the same node; the
			// node we grabbed is gone without us having removed it.
			// Restart from the current head rather than reporting a
			// value that never belonged to us.
			continue
		}
		return v, nil
	}
}

// PopBack removes and returns the last live element. It returns
// ErrOutOfRange if the list is empty.
func (l *List[T]) PopBack() (T, error) {
	for {
		l.tail.mu.RLock()
		n := l.tail.prev
		l.tail.mu.RUnlock()
		if n.sentinel {
			var zero T
			return zero, wrapOutOfRange()
		}

		it := newIterator(l, n)
		v, _ := it.Value()
		_, already, err := l.eraseNode(&it)
		it.Close()
		if err != nil {
			var zero T
			return zero, err
		}
		if already {
			continue
		}
		return v, nil
	}
}

// Insert inserts v immediately after it's current position. On success it
// advances it to the newly inserted element and returns a copy of the
// advanced iterator. If it is positioned on the tail sentinel, Insert
// returns ErrOutOfRange. If it's node has already been tombstoned by a
// concurrent erase, Insert is not an error: it advances it to End() and
// returns that.
func (l *List[T]) Insert(it *Iterator[T], v T) (Iterator[T], error) {
	p := it.node
	if p == l.tail {
		return Iterator[T]{}, wrapOutOfRange()
	}

	l.gate.RLock()
	defer l.gate.RUnlock()

	for {
		p.mu.Lock()
		if p.tombstoned.Load() {
			p.mu.Unlock()
			end := l.End()
			it.Close()
			*it = end
			return end, nil
		}

		n := p.next
		n.mu.Lock()
		if n.prev != p {
			n.mu.Unlock()
			p.mu.Unlock()
			continue
		}

		x := newNode[T](l, v)
		x.mu.Lock()
		capture(&p.next, x)
		capture(&x.prev, p)
		capture(&n.prev, x)
		capture(&x.next, n)
		release(n) // old p.next -> n
		release(p) // old n.prev -> p
		x.mu.Unlock()
		n.mu.Unlock()
		p.mu.Unlock()

		l.size.Add(1)
		newIt := newIterator(l, x)
		it.Close()
		*it = newIt
		return newIt, nil
	}
}

// Erase removes it's node from the list, tombstoning it, and advances it
// to its former successor. Erasing a sentinel returns ErrOutOfRange.
// Erasing a node already tombstoned by a concurrent caller is not an
// error: it advances it to the successor and returns that, matching what
// a caller who raced the removal should see.
func (l *List[T]) Erase(it *Iterator[T]) (Iterator[T], error) {
	next, _, err := l.eraseNode(it)
	return next, err
}

// eraseNode is the shared implementation behind Erase and the pop
// operations' restart-on-race behavior; alreadyTombstoned tells a caller
// whether the node it asked to erase had already been removed by someone
// else.
func (l *List[T]) eraseNode(it *Iterator[T]) (next Iterator[T], alreadyTombstoned bool, err error) {
	c := it.node
	if c.sentinel {
		return Iterator[T]{}, false, wrapOutOfRange()
	}

	l.gate.RLock()
	defer l.gate.RUnlock()

	for {
		c.mu.RLock()
		p := c.prev
		n := c.next
		c.mu.RUnlock()
		// Transient holds: prevent p and n from being reclaimed in the
		// window between reading them and locking them below. Released
		// again the moment the locks themselves provide that guarantee.
		p.refs.Add(1)
		n.refs.Add(1)

		p.mu.Lock()
		c.mu.RLock()
		n.mu.Lock()

		release(p)
		release(n)

		if c.tombstoned.Load() {
			n.mu.Unlock()
			c.mu.RUnlock()
			p.mu.Unlock()
			newIt := newIterator(l, n)
			it.Close()
			*it = newIt
			return newIt, true, nil
		}

		if p.next != c || n.prev != c {
			n.mu.Unlock()
			c.mu.RUnlock()
			p.mu.Unlock()
			continue
		}

		capture(&p.next, n)
		capture(&n.prev, p)
		c.tombstoned.Store(true)
		release(c) // old p.next -> c
		release(c) // old n.prev -> c

		n.mu.Unlock()
		c.mu.RUnlock()
		p.mu.Unlock()

		l.size.Add(-1)
		newIt := newIterator(l, n)
		it.Close()
		*it = newIt
		return newIt, false, nil
	}
}

