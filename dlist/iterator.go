package dlist

// Iterator references one node in a List, holding a reference that keeps
// it (and its value, if it has been erased but not yet reclaimed) alive
// until Close is called. The zero value is not a valid iterator; obtain
// one from List.Begin, List.End, or an operation that returns one.
//
// An Iterator is not safe for concurrent use from multiple goroutines,
// matching the teacher's convention that per-goroutine cursors own their
// own state; the List they walk is what's safe for concurrent access.
type Iterator[T any] struct {
	list *List[T]
	node *node[T]
}

func newIterator[T any](l *List[T], n *node[T]) Iterator[T] {
	n.refs.Add(1)
	return Iterator[T]{list: l, node: n}
}

// Value returns the node's value and true, or the zero value and false if
// the iterator is positioned on a sentinel. A value remains readable
// through an iterator that outlived a concurrent Erase of its node: the
// node is only actually freed once every iterator referencing it has
// released it.
func (it Iterator[T]) Value() (T, bool) {
	if it.node.sentinel {
		var zero T
		return zero, false
	}
	it.node.mu.RLock()
	defer it.node.mu.RUnlock()
	return it.node.value, true
}

// Next advances it to its current successor and returns it. Advancing
// past the last element lands on End(); advancing End() is a no-op that
// returns End() again.
func (it *Iterator[T]) Next() Iterator[T] {
	it.node.mu.RLock()
	n := it.node.next
	it.node.mu.RUnlock()

	var newIt Iterator[T]
	if n == nil {
		// Only End() itself has a nil next; stay put.
		newIt = newIterator(it.list, it.node)
	} else {
		newIt = newIterator(it.list, n)
	}
	it.Close()
	*it = newIt
	return *it
}

// Prev advances it to its current predecessor and returns it. This is the
// exact symmetric mirror of Next; stepping Prev past the first element
// lands on Begin()'s predecessor, the head sentinel, from which Next
// returns to Begin() again.
func (it *Iterator[T]) Prev() Iterator[T] {
	it.node.mu.RLock()
	p := it.node.prev
	it.node.mu.RUnlock()

	var newIt Iterator[T]
	if p == nil {
		newIt = newIterator(it.list, it.node)
	} else {
		newIt = newIterator(it.list, p)
	}
	it.Close()
	*it = newIt
	return *it
}

// Equal reports whether it and other reference the same node.
func (it Iterator[T]) Equal(other Iterator[T]) bool {
	return it.node == other.node
}

// Close releases the reference this iterator holds. Every Iterator
// obtained from this package must eventually be closed, or its node (and
// transitively, on a tombstoned chain, its neighbors) never reaches
// purgatory.
func (it Iterator[T]) Close() {
	release(it.node)
}
