package avltree

import "cmp"

// TreeIterator references a key in a Tree by value rather than by node
// pointer: every step re-navigates from the root comparing keys, so an
// iterator remains valid to advance even if the node it was created from
// has since been deleted and physically spliced out, the same guarantee
// the original tree's iterator gave by re-finding a successor by key
// instead of following a stored child pointer.
type TreeIterator[K cmp.Ordered, V any] struct {
	tree      *Tree[K, V]
	key       K
	exhausted bool
}

// Key returns the key this iterator is positioned at, and true, or the
// zero value and false if the iterator is exhausted.
func (it TreeIterator[K, V]) Key() (K, bool) {
	if it.exhausted {
		var zero K
		return zero, false
	}
	return it.key, true
}

// Value returns the value associated with it's key and true, or the zero
// value and false if the iterator is exhausted or its key has since been
// deleted.
func (it TreeIterator[K, V]) Value() (V, bool) {
	if it.exhausted {
		var zero V
		return zero, false
	}
	it.tree.gate.RLock()
	defer it.tree.gate.RUnlock()
	n := find(it.tree.root, it.key)
	if n == nil || n.deleted {
		var zero V
		return zero, false
	}
	return n.value, true
}

// Next advances it to the next live key in order, or to the exhausted
// iterator if it was already at the largest key.
func (it *TreeIterator[K, V]) Next() TreeIterator[K, V] {
	if it.exhausted {
		return *it
	}
	it.tree.gate.RLock()
	n := successor(it.tree.root, it.key)
	for n != nil && n.deleted {
		n = successor(it.tree.root, n.key)
	}
	it.tree.gate.RUnlock()

	if n == nil {
		*it = TreeIterator[K, V]{tree: it.tree, exhausted: true}
	} else {
		*it = TreeIterator[K, V]{tree: it.tree, key: n.key}
	}
	return *it
}

// Prev mirrors Next, walking to the in-order predecessor, or to the
// exhausted iterator if it was already at the smallest key. Unlike Next,
// which leaves an exhausted iterator where it is, Prev from the exhausted
// End() position steps to the largest live key.
func (it *TreeIterator[K, V]) Prev() TreeIterator[K, V] {
	it.tree.gate.RLock()
	defer it.tree.gate.RUnlock()

	if it.exhausted {
		n := findMax(it.tree.root)
		for n != nil && n.deleted {
			n = predecessor(it.tree.root, n.key)
		}
		if n == nil {
			return *it
		}
		*it = TreeIterator[K, V]{tree: it.tree, key: n.key}
		return *it
	}

	n := predecessor(it.tree.root, it.key)
	for n != nil && n.deleted {
		n = predecessor(it.tree.root, n.key)
	}
	if n == nil {
		*it = TreeIterator[K, V]{tree: it.tree, exhausted: true}
	} else {
		*it = TreeIterator[K, V]{tree: it.tree, key: n.key}
	}
	return *it
}

// Valid reports whether it refers to a live key rather than the
// exhausted End() position.
func (it TreeIterator[K, V]) Valid() bool {
	return !it.exhausted
}

// Equal reports whether it and other are positioned at the same key, or
// both exhausted.
func (it TreeIterator[K, V]) Equal(other TreeIterator[K, V]) bool {
	if it.exhausted || other.exhausted {
		return it.exhausted == other.exhausted
	}
	return it.key == other.key
}
