// Package avltree implements a concurrent, self-balancing binary search
// tree keyed by an ordered type, using a single coarse-grained
// reader/writer gate rather than the dlist package's per-node locking.
//
// This is the Go generalization of the secondary tree core described in
// SPEC_FULL.md §4.5, itself modeled on a classic AVL tree whose deletions
// mark a node `deleted` and splice it out of the tree. Iterators hold a
// key rather than a node pointer and re-find their position from the root
// on every step, so an erase never leaves an iterator pointing into a
// removed node.
package avltree

import (
	"cmp"

	"github.com/dijkstracula/colist/gate"
)

type treeNode[K cmp.Ordered, V any] struct {
	key     K
	value   V
	deleted bool
	height  int
	left    *treeNode[K, V]
	right   *treeNode[K, V]
}

func height[K cmp.Ordered, V any](n *treeNode[K, V]) int {
	if n == nil {
		return 0
	}
	return n.height
}

func balanceFactor[K cmp.Ordered, V any](n *treeNode[K, V]) int {
	return height(n.right) - height(n.left)
}

func fixHeight[K cmp.Ordered, V any](n *treeNode[K, V]) {
	l, r := height(n.left), height(n.right)
	if l > r {
		n.height = l + 1
	} else {
		n.height = r + 1
	}
}

func rotateRight[K cmp.Ordered, V any](n *treeNode[K, V]) *treeNode[K, V] {
	tmp := n.left
	n.left = tmp.right
	tmp.right = n
	fixHeight(n)
	fixHeight(tmp)
	return tmp
}

func rotateLeft[K cmp.Ordered, V any](n *treeNode[K, V]) *treeNode[K, V] {
	tmp := n.right
	n.right = tmp.left
	tmp.left = n
	fixHeight(n)
	fixHeight(tmp)
	return tmp
}

func balance[K cmp.Ordered, V any](n *treeNode[K, V]) *treeNode[K, V] {
	fixHeight(n)
	switch balanceFactor(n) {
	case 2:
		if balanceFactor(n.right) < 0 {
			n.right = rotateRight(n.right)
		}
		return rotateLeft(n)
	case -2:
		if balanceFactor(n.left) > 0 {
			n.left = rotateLeft(n.left)
		}
		return rotateRight(n)
	default:
		return n
	}
}

func insert[K cmp.Ordered, V any](n *treeNode[K, V], k K, v V) *treeNode[K, V] {
	if n == nil {
		return &treeNode[K, V]{key: k, value: v, height: 1}
	}
	switch {
	case k < n.key:
		n.left = insert(n.left, k, v)
	case k > n.key:
		n.right = insert(n.right, k, v)
	default:
		n.value = v
		n.deleted = false
		return n
	}
	return balance(n)
}

func find[K cmp.Ordered, V any](n *treeNode[K, V], k K) *treeNode[K, V] {
	for n != nil {
		switch {
		case k < n.key:
			n = n.left
		case k > n.key:
			n = n.right
		default:
			return n
		}
	}
	return nil
}

func findMin[K cmp.Ordered, V any](n *treeNode[K, V]) *treeNode[K, V] {
	if n == nil {
		return nil
	}
	for n.left != nil {
		n = n.left
	}
	return n
}

func removeMin[K cmp.Ordered, V any](n *treeNode[K, V]) *treeNode[K, V] {
	if n.left == nil {
		return n.right
	}
	n.left = removeMin(n.left)
	return balance(n)
}

// remove performs the structural delete, marking the removed node
// deleted in place (so a concurrent iterator pointing at it can still
// find its way to a successor by key) before splicing it out of the
// shape of the tree.
func remove[K cmp.Ordered, V any](n *treeNode[K, V], k K) (*treeNode[K, V], bool) {
	if n == nil {
		return nil, false
	}
	var removed bool
	switch {
	case k < n.key:
		n.left, removed = remove(n.left, k)
	case k > n.key:
		n.right, removed = remove(n.right, k)
	default:
		removed = true
		n.deleted = true
		l, r := n.left, n.right
		if r == nil {
			return l, true
		}
		succ := findMin(r)
		succ.right = removeMin(r)
		succ.left = l
		return balance(succ), true
	}
	if n == nil {
		return nil, removed
	}
	return balance(n), removed
}

// Tree is a concurrent ordered map keyed by K, guarded by a single
// reader/writer gate shared by all of its operations and iterators. Use
// New to construct one.
type Tree[K cmp.Ordered, V any] struct {
	root *treeNode[K, V]
	size int
	gate gate.Gate
}

// New constructs an empty Tree. opts configures the reader/writer gate
// implementation, defaulting to gate.New (Blocking), matching dlist's
// Option pattern.
func New[K cmp.Ordered, V any](opts ...Option) *Tree[K, V] {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Tree[K, V]{gate: cfg.newGate()}
}

// Len returns the number of live keys in the tree.
func (t *Tree[K, V]) Len() int {
	t.gate.RLock()
	defer t.gate.RUnlock()
	return t.size
}

// Empty reports whether the tree holds no keys.
func (t *Tree[K, V]) Empty() bool {
	return t.Len() == 0
}

// Clear removes every key from the tree.
func (t *Tree[K, V]) Clear() {
	t.gate.Lock()
	defer t.gate.Unlock()
	t.root = nil
	t.size = 0
}

// Insert inserts k/v, or overwrites the value (and un-deletes the node)
// if k is already present.
func (t *Tree[K, V]) Insert(k K, v V) {
	t.gate.Lock()
	defer t.gate.Unlock()
	existing := find(t.root, k)
	grew := existing == nil
	t.root = insert(t.root, k, v)
	if grew {
		t.size++
	}
}

// Find locates k, returning its value and true, or the zero value and
// false if no live entry for k exists.
func (t *Tree[K, V]) Find(k K) (V, bool) {
	t.gate.RLock()
	defer t.gate.RUnlock()
	n := find(t.root, k)
	if n == nil || n.deleted {
		var zero V
		return zero, false
	}
	return n.value, true
}

// Delete removes k from the tree. It reports whether k was present.
func (t *Tree[K, V]) Delete(k K) bool {
	t.gate.Lock()
	defer t.gate.Unlock()
	newRoot, removed := remove(t.root, k)
	t.root = newRoot
	if removed {
		t.size--
	}
	return removed
}

// Begin returns an iterator at the smallest live key, or an exhausted
// iterator if the tree is empty.
func (t *Tree[K, V]) Begin() TreeIterator[K, V] {
	t.gate.RLock()
	defer t.gate.RUnlock()
	n := findMin(t.root)
	for n != nil && n.deleted {
		n = successor(t.root, n.key)
	}
	if n == nil {
		return TreeIterator[K, V]{tree: t, exhausted: true}
	}
	return TreeIterator[K, V]{tree: t, key: n.key}
}

// End returns the exhausted iterator value that a forward traversal
// eventually reaches.
func (t *Tree[K, V]) End() TreeIterator[K, V] {
	return TreeIterator[K, V]{tree: t, exhausted: true}
}

// successor re-finds the in-order successor of k by walking from root,
// the same key-based re-navigation the original tree's iterator used
// instead of following a stale child pointer, so it stays correct even
// when k's own node has been deleted and spliced out from under an
// iterator that still names it.
func successor[K cmp.Ordered, V any](root *treeNode[K, V], k K) *treeNode[K, V] {
	q := root
	var succ *treeNode[K, V]
	for q != nil {
		switch {
		case k < q.key:
			succ = q
			q = q.left
		case k > q.key:
			q = q.right
		default:
			if q.right != nil {
				return findMin(q.right)
			}
			return succ
		}
	}
	return succ
}

// predecessor is the mirror of successor.
func predecessor[K cmp.Ordered, V any](root *treeNode[K, V], k K) *treeNode[K, V] {
	q := root
	var pred *treeNode[K, V]
	for q != nil {
		switch {
		case k > q.key:
			pred = q
			q = q.right
		case k < q.key:
			q = q.left
		default:
			if q.left != nil {
				return findMax(q.left)
			}
			return pred
		}
	}
	return pred
}

func findMax[K cmp.Ordered, V any](n *treeNode[K, V]) *treeNode[K, V] {
	if n == nil {
		return nil
	}
	for n.right != nil {
		n = n.right
	}
	return n
}
