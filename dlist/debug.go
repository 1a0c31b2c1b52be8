package dlist

import "fmt"

// String renders l's live elements left-to-right, for %v and test
// failure output. It takes the gate in shared mode like any other
// traversal.
func (l *List[T]) String() string {
	it := l.Begin()
	defer it.Close()

	s := "["
	first := true
	for !it.node.sentinel {
		if !first {
			s += " "
		}
		first = false
		v, _ := it.Value()
		s += fmt.Sprint(v)
		it.Next()
	}
	return s + "]"
}

// GoString renders l in a Go-syntax-like form for %#v.
func (l *List[T]) GoString() string {
	return fmt.Sprintf("dlist.List%s (size=%d)", l.String(), l.Size())
}

// String renders a single node's value, or "<sentinel>"/"<tombstoned>"
// for nodes with no live value to print.
func (n *node[T]) String() string {
	if n.sentinel {
		return "<sentinel>"
	}
	if n.tombstoned.Load() {
		return "<tombstoned>"
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	return fmt.Sprint(n.value)
}
