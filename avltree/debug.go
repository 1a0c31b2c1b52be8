package avltree

import "fmt"

// String renders t's live entries in key order, for %v and test failure
// output.
func (t *Tree[K, V]) String() string {
	s := "["
	first := true
	for it := t.Begin(); it.Valid(); it.Next() {
		if !first {
			s += " "
		}
		first = false
		k, _ := it.Key()
		v, _ := it.Value()
		s += fmt.Sprintf("%v:%v", k, v)
	}
	return s + "]"
}

// GoString renders t in a Go-syntax-like form for %#v.
func (t *Tree[K, V]) GoString() string {
	return fmt.Sprintf("avltree.Tree%s (len=%d)", t.String(), t.Len())
}
