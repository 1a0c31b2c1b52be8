package avltree

import (
	"errors"

	"github.com/facebookgo/stackerr"
)

// ErrKeyNotFound is the sentinel error for error-returning lookups, the
// avltree counterpart to dlist.ErrOutOfRange: same two-layer contract,
// plain errors.New sentinel wrapped with stackerr.Wrap at the throw site.
var ErrKeyNotFound = errors.New("avltree: key not found")

func wrapKeyNotFound() error {
	return stackerr.Wrap(ErrKeyNotFound)
}

// Get is the error-returning counterpart to Find, for callers that prefer
// to propagate a wrapped error rather than test a boolean.
func (t *Tree[K, V]) Get(k K) (V, error) {
	v, ok := t.Find(k)
	if !ok {
		var zero V
		return zero, wrapKeyNotFound()
	}
	return v, nil
}
