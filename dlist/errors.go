package dlist

import (
	"errors"

	"github.com/facebookgo/stackerr"
)

// Sentinel errors per SPEC_FULL.md §7 / spec.md §7. Compare with
// errors.Is; every propagation site wraps one of these with
// stackerr.Wrap so a stack trace survives alongside a stable value to
// compare against, the same two-layer contract skipor-memcached's
// conn.go uses for its own sentinel errors (plain errors.New for the
// sentinel, stackerr.Wrap at the throw site).
var (
	// ErrOutOfRange is returned when an operation crosses a structural
	// boundary: inserting after the tail sentinel, erasing a sentinel
	// directly, or popping from an empty list. Stepping an iterator does
	// not return it: Iterator.Next and Iterator.Prev leave an iterator
	// that has no further node to move to where it is.
	ErrOutOfRange = errors.New("dlist: out of range")

	// ErrAllocationFailure names the allocation-failure error kind. No
	// operation in this package returns it.
	ErrAllocationFailure = errors.New("dlist: allocation failure")
)

func wrapOutOfRange() error {
	return stackerr.Wrap(ErrOutOfRange)
}
