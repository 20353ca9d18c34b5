package mempool

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInit indicates the manager has no arena, either because Init was
	// never called, it was given an unusable capacity, or Deinit ran.
	ErrNotInit = errors.New("mempool: arena not initialized")

	// ErrInvalidSize indicates a negative request size.
	ErrInvalidSize = errors.New("mempool: invalid size")

	// ErrNoSpace indicates that no gap large enough was found.
	ErrNoSpace = errors.New("mempool: no gap large enough")

	// ErrBadHandle indicates a handle that does not match any live block.
	ErrBadHandle = errors.New("mempool: bad handle")
)

// InvariantError describes a corrupted block index found by Check.
type InvariantError struct {
	Index  int
	Start  int
	End    int
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("mempool: block %d [%d, %d): %s", e.Index, e.Start, e.End, e.Reason)
}
