package mempool

import (
	"fmt"
	"math"
)

// Handle is the opaque reference to an allocation inside the arena.
// +-----------------------+-------------------------+
// |       start(32)       |        gen(32)          |
// +-----------------------+-------------------------+

type Handle uint64

const (
	genMask  = math.MaxUint32
	emptyGen = math.MaxUint32

	// MaxCapacity is the largest arena a Manager accepts.
	MaxCapacity = math.MaxUint32
)

var (
	// Nil means no allocation.
	Nil Handle

	// Empty is returned for a zero-size allocation. It refers to the arena
	// base but owns no block.
	Empty = Handle(emptyGen)
)

func newHandle(start int, gen uint32) Handle {
	if start < 0 || start > math.MaxUint32 {
		panic("start overflows the limit of uint32")
	}
	if gen == 0 || gen == emptyGen {
		panic("reserved generation")
	}
	return Handle(uint64(start)<<32 | uint64(gen))
}

func (h Handle) start() int {
	return int(h >> 32)
}

func (h Handle) gen() uint32 {
	return uint32(h & genMask)
}

// IsNil reports whether h is the no-allocation handle.
func (h Handle) IsNil() bool {
	return h == Nil
}

// IsEmpty reports whether h is the zero-size allocation marker.
func (h Handle) IsEmpty() bool {
	return h == Empty
}

// Offset returns the arena offset h points at.
func (h Handle) Offset() int {
	if h.IsEmpty() {
		return 0
	}
	return h.start()
}

func (h Handle) String() string {
	switch h {
	case Nil:
		return "nil"
	case Empty:
		return "empty"
	}
	return fmt.Sprintf("%#x/%d", h.start(), h.gen())
}
