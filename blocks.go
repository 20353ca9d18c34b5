package mempool

import (
	"golang.org/x/exp/slices"
)

// block is the record of one live allocation [start, end).
type block struct {
	start, end uint32
	gen        uint32
}

func (b block) size() int {
	return int(b.end - b.start)
}

// index is the block index, always sorted by start with no overlaps.
// Free space is whatever the records do not cover.
type index []block

// fit finds the first gap in address order that holds size bytes and
// returns the insert position and the start of the new block.
func (x index) fit(size, capacity int) (pos, start int, ok bool) {
	// gap before the first block, or the whole arena.
	head := capacity
	if len(x) > 0 {
		head = int(x[0].start)
	}
	if head >= size {
		return 0, 0, true
	}

	for i, b := range x {
		next := capacity
		if i+1 < len(x) {
			next = int(x[i+1].start)
		}
		if next-int(b.end) >= size {
			return i + 1, int(b.end), true
		}
	}
	return 0, 0, false
}

// find returns the position of the block starting at start.
func (x index) find(start int) (int, bool) {
	return slices.BinarySearchFunc(x, uint32(start), func(b block, t uint32) int {
		switch {
		case b.start < t:
			return -1
		case b.start > t:
			return 1
		}
		return 0
	})
}

func (x *index) insert(pos int, b block) {
	*x = slices.Insert(*x, pos, b)
}

func (x *index) remove(pos int) block {
	b := (*x)[pos]
	*x = slices.Delete(*x, pos, pos+1)
	return b
}

// gaps calls f for every free range in address order, stopping when f
// returns false.
func (x index) gaps(capacity int, f func(start, end int) bool) {
	prev := 0
	for _, b := range x {
		if int(b.start) > prev && !f(prev, int(b.start)) {
			return
		}
		prev = int(b.end)
	}
	if capacity > prev {
		f(prev, capacity)
	}
}

func (x index) inUse() (n int) {
	for _, b := range x {
		n += b.size()
	}
	return
}

func (x index) largestGap(capacity int) (n int) {
	x.gaps(capacity, func(start, end int) bool {
		if end-start > n {
			n = end - start
		}
		return true
	})
	return
}

func (x index) check(capacity int) error {
	for i, b := range x {
		var reason string
		switch {
		case b.start >= b.end:
			reason = "empty range"
		case int(b.end) > capacity:
			reason = "outside arena"
		case i > 0 && b.start < x[i-1].end:
			reason = "overlaps previous block"
		case b.gen == 0 || b.gen == emptyGen:
			reason = "reserved generation"
		}
		if reason != "" {
			return &InvariantError{Index: i, Start: int(b.start), End: int(b.end), Reason: reason}
		}
	}
	return nil
}
