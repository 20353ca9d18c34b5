// Package mempool manages one fixed-size byte arena and hands out
// variable-size blocks from it.
//
// Live blocks are tracked out of band in an index ordered by address; free
// space is whatever the index does not cover. Alloc places a request in the
// first gap that fits, scanning from the arena base. Free drops the record.
// Resize is a free followed by an alloc inside one critical section, so a
// block may move even when it shrinks; the first min(old, new) bytes follow
// it.
//
//	m, _ := mempool.New(mempool.Options{Capacity: 1 << 20})
//	defer m.Deinit()
//
//	h, err := m.Alloc(64)
//	if err != nil {
//		return err // mempool.ErrNoSpace
//	}
//	copy(m.Bytes(h), payload)
//	h, err = m.Resize(h, 128)
//	m.Free(h)
//
// Handles are opaque. Nil means no allocation, Empty is the result of a
// zero-size Alloc. Freeing Nil, Empty, an unknown or an already freed handle
// does nothing.
//
// Every Manager method takes the manager's mutex for its whole body. The
// slice returned by Bytes aliases the arena, so reading and writing payload
// bytes is up to the caller to synchronize.
package mempool
