package mempool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/xxh3"
)

func newManager(t *testing.T, capacity int) *Manager {
	m, err := New(Options{Capacity: capacity})
	require.NoError(t, err)
	return m
}

func fill(b []byte, seed byte) uint64 {
	for i := range b {
		b[i] = seed + byte(i)
	}
	return xxh3.Hash(b)
}

func TestNew(t *testing.T) {
	assert := assert.New(t)

	m, err := New(DefaultOptions)
	assert.NoError(err)
	assert.Equal(DefaultOptions.Capacity, m.Stats().Capacity)

	_, err = New(Options{Capacity: 0})
	assert.Error(err)

	_, err = New(Options{Capacity: -1})
	assert.Error(err)
}

func TestManagerUninitialized(t *testing.T) {
	assert := assert.New(t)

	var m Manager
	h, err := m.Alloc(1)
	assert.ErrorIs(err, ErrNotInit)
	assert.Equal(Nil, h)

	_, err = m.Alloc(0)
	assert.ErrorIs(err, ErrNotInit)

	_, err = m.Resize(Nil, 8)
	assert.ErrorIs(err, ErrNotInit)

	// unusable capacities keep the manager inert.
	for _, capacity := range []int{0, -1} {
		m.Init(capacity)
		_, err = m.Alloc(1)
		assert.ErrorIs(err, ErrNotInit)
		assert.Equal(0, m.Stats().Capacity)
	}

	m.Free(Nil)
	m.Free(Empty)
	assert.Nil(m.Bytes(Empty))
	assert.NoError(m.Check())
}

// init(100); alloc(30); alloc(40); free(first); alloc(50) fails; alloc(30)
// lands in the freed gap.
func TestManagerFirstFit(t *testing.T) {
	assert := assert.New(t)
	m := newManager(t, 100)

	a0, err := m.Alloc(30)
	assert.NoError(err)
	assert.Equal(0, a0.Offset())

	a1, err := m.Alloc(40)
	assert.NoError(err)
	assert.Equal(30, a1.Offset())

	m.Free(a0)

	h, err := m.Alloc(50)
	assert.ErrorIs(err, ErrNoSpace)
	assert.Equal(Nil, h)

	a2, err := m.Alloc(30)
	assert.NoError(err)
	assert.Equal(0, a2.Offset())
	assert.NotEqual(a0, a2)

	assert.Equal([]BlockInfo{{0, 30}, {30, 70}}, m.Blocks())
	assert.NoError(m.Check())
}

func TestManagerMiddleGap(t *testing.T) {
	assert := assert.New(t)
	m := newManager(t, 100)

	a, _ := m.Alloc(10)
	b, _ := m.Alloc(10)
	c, _ := m.Alloc(10)
	assert.Equal([]int{0, 10, 20}, []int{a.Offset(), b.Offset(), c.Offset()})

	m.Free(b)

	d, err := m.Alloc(5)
	assert.NoError(err)
	assert.Equal(10, d.Offset())

	// the 5 byte hole left behind is skipped.
	e, err := m.Alloc(6)
	assert.NoError(err)
	assert.Equal(30, e.Offset())

	assert.Equal([]BlockInfo{{0, 10}, {10, 15}, {20, 30}, {30, 36}}, m.Blocks())
	assert.NoError(m.Check())
}

func TestManagerZeroSize(t *testing.T) {
	assert := assert.New(t)
	m := newManager(t, 10)

	h, err := m.Alloc(0)
	assert.NoError(err)
	assert.Equal(Empty, h)
	assert.Equal(0, h.Offset())
	assert.Equal(0, m.Stats().Blocks)

	b := m.Bytes(h)
	assert.NotNil(b)
	assert.Len(b, 0)

	// the empty marker never frees the block at the arena base.
	a, _ := m.Alloc(5)
	assert.Equal(0, a.Offset())
	m.Free(Empty)
	assert.Equal(5, m.Size(a))
}

func TestManagerBadSize(t *testing.T) {
	assert := assert.New(t)
	m := newManager(t, 10)

	_, err := m.Alloc(-1)
	assert.ErrorIs(err, ErrInvalidSize)

	_, err = m.Alloc(11)
	assert.ErrorIs(err, ErrNoSpace)

	h, err := m.Alloc(10)
	assert.NoError(err)
	assert.Len(m.Bytes(h), 10)

	_, err = m.Alloc(1)
	assert.ErrorIs(err, ErrNoSpace)
	assert.Equal(uint64(3), m.Stats().Failures)
}

func TestManagerDoubleFree(t *testing.T) {
	assert := assert.New(t)
	m := newManager(t, 100)

	a, _ := m.Alloc(10)
	b, _ := m.Alloc(10)

	m.Free(a)
	for i := 0; i < 10; i++ {
		m.Free(a)
		m.Free(newHandle(50, 7))
		m.Free(newHandle(b.start(), b.gen()+1))
	}
	assert.NoError(m.Check())
	assert.Equal(uint64(1), m.Stats().Frees)
	assert.Equal(10, m.Size(b))

	// a stale handle does not free the block that reused its start.
	c, _ := m.Alloc(10)
	assert.Equal(a.Offset(), c.Offset())
	m.Free(a)
	assert.Equal(10, m.Size(c))
	assert.Nil(m.Bytes(a))
}

func TestManagerBytes(t *testing.T) {
	assert := assert.New(t)
	m := newManager(t, 64)

	a, _ := m.Alloc(16)
	b, _ := m.Alloc(16)
	sa := fill(m.Bytes(a), 1)
	sb := fill(m.Bytes(b), 100)

	assert.Equal(sa, xxh3.Hash(m.Bytes(a)))
	assert.Equal(sb, xxh3.Hash(m.Bytes(b)))

	// payload slices cannot grow into the neighbour.
	pa := m.Bytes(a)
	assert.Equal(16, cap(pa))
	_ = append(pa, 0xff)
	assert.Equal(sb, xxh3.Hash(m.Bytes(b)))
}

func TestManagerResizeGrow(t *testing.T) {
	assert := assert.New(t)
	m := newManager(t, 100)

	a, _ := m.Alloc(10)
	_, _ = m.Alloc(10)
	sum := fill(m.Bytes(a), 7)

	// blocked by the neighbour, the block moves behind it.
	na, err := m.Resize(a, 20)
	assert.NoError(err)
	assert.Equal(20, na.Offset())
	assert.Equal(20, m.Size(na))
	assert.Equal(sum, xxh3.Hash(m.Bytes(na)[:10]))
	assert.Nil(m.Bytes(a))
	assert.NoError(m.Check())
}

func TestManagerResizeInPlace(t *testing.T) {
	assert := assert.New(t)
	m := newManager(t, 100)

	a, _ := m.Alloc(10)
	sum := fill(m.Bytes(a), 3)

	// grows into the space it just vacated.
	na, err := m.Resize(a, 50)
	assert.NoError(err)
	assert.Equal(0, na.Offset())
	assert.Equal(sum, xxh3.Hash(m.Bytes(na)[:10]))

	// shrink keeps the prefix.
	nb, err := m.Resize(na, 4)
	assert.NoError(err)
	assert.Equal(0, nb.Offset())
	assert.Equal([]byte{3, 4, 5, 6}, m.Bytes(nb))
	assert.Equal(uint64(2), m.Stats().Resizes)
}

func TestManagerResizeShrinkMoves(t *testing.T) {
	assert := assert.New(t)
	m := newManager(t, 100)

	x, _ := m.Alloc(10)
	a, _ := m.Alloc(20)
	_, _ = m.Alloc(10)
	fill(m.Bytes(a), 40)
	m.Free(x)

	na, err := m.Resize(a, 5)
	assert.NoError(err)
	assert.Equal(0, na.Offset())
	assert.Equal([]byte{40, 41, 42, 43, 44}, m.Bytes(na))
	assert.NoError(m.Check())
}

func TestManagerResizeRollback(t *testing.T) {
	assert := assert.New(t)
	m := newManager(t, 30)

	_, _ = m.Alloc(10)
	a, _ := m.Alloc(10)
	_, _ = m.Alloc(10)
	sum := fill(m.Bytes(a), 9)

	h, err := m.Resize(a, 15)
	assert.ErrorIs(err, ErrNoSpace)
	assert.Equal(a, h)
	assert.Equal(10, m.Size(a))
	assert.Equal(sum, xxh3.Hash(m.Bytes(a)))
	assert.NoError(m.Check())

	// the original size can still be served.
	m.Free(a)
	_, err = m.Alloc(10)
	assert.NoError(err)
}

func TestManagerResizeRollbackMoves(t *testing.T) {
	assert := assert.New(t)
	m := newManager(t, 40)

	x, _ := m.Alloc(10)
	a, _ := m.Alloc(10)
	_, _ = m.Alloc(10)
	sum := fill(m.Bytes(a), 20)
	m.Free(x)

	// gaps are [0,20) and [30,40) once a is vacated.
	h, err := m.Resize(a, 25)
	assert.ErrorIs(err, ErrNoSpace)
	assert.NotEqual(a, h)
	assert.Equal(0, h.Offset())
	assert.Equal(sum, xxh3.Hash(m.Bytes(h)))
	assert.Nil(m.Bytes(a))
	assert.Equal([]BlockInfo{{0, 10}, {20, 30}}, m.Blocks())
	assert.NoError(m.Check())
}

func TestManagerResizeEdges(t *testing.T) {
	assert := assert.New(t)
	m := newManager(t, 100)

	// nil and empty handles allocate.
	a, err := m.Resize(Nil, 10)
	assert.NoError(err)
	assert.Equal(10, m.Size(a))

	b, err := m.Resize(Empty, 10)
	assert.NoError(err)
	assert.Equal(10, b.Offset())

	// zero size frees.
	h, err := m.Resize(a, 0)
	assert.NoError(err)
	assert.Equal(Nil, h)
	assert.Equal(0, m.Size(a))

	h, err = m.Resize(Nil, 0)
	assert.NoError(err)
	assert.Equal(Nil, h)

	// stale handles are rejected without touching the index.
	h, err = m.Resize(a, 10)
	assert.ErrorIs(err, ErrBadHandle)
	assert.Equal(Nil, h)
	assert.Equal([]BlockInfo{{10, 20}}, m.Blocks())

	_, err = m.Resize(b, -1)
	assert.ErrorIs(err, ErrInvalidSize)
	assert.Equal(10, m.Size(b))

	// allocations through Resize count as allocs.
	stats := m.Stats()
	assert.Equal(uint64(2), stats.Allocs)
	assert.Equal(uint64(1), stats.Frees)
	assert.Equal(uint64(2), stats.Resizes)
	assert.Equal(uint64(2), stats.Failures)
}

func TestManagerDeinit(t *testing.T) {
	assert := assert.New(t)
	m := newManager(t, 100)

	a, _ := m.Alloc(10)
	_, _ = m.Alloc(20)
	m.Deinit()

	stats := m.Stats()
	assert.Equal(0, stats.Capacity)
	assert.Equal(0, stats.Blocks)
	assert.Nil(m.Bytes(a))

	_, err := m.Alloc(1)
	assert.ErrorIs(err, ErrNotInit)
	assert.NoError(m.Check())

	// usable again after Init, old handles stay dead.
	m.Init(50)
	b, err := m.Alloc(10)
	assert.NoError(err)
	assert.Equal(a.Offset(), b.Offset())
	m.Free(a)
	assert.Equal(10, m.Size(b))
}

func TestManagerInitResets(t *testing.T) {
	assert := assert.New(t)
	m := newManager(t, 100)

	_, _ = m.Alloc(60)
	m.Init(100)

	assert.Equal(0, m.Stats().Blocks)
	_, err := m.Alloc(100)
	assert.NoError(err)
}
