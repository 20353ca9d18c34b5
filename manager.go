package mempool

import (
	"sync"

	"golang.org/x/exp/slog"
)

// Manager hands out variable-size blocks from one fixed-size arena.
// The zero Manager is inert until Init is called.
type Manager struct {
	mu  sync.Mutex
	log *slog.Logger

	// data is the arena, nil while uninitialized.
	data     []byte
	capacity int

	// blocks is the index of live allocations ordered by start.
	blocks index
	gen    uint32

	// runtime stats.
	allocs   uint64
	frees    uint64
	resizes  uint64
	failures uint64
}

// New returns an initialized Manager.
func New(options Options) (*Manager, error) {
	if err := checkOptions(options); err != nil {
		return nil, err
	}
	m := &Manager{log: options.Logger}
	m.Init(options.Capacity)
	return m, nil
}

// Init allocates a new arena of capacity bytes and drops any previous state.
// If capacity is not usable the manager stays inert and every Alloc fails
// with ErrNotInit.
func (m *Manager) Init(capacity int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = nil
	m.blocks = nil
	m.capacity = 0
	m.allocs, m.frees, m.resizes, m.failures = 0, 0, 0, 0

	if capacity > 0 && uint64(capacity) <= MaxCapacity {
		m.data = make([]byte, capacity)
		m.capacity = capacity
	}
	m.logInit(capacity)
}

// Alloc reserves size bytes using first fit over the gaps in address order.
// A zero size returns Empty without consuming a block.
func (m *Manager) Alloc(size int) (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, err := m.alloc(size)
	if err != nil {
		m.failures++
		m.logAlloc("alloc", size, err)
		return Nil, err
	}
	m.allocs++
	return h, nil
}

func (m *Manager) alloc(size int) (Handle, error) {
	if m.data == nil {
		return Nil, ErrNotInit
	}
	if size < 0 {
		return Nil, ErrInvalidSize
	}
	if size > m.capacity {
		return Nil, ErrNoSpace
	}
	if size == 0 {
		return Empty, nil
	}
	h, ok := m.place(size, m.nextGen())
	if !ok {
		return Nil, ErrNoSpace
	}
	return h, nil
}

// place inserts a block of size bytes into the first gap that fits.
func (m *Manager) place(size int, gen uint32) (Handle, bool) {
	pos, start, ok := m.blocks.fit(size, m.capacity)
	if !ok {
		return Nil, false
	}
	m.blocks.insert(pos, block{
		start: uint32(start),
		end:   uint32(start + size),
		gen:   gen,
	})
	return newHandle(start, gen), true
}

func (m *Manager) nextGen() uint32 {
	m.gen++
	if m.gen == 0 || m.gen == emptyGen {
		m.gen = 1
	}
	return m.gen
}

// Free returns the block of h to the arena. Nil, Empty, unknown and already
// freed handles are ignored.
func (m *Manager) Free(h Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if pos, ok := m.lookup(h); ok {
		m.blocks.remove(pos)
		m.frees++
	}
}

// lookup returns the index position of the live block h refers to.
func (m *Manager) lookup(h Handle) (int, bool) {
	if h.IsNil() || h.IsEmpty() || m.data == nil {
		return -1, false
	}
	pos, ok := m.blocks.find(h.start())
	if !ok || m.blocks[pos].gen != h.gen() {
		return -1, false
	}
	return pos, true
}

// Resize frees h and allocates size bytes in its place, keeping the first
// min(old, size) bytes. The block may move even when shrinking.
//
// A zero size frees h and returns Nil. A Nil or Empty h is a plain Alloc
// and is counted as one.
// If no gap fits, the original size is allocated again with first fit and
// Resize returns the restored handle together with ErrNoSpace. The restored
// handle equals h unless the block moved.
func (m *Manager) Resize(h Handle, size int) (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	op, counter := "resize", &m.resizes
	if size > 0 && (h.IsNil() || h.IsEmpty()) {
		op, counter = "alloc", &m.allocs
	}
	nh, err := m.resize(h, size)
	if err != nil {
		m.failures++
		m.logAlloc(op, size, err)
		return nh, err
	}
	*counter++
	return nh, nil
}

func (m *Manager) resize(h Handle, size int) (Handle, error) {
	if size < 0 {
		return Nil, ErrInvalidSize
	}
	if size == 0 {
		if pos, ok := m.lookup(h); ok {
			m.blocks.remove(pos)
			m.frees++
		}
		return Nil, nil
	}
	if h.IsNil() || h.IsEmpty() {
		return m.alloc(size)
	}
	if m.data == nil {
		return Nil, ErrNotInit
	}

	pos, ok := m.lookup(h)
	if !ok {
		return Nil, ErrBadHandle
	}
	old := m.blocks.remove(pos)

	nh, err := m.alloc(size)
	if err != nil {
		// the vacated range is free again, so the old size always fits.
		restored, ok := m.place(old.size(), old.gen)
		if !ok {
			panic("mempool: rollback found no gap")
		}
		m.move(restored.start(), int(old.start), old.size())
		return restored, err
	}

	n := old.size()
	if size < n {
		n = size
	}
	m.move(nh.start(), int(old.start), n)
	return nh, nil
}

// move copies n payload bytes from src to dst, which may overlap.
func (m *Manager) move(dst, src, n int) {
	if dst == src || n == 0 {
		return
	}
	copy(m.data[dst:dst+n], m.data[src:src+n])
}

// Bytes returns the payload of h. The slice aliases the arena, so writes
// through it are not synchronized by the manager.
// Empty yields a zero-length slice, an unknown handle yields nil.
func (m *Manager) Bytes(h Handle) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h.IsEmpty() && m.data != nil {
		return m.data[:0:0]
	}
	pos, ok := m.lookup(h)
	if !ok {
		return nil
	}
	b := m.blocks[pos]
	return m.data[b.start:b.end:b.end]
}

// Size returns the length of the live block h, or 0.
func (m *Manager) Size(h Handle) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	pos, ok := m.lookup(h)
	if !ok {
		return 0
	}
	return m.blocks[pos].size()
}

// Deinit releases the arena and every block still allocated.
// The manager is inert until the next Init.
func (m *Manager) Deinit() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logDeinit(len(m.blocks), m.blocks.inUse())
	m.data = nil
	m.blocks = nil
	m.capacity = 0
}
