package mempool

import (
	"errors"

	"github.com/bytedance/sonic"
)

// BlockInfo describes one live block of the index.
type BlockInfo struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Size
func (b BlockInfo) Size() int {
	return b.End - b.Start
}

// Blocks returns a copy of the block index in address order.
func (m *Manager) Blocks() []BlockInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.blockInfos()
}

func (m *Manager) blockInfos() []BlockInfo {
	infos := make([]BlockInfo, 0, len(m.blocks))
	for _, b := range m.blocks {
		infos = append(infos, BlockInfo{Start: int(b.start), End: int(b.end)})
	}
	return infos
}

// Check validates the block index: ordered by start, no overlaps, every
// block non-empty and inside the arena.
func (m *Manager) Check() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.data == nil && len(m.blocks) > 0 {
		return errors.New("mempool: blocks without arena")
	}
	if len(m.data) != m.capacity {
		return errors.New("mempool: arena length differs from capacity")
	}
	return m.blocks.check(m.capacity)
}

type snapshotJSON struct {
	Capacity int         `json:"capacity"`
	InUse    int         `json:"in_use"`
	Blocks   []BlockInfo `json:"blocks"`
}

// MarshalJSON encodes the arena layout, not the payload.
func (m *Manager) MarshalJSON() ([]byte, error) {
	m.mu.Lock()
	snap := snapshotJSON{
		Capacity: m.capacity,
		InUse:    m.blocks.inUse(),
		Blocks:   m.blockInfos(),
	}
	m.mu.Unlock()

	return sonic.Marshal(snap)
}
