package mempool

// Stats is a snapshot of the arena usage.
type Stats struct {
	Capacity   int
	InUse      int
	Free       int
	Blocks     int
	LargestGap int

	// operation counters since the last Init.
	Allocs   uint64
	Frees    uint64
	Resizes  uint64
	Failures uint64
}

// Stats
func (m *Manager) Stats() (stats Stats) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats.Capacity = m.capacity
	stats.InUse = m.blocks.inUse()
	stats.Free = m.capacity - stats.InUse
	stats.Blocks = len(m.blocks)
	stats.LargestGap = m.blocks.largestGap(m.capacity)
	stats.Allocs = m.allocs
	stats.Frees = m.frees
	stats.Resizes = m.resizes
	stats.Failures = m.failures
	return
}

// Utilization returns InUse / Capacity, 0 for an inert manager.
func (s Stats) Utilization() float64 {
	if s.Capacity == 0 {
		return 0
	}
	return float64(s.InUse) / float64(s.Capacity)
}
