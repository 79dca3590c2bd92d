package cache

import (
	"container/list"
	"sync"

	"github.com/rustyeddy/quant/market"
)

const DefaultCapacity = 128

// Memory is the bounded in-process tier. Eviction is least-recently-used:
// a hit promotes the entry to most-recently-used, and inserting beyond
// capacity drops the LRU entry. Safe for concurrent use.
type Memory struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front = most recently used
	items    map[Key]*list.Element

	hits      int64
	misses    int64
	evictions int64
}

type memEntry struct {
	key    Key
	series *market.Series
}

// MemoryStats is a point-in-time snapshot of tier counters.
type MemoryStats struct {
	Size      int
	Capacity  int
	Hits      int64
	Misses    int64
	Evictions int64
}

func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Memory{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[Key]*list.Element),
	}
}

// Get returns the series for key, served either by an exact entry or by
// slicing a wider cached range for the same (symbol, freq). Partial
// overlap is a miss.
func (m *Memory) Get(key Key) (*market.Series, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.items[key]; ok {
		m.order.MoveToFront(el)
		m.hits++
		return el.Value.(*memEntry).series, true
	}

	// Range containment: a wider cached entry serves the sub-range.
	for k, el := range m.items {
		if k.Contains(key) {
			m.order.MoveToFront(el)
			m.hits++
			s := el.Value.(*memEntry).series
			return s.Slice(key.StartTime(), key.EndTime()), true
		}
	}

	m.misses++
	return nil, false
}

// Put stores the series under key, evicting the LRU entry when over
// capacity. Storing an existing key replaces the entry and promotes it.
func (m *Memory) Put(key Key, s *market.Series) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.items[key]; ok {
		el.Value.(*memEntry).series = s
		m.order.MoveToFront(el)
		return
	}

	m.items[key] = m.order.PushFront(&memEntry{key: key, series: s})

	for len(m.items) > m.capacity {
		back := m.order.Back()
		if back == nil {
			break
		}
		m.order.Remove(back)
		delete(m.items, back.Value.(*memEntry).key)
		m.evictions++
	}
}

// Invalidate drops the exact key, if present.
func (m *Memory) Invalidate(key Key) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.items[key]; ok {
		m.order.Remove(el)
		delete(m.items, key)
	}
}

// InvalidateFunc drops every entry whose key matches pred.
func (m *Memory) InvalidateFunc(pred func(Key) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, el := range m.items {
		if pred(k) {
			m.order.Remove(el)
			delete(m.items, k)
		}
	}
}

func (m *Memory) Stats() MemoryStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	return MemoryStats{
		Size:      len(m.items),
		Capacity:  m.capacity,
		Hits:      m.hits,
		Misses:    m.misses,
		Evictions: m.evictions,
	}
}
