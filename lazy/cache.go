package lazy

import "sync"

// Hashable keys carry their own 64 bit hash, used to pick a shard.
type Hashable interface {
	comparable
	Sum64() uint64
}

const shardCount = 16

type shard[K Hashable, V any] struct {
	mu      sync.RWMutex
	entries map[K]V
}

// HashMap memoizes one value per key. The factory runs the first time a key
// is asked for and never again for that key, even when several goroutines ask
// at once. Entries are never evicted.
type HashMap[K Hashable, V any] struct {
	factory func(K) V
	shards  [shardCount]shard[K, V]
}

func NewHashMap[K Hashable, V any](factory func(K) V) *HashMap[K, V] {
	m := &HashMap[K, V]{factory: factory}
	for i := range m.shards {
		m.shards[i].entries = map[K]V{}
	}
	return m
}

func (m *HashMap[K, V]) shardFor(key K) *shard[K, V] {
	return &m.shards[key.Sum64()%shardCount]
}

// Get returns the value for key, building it on first use.
func (m *HashMap[K, V]) Get(key K) V {
	s := m.shardFor(key)

	s.mu.RLock()
	v, ok := s.entries[key]
	s.mu.RUnlock()
	if ok {
		return v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.entries[key]; ok {
		return v
	}
	v = m.factory(key)
	s.entries[key] = v
	return v
}

// Peek returns the value for key without building it.
func (m *HashMap[K, V]) Peek(key K) (V, bool) {
	s := m.shardFor(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[key]
	return v, ok
}

func (m *HashMap[K, V]) Len() int {
	n := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.RLock()
		n += len(s.entries)
		s.mu.RUnlock()
	}
	return n
}

// Keys returns the keys built so far, in no particular order.
func (m *HashMap[K, V]) Keys() []K {
	keys := make([]K, 0, m.Len())
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.RLock()
		for k := range s.entries {
			keys = append(keys, k)
		}
		s.mu.RUnlock()
	}
	return keys
}
