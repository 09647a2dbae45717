package phenologystore

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/yanqian/phenology/internal/domain/phenology"
)

// MemoryStore keeps serialized histograms for the lifetime of the process.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryStore constructs a store backed by process memory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

// Get implements phenology.Store.
func (s *MemoryStore) Get(_ context.Context, key string) (phenology.Histogram, bool, error) {
	s.mu.RLock()
	payload, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return phenology.Histogram{}, false, nil
	}
	return decode(payload)
}

// Put implements phenology.Store. Entries are stored serialized so callers cannot
// mutate cached maps through a returned histogram.
func (s *MemoryStore) Put(_ context.Context, key string, histogram phenology.Histogram) error {
	payload, err := json.Marshal(histogram)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.entries[key] = payload
	s.mu.Unlock()
	return nil
}

// Len reports the number of cached entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Clear drops every entry, ending the cache session.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.entries = make(map[string][]byte)
	s.mu.Unlock()
	return nil
}

func decode(payload []byte) (phenology.Histogram, bool, error) {
	var hist phenology.Histogram
	if err := json.Unmarshal(payload, &hist); err != nil {
		return phenology.Histogram{}, false, err
	}
	return hist, true, nil
}

var _ phenology.Store = (*MemoryStore)(nil)
