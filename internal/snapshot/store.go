// Package snapshot owns the local ingest cache: the latest pushed
// record per device, held in process memory. Ingest writes race with
// aggregation reads at any time, so access goes through a read/write
// lock. The store keeps raw flat records (canonical keys) so the
// aggregation path runs them through the same normalizer as every
// remote source.
package snapshot

import "sync"

// Store is the process-wide local ingest snapshot. Last write wins
// unconditionally: an ingest write is itself evidence of the most
// recent contact, so no timestamp comparison is done here.
type Store struct {
	mu      sync.RWMutex
	records map[string]map[string]any
}

// NewStore creates an empty snapshot store.
func NewStore() *Store {
	return &Store{records: make(map[string]map[string]any)}
}

// Put stores the record for a device, replacing any previous entry.
func (s *Store) Put(deviceID string, record map[string]any) {
	cp := make(map[string]any, len(record))
	for k, v := range record {
		cp[k] = v
	}

	s.mu.Lock()
	s.records[deviceID] = cp
	s.mu.Unlock()
}

// All returns a copy of every stored record.
func (s *Store) All() []map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]map[string]any, 0, len(s.records))
	for _, rec := range s.records {
		cp := make(map[string]any, len(rec))
		for k, v := range rec {
			cp[k] = v
		}
		out = append(out, cp)
	}
	return out
}

// Len returns the number of devices currently in the snapshot.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
