package snapshot

import (
	"fmt"
	"sync"
	"testing"
)

func TestStoreLastWriteWins(t *testing.T) {
	s := NewStore()
	s.Put("D1", map[string]any{"device_id": "D1", "timestamp": "2026-03-01T10:00:00Z"})
	s.Put("D1", map[string]any{"device_id": "D1", "timestamp": "2026-03-01T09:00:00Z"})

	all := s.All()
	if len(all) != 1 {
		t.Fatalf("expected 1 record, got %d", len(all))
	}
	// The older-timestamped write still wins: last write, no comparison.
	if all[0]["timestamp"] != "2026-03-01T09:00:00Z" {
		t.Fatalf("expected last write to win, got %v", all[0]["timestamp"])
	}
}

func TestStoreCopiesRecords(t *testing.T) {
	s := NewStore()
	rec := map[string]any{"device_id": "D1", "hr": 70.0}
	s.Put("D1", rec)
	rec["hr"] = 999.0

	all := s.All()
	if all[0]["hr"] != 70.0 {
		t.Fatalf("store must not alias caller maps, got %v", all[0]["hr"])
	}

	all[0]["hr"] = 1.0
	if s.All()[0]["hr"] != 70.0 {
		t.Fatal("All must return copies")
	}
}

func TestStoreConcurrentReadersAndWriter(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			id := fmt.Sprintf("D%d", i%10)
			s.Put(id, map[string]any{"device_id": id})
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				_ = s.All()
				_ = s.Len()
			}
		}()
	}

	wg.Wait()
	if s.Len() != 10 {
		t.Fatalf("expected 10 devices, got %d", s.Len())
	}
}
