package record

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps match records in memory. It backs tests and
// database-less runs of the server.
type MemoryStore struct {
	mu   sync.RWMutex
	recs []MatchRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Record implements Recorder.
func (s *MemoryStore) Record(ctx context.Context, rec MatchRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, rec)
	return nil
}

// ListByUser implements Store.
func (s *MemoryStore) ListByUser(ctx context.Context, userID string) ([]MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []MatchRecord
	for i := len(s.recs) - 1; i >= 0; i-- {
		rec := s.recs[i]
		if rec.UserID1 == userID || rec.UserID2 == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// All returns a copy of every stored record in insertion order.
func (s *MemoryStore) All() []MatchRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]MatchRecord, len(s.recs))
	copy(out, s.recs)
	return out
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.recs)
}
