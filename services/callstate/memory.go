package callstate

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"voyager/models"
)

// MemoryStore is an in-process Store for tests and for running the server
// without Redis. States are deep-copied through JSON on the way in and out
// so callers never share mutable references, matching RedisStore semantics.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string][]byte)}
}

func (s *MemoryStore) Get(ctx context.Context, callID string) (*models.CallState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.states[callID]
	if !ok {
		return nil, ErrNotFound
	}
	var state models.CallState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *MemoryStore) Save(ctx context.Context, state *models.CallState) error {
	state.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.CallID] = data
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, callID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, callID)
	return nil
}

func (s *MemoryStore) ListCallIDs(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.states))
	for id := range s.states {
		ids = append(ids, id)
	}
	return ids, nil
}
