package state

import (
	"context"
	"sync"
)

// MemoryStore keeps ApplicationState in process memory. It backs local
// development and tests where no Redis is available. State is stored in
// encoded form so callers never share pointers with the store.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Load(ctx context.Context, threadID string) (*ApplicationState, error) {
	if threadID == "" {
		return nil, ErrEmptyThread
	}

	s.mu.RLock()
	raw, ok := s.data[threadID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrStateNotFound
	}

	return decodeState(raw)
}

func (s *MemoryStore) Save(ctx context.Context, st *ApplicationState) error {
	payload, err := encodeState(st)
	if err != nil {
		return err
	}
	if st.ThreadID == "" {
		return ErrEmptyThread
	}

	s.mu.Lock()
	s.data[st.ThreadID] = payload
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, threadID string) error {
	if threadID == "" {
		return ErrEmptyThread
	}

	s.mu.Lock()
	delete(s.data, threadID)
	s.mu.Unlock()
	return nil
}
