package eventstore

import (
	"context"
	"sync"

	"github.com/matzehuels/blockforge/pkg/events"
)

// MemoryStore is an in-process event log for development and testing.
type MemoryStore struct {
	mu   sync.RWMutex
	logs map[string][]events.Envelope
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{logs: make(map[string][]events.Envelope)}
}

func (s *MemoryStore) Append(ctx context.Context, workspaceID string, env events.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[workspaceID] = append(s.logs[workspaceID], env)
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, workspaceID string) ([]events.Envelope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log := s.logs[workspaceID]
	out := make([]events.Envelope, len(log))
	copy(out, log)
	return out, nil
}

func (s *MemoryStore) Clear(ctx context.Context, workspaceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.logs, workspaceID)
	return nil
}

func (s *MemoryStore) Close(ctx context.Context) error { return nil }

var _ Store = (*MemoryStore)(nil)
