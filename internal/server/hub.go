package server

import (
	"context"
	"sync"

	"github.com/matzehuels/blockforge/pkg/block"
	"github.com/matzehuels/blockforge/pkg/errors"
	"github.com/matzehuels/blockforge/pkg/eventstore"
	"github.com/matzehuels/blockforge/pkg/workspace"
)

// session is one live workspace plus the lock that serializes access to
// it. The engine is not safe for concurrent use, so every handler takes
// the session lock around engine calls.
type session struct {
	mu sync.Mutex
	ws *workspace.Workspace
}

// with runs fn while holding the session lock.
func (s *session) with(fn func(ws *workspace.Workspace) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.ws)
}

// hub owns all live workspaces on this server instance.
type hub struct {
	mu       sync.RWMutex
	sessions map[string]*session
	registry *block.Registry
	store    eventstore.Store
}

func newHub(registry *block.Registry, store eventstore.Store) *hub {
	return &hub{
		sessions: make(map[string]*session),
		registry: registry,
		store:    store,
	}
}

// create builds a new workspace and wires its events into the store.
// The recorder outlives the creating request, so it runs under the
// background context rather than the request's.
func (h *hub) create(_ context.Context, id string) (*session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ws, err := workspace.New(h.registry, workspace.Options{ID: id})
	if err != nil {
		return nil, err
	}
	if _, exists := h.sessions[ws.ID()]; exists {
		return nil, errors.New(errors.ErrCodeInvalidInput, "workspace %q already exists", ws.ID())
	}

	rec := eventstore.NewRecorder(context.Background(), h.store)
	ws.AddChangeListener(rec.Record)

	sess := &session{ws: ws}
	h.sessions[ws.ID()] = sess
	return sess, nil
}

// get returns the session for a workspace id.
func (h *hub) get(id string) (*session, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	sess, ok := h.sessions[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "workspace %q not found", id)
	}
	return sess, nil
}

// remove drops a workspace and clears its stored log.
func (h *hub) remove(ctx context.Context, id string) error {
	h.mu.Lock()
	sess, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()

	if !ok {
		return errors.New(errors.ErrCodeNotFound, "workspace %q not found", id)
	}
	_ = sess // teardown needs no engine call; the GC reclaims the graph
	return h.store.Clear(ctx, id)
}

// ids returns all live workspace ids.
func (h *hub) ids() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.sessions))
	for id := range h.sessions {
		out = append(out, id)
	}
	return out
}
