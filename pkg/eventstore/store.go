// Package eventstore persists event envelopes for replay across process
// boundaries.
//
// A store keeps one append-only log of envelopes per workspace id.
// Implementations for different backends:
//   - memory: in-process storage for development/testing
//   - file: JSON-lines files for CLI usage
//   - redis: list-backed storage for multi-instance deployments
//   - mongo: document storage with durable history
//
// A [Recorder] bridges a live workspace to a store by appending every
// fired event's envelope.
package eventstore

import (
	"context"
	"time"

	"github.com/matzehuels/blockforge/pkg/events"
	"github.com/matzehuels/blockforge/pkg/observability"
)

// Store is the interface for event log backends.
type Store interface {
	// Append adds one envelope to the workspace's log.
	Append(ctx context.Context, workspaceID string, env events.Envelope) error

	// Load returns the workspace's log in append order. A workspace with
	// no log yields an empty slice, not an error.
	Load(ctx context.Context, workspaceID string) ([]events.Envelope, error)

	// Clear drops the workspace's log.
	Clear(ctx context.Context, workspaceID string) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// Recorder appends every event fired on a workspace to a store. Attach
// it with workspace.AddChangeListener(rec.Record); since listeners have
// no error channel, the first append failure is kept and reported by
// Err.
type Recorder struct {
	ctx   context.Context
	store Store
	err   error
}

// NewRecorder creates a recorder writing to store under ctx.
func NewRecorder(ctx context.Context, store Store) *Recorder {
	return &Recorder{ctx: ctx, store: store}
}

// Record is the listener callback: it appends the event's envelope.
func (r *Recorder) Record(ev events.Event) {
	if r.err != nil {
		return
	}
	start := time.Now()
	r.err = r.store.Append(r.ctx, ev.WorkspaceID(), ev.Envelope())
	observability.Store().OnAppend(r.ctx, ev.WorkspaceID(), ev.Name(), time.Since(start), r.err)
}

// Err returns the first append failure, if any.
func (r *Recorder) Err() error { return r.err }
