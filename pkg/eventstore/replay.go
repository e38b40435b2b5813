package eventstore

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/blockforge/pkg/events"
	"github.com/matzehuels/blockforge/pkg/observability"
)

// Replay loads a workspace's log from store and applies every event to
// m in append order. Null events are skipped. Callers replaying into a
// live workspace should disable undo recording first so the replay does
// not pollute the undo stack.
func Replay(ctx context.Context, store Store, workspaceID string, m events.Mutator) (applied int, err error) {
	start := time.Now()
	defer func() {
		observability.Store().OnReplay(ctx, workspaceID, applied, time.Since(start), err)
	}()

	log, err := store.Load(ctx, workspaceID)
	if err != nil {
		return 0, err
	}

	for i, env := range log {
		if err := ctx.Err(); err != nil {
			return applied, err
		}
		ev, err := env.Event()
		if err != nil {
			return applied, fmt.Errorf("event %d: %w", i, err)
		}
		if ev.IsNull() {
			continue
		}
		if err := ev.Run(m, true); err != nil {
			return applied, fmt.Errorf("replay event %d (%s): %w", i, ev.Name(), err)
		}
		applied++
	}
	return applied, nil
}
