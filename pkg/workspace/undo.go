package workspace

import (
	"github.com/matzehuels/blockforge/pkg/errors"
	"github.com/matzehuels/blockforge/pkg/events"
	"github.com/matzehuels/blockforge/pkg/observability"
)

// Undo reverts the most recent undoable mutation; with redo set it
// re-applies the most recently undone one instead. Events sharing a
// group id with the popped event are batched and replayed together as
// one atomic unit. Replay runs with recording disabled so it never
// re-records itself.
//
// Undoing with an empty stack is a no-op.
func (w *Workspace) Undo(redo bool) error {
	source, dest := &w.undoStack, &w.redoStack
	if redo {
		source, dest = &w.redoStack, &w.undoStack
	}
	if len(*source) == 0 {
		return nil
	}

	// Pop the top event plus all immediately preceding events in its
	// group. Popped order is reverse construction order for undo and
	// construction order for redo, which is exactly the replay order
	// each direction needs.
	batch := []events.Event{pop(source)}
	if g := batch[0].Group(); g != "" {
		for len(*source) > 0 && top(*source).Group() == g {
			batch = append(batch, pop(source))
		}
	}

	wasRecording := w.recording
	w.recording = false
	defer func() { w.recording = wasRecording }()

	// Move the whole batch across before replaying anything; a replay
	// failure mid-batch must not lose recorded events.
	*dest = append(*dest, batch...)

	for _, ev := range batch {
		if err := ev.Run(w, redo); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err,
				"replay %s event for block %s", ev.Name(), ev.BlockID())
		}
	}
	observability.Engine().OnUndo(w.id, redo, len(batch))
	return nil
}

// PeekUndo returns the most recently recorded event without removing it,
// or false when the undo stack is empty.
func (w *Workspace) PeekUndo() (events.Event, bool) {
	if len(w.undoStack) == 0 {
		return nil, false
	}
	return top(w.undoStack), true
}

// UndoStackSize returns the number of recorded undoable events.
func (w *Workspace) UndoStackSize() int { return len(w.undoStack) }

// RedoStackSize returns the number of re-appliable events.
func (w *Workspace) RedoStackSize() int { return len(w.redoStack) }

// ClearUndo drops both history stacks without touching the graph.
func (w *Workspace) ClearUndo() {
	w.undoStack = w.undoStack[:0]
	w.redoStack = w.redoStack[:0]
}

func top(s []events.Event) events.Event { return s[len(s)-1] }

func pop(s *[]events.Event) events.Event {
	ev := (*s)[len(*s)-1]
	*s = (*s)[:len(*s)-1]
	return ev
}
