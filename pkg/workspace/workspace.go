// Package workspace implements the container for a block program: the
// block registry, the ordered set of top-level blocks, the variable
// table, and the event-sourced undo/redo machinery.
//
// # Architecture
//
// A [Workspace] owns everything that used to be process-global in
// classic block editors: the id registry, the connection database, the
// event group and recording flags. Mutation context (open group id,
// recording on/off) is explicit per workspace and scoped with
// [Workspace.Group]; there are no package-level toggles.
//
// # Event flow
//
// Structural methods on blocks and connections construct events and fire
// them through the workspace. Fire tags the event with the workspace id
// and the open group, delivers it synchronously to listeners, and - if
// recording is enabled and the event is not null - records it on the
// bounded undo stack. Undo and redo replay recorded events through the
// same structural methods with recording disabled.
//
// # Concurrency
//
// A workspace is single-threaded: callers serialize access. Event
// delivery is synchronous and re-entrant-safe; a listener may trigger
// further mutations, which join the in-flight group.
package workspace

import (
	"slices"

	"github.com/google/uuid"

	"github.com/matzehuels/blockforge/pkg/block"
	"github.com/matzehuels/blockforge/pkg/errors"
	"github.com/matzehuels/blockforge/pkg/events"
	"github.com/matzehuels/blockforge/pkg/observability"
)

// DefaultMaxUndo is the undo stack cap applied when Options.MaxUndo is
// zero. The oldest entry is discarded once the cap is reached.
const DefaultMaxUndo = 1024

// Options configures a new workspace.
type Options struct {
	// ID is the workspace identifier; a UUID is generated when empty.
	ID string

	// MaxUndo bounds the undo stack. Zero means DefaultMaxUndo; negative
	// disables the bound.
	MaxUndo int
}

// Listener receives every event fired on a workspace. The returned
// handle removes it again.
type Listener struct {
	fn func(events.Event)
}

// Workspace is the container for one block program.
type Workspace struct {
	id       string
	registry *block.Registry

	blocks    map[string]*block.Block
	topBlocks []*block.Block
	variables *VariableMap
	connDB    *block.ConnectionDB

	listeners []*Listener

	undoStack []events.Event
	redoStack []events.Event
	maxUndo   int

	group      string
	groupDepth int
	recording  bool
	muted      int
}

// New creates an empty workspace over a definition registry.
func New(registry *block.Registry, opts Options) (*Workspace, error) {
	if registry == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "definition registry is required")
	}
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	if err := errors.ValidateID(id); err != nil {
		return nil, err
	}
	maxUndo := opts.MaxUndo
	if maxUndo == 0 {
		maxUndo = DefaultMaxUndo
	}
	return &Workspace{
		id:        id,
		registry:  registry,
		blocks:    make(map[string]*block.Block),
		variables: NewVariableMap(),
		connDB:    block.NewConnectionDB(),
		maxUndo:   maxUndo,
		recording: true,
	}, nil
}

// ID returns the workspace identifier.
func (w *Workspace) ID() string { return w.id }

// Registry returns the definition registry blocks are built from.
func (w *Workspace) Registry() *block.Registry { return w.registry }

// Variables returns the workspace's variable table.
func (w *Workspace) Variables() *VariableMap { return w.variables }

// =============================================================================
// Block factory and lookup
// =============================================================================

// NewBlock creates a block of the given type with a generated id,
// registers it as a top-level block, and fires a Create event.
func (w *Workspace) NewBlock(typ string) (*block.Block, error) {
	return w.NewBlockWithID(typ, uuid.NewString())
}

// NewBlockWithID is NewBlock with a caller-supplied id, used by replay
// and deserialization where ids must be stable.
func (w *Workspace) NewBlockWithID(typ, id string) (*block.Block, error) {
	def, ok := w.registry.Get(typ)
	if !ok {
		return nil, errors.New(errors.ErrCodeTypeNotFound, "unknown block type %q", typ)
	}
	if _, exists := w.blocks[id]; exists {
		return nil, errors.New(errors.ErrCodeDuplicateBlockID, "block id %q is already in use", id)
	}
	b, err := block.New(w, def, id)
	if err != nil {
		return nil, err
	}
	w.blocks[id] = b
	w.AddTopBlock(b)
	w.Fire(events.NewCreate(id, b.Snapshot()))
	return b, nil
}

// GetBlockByID returns the block with the given id, or false if no such
// block exists (or it has been disposed).
func (w *Workspace) GetBlockByID(id string) (*block.Block, bool) {
	b, ok := w.blocks[id]
	return b, ok
}

// GetTopBlocks returns the parentless blocks in insertion order:
// creation/detachment order, not spatial order. The slice is a copy.
func (w *Workspace) GetTopBlocks() []*block.Block {
	return slices.Clone(w.topBlocks)
}

// GetAllBlocks returns every live block, top blocks first, each followed
// by its descendants in pre-order.
func (w *Workspace) GetAllBlocks() []*block.Block {
	var all []*block.Block
	for _, top := range w.topBlocks {
		all = append(all, top.Descendants()...)
	}
	return all
}

// BlockCount returns the number of live blocks.
func (w *Workspace) BlockCount() int { return len(w.blocks) }

// Clear disposes every top-level block (and therefore every block) as a
// single undoable group.
func (w *Workspace) Clear() error {
	return w.Group(func() error {
		for _, top := range slices.Clone(w.topBlocks) {
			if err := top.Dispose(false); err != nil {
				return err
			}
		}
		return nil
	})
}

// =============================================================================
// block.Container implementation
// =============================================================================

// WorkspaceID implements block.Container.
func (w *Workspace) WorkspaceID() string { return w.id }

// ConnDB implements block.Container.
func (w *Workspace) ConnDB() *block.ConnectionDB { return w.connDB }

// AddTopBlock implements block.Container. Adding a block that is already
// top-level is a no-op, preserving its position in the order.
func (w *Workspace) AddTopBlock(b *block.Block) {
	if slices.Contains(w.topBlocks, b) {
		return
	}
	w.topBlocks = append(w.topBlocks, b)
}

// RemoveTopBlock implements block.Container.
func (w *Workspace) RemoveTopBlock(b *block.Block) {
	w.topBlocks = slices.DeleteFunc(w.topBlocks, func(t *block.Block) bool { return t == b })
}

// ForgetBlock implements block.Container: a disposed block leaves the id
// registry and the top-block list for good.
func (w *Workspace) ForgetBlock(b *block.Block) {
	w.RemoveTopBlock(b)
	delete(w.blocks, b.ID())
}

// Quiet implements block.Container: fn runs with event firing disabled.
func (w *Workspace) Quiet(fn func() error) error {
	w.muted++
	defer func() { w.muted-- }()
	return fn()
}

// =============================================================================
// Events: firing, listeners, grouping
// =============================================================================

// AddChangeListener registers a callback invoked synchronously for every
// event fired on the workspace.
func (w *Workspace) AddChangeListener(fn func(events.Event)) *Listener {
	l := &Listener{fn: fn}
	w.listeners = append(w.listeners, l)
	return l
}

// RemoveChangeListener removes a previously registered listener.
func (w *Workspace) RemoveChangeListener(l *Listener) {
	w.listeners = slices.DeleteFunc(w.listeners, func(x *Listener) bool { return x == l })
}

// Fire tags the event with the workspace id and the open group, records
// it on the undo stack when eligible, and delivers it to listeners. Null
// events are delivered but never recorded. Fire is a no-op while muted.
func (w *Workspace) Fire(ev events.Event) {
	if w.muted > 0 {
		return
	}
	ev.SetWorkspaceID(w.id)
	if ev.Group() == "" {
		ev.SetGroup(w.group)
	}
	if !w.recording {
		ev.SetRecordUndo(false)
	}

	if ev.RecordUndo() && !ev.IsNull() {
		w.undoStack = append(w.undoStack, ev)
		if w.maxUndo > 0 && len(w.undoStack) > w.maxUndo {
			w.undoStack = slices.Delete(w.undoStack, 0, len(w.undoStack)-w.maxUndo)
		}
		// Branching history is not supported: any new recorded mutation
		// invalidates the redo stack.
		w.redoStack = w.redoStack[:0]
	}

	observability.Engine().OnEvent(w.id, ev.Name())

	// Copy so a listener may add or remove listeners mid-delivery.
	for _, l := range slices.Clone(w.listeners) {
		l.fn(ev)
	}
}

// OpenGroup opens a mutation group; events fired until the matching
// CloseGroup share one transaction id and undo/redo atomically. Nested
// opens join the already open group.
func (w *Workspace) OpenGroup() string {
	if w.groupDepth == 0 {
		w.group = uuid.NewString()
	}
	w.groupDepth++
	return w.group
}

// CloseGroup closes the innermost open mutation group.
func (w *Workspace) CloseGroup() {
	if w.groupDepth == 0 {
		return
	}
	w.groupDepth--
	if w.groupDepth == 0 {
		w.group = ""
	}
}

// CurrentGroup returns the open group id, or empty when none is open.
func (w *Workspace) CurrentGroup() string { return w.group }

// Group runs fn inside a mutation group, closing it even on error.
func (w *Workspace) Group(fn func() error) error {
	w.OpenGroup()
	defer w.CloseGroup()
	return fn()
}

// SetRecording toggles undo recording. Internal rewrites that must not
// pollute user undo history run with recording off.
func (w *Workspace) SetRecording(record bool) { w.recording = record }
