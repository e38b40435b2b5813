// Package events defines the immutable mutation records that make every
// Blockforge change undoable, redoable, and replayable.
//
// # Lifecycle
//
// An event moves through a fixed lifecycle: constructed (old values
// captured) → finalized (new values recorded, for Move) → fired
// (delivered to listeners) → recorded (pushed to the undo stack, only if
// eligible) → optionally undone and redone. Apart from the RecordNew
// finalize step on Move, events never change after construction.
//
// # Grouping
//
// Every event carries a group id. Consecutive events sharing a group undo
// and redo together as one atomic unit; the workspace assigns the group
// from its open mutation context when the event is fired.
//
// # Replay
//
// Events replay through the narrow [Mutator] interface rather than
// against concrete workspace types, which keeps this package free of
// engine dependencies and lets a store replay envelopes into any
// implementation.
package events

import (
	"github.com/matzehuels/blockforge/pkg/wire"
)

// Event type names used in envelopes.
const (
	TypeCreate = "create"
	TypeDelete = "delete"
	TypeMove   = "move"
	TypeChange = "change"
)

// Change event element names.
const (
	ElementField     = "field"
	ElementDisabled  = "disabled"
	ElementCollapsed = "collapsed"
)

// Mutator is the surface an event needs to replay itself. It is
// implemented by pkg/workspace.
type Mutator interface {
	// SpawnBlock rebuilds a block subtree from a snapshot, reattaching it
	// at the snapshot's recorded placement.
	SpawnBlock(snap wire.Block) error

	// RemoveBlock disposes the identified block and its subtree.
	RemoveBlock(id string) error

	// PlaceBlock detaches the identified block and re-places it at loc.
	PlaceBlock(id string, loc wire.Location) error

	// SetElement applies a Change event's value: a field (element
	// "field", name = field name) or a block flag.
	SetElement(id, element, name, value string) error
}

// Event is one immutable mutation record.
type Event interface {
	// Name returns the event type name (one of the Type constants).
	Name() string

	// BlockID returns the id of the block the event concerns.
	BlockID() string

	// WorkspaceID returns the owning workspace id, set when fired.
	WorkspaceID() string
	SetWorkspaceID(id string)

	// Group returns the transaction id; consecutive events sharing a
	// non-empty group undo and redo atomically.
	Group() string
	SetGroup(group string)

	// RecordUndo reports whether the event is eligible for the undo stack
	// at all. Replay and programmatic rewrites fire events with recording
	// off.
	RecordUndo() bool
	SetRecordUndo(record bool)

	// IsNull reports whether applying the event would be a no-op. Null
	// events are fired to listeners but never recorded.
	IsNull() bool

	// Run applies the event through m: forward re-applies it, backward
	// reverts it.
	Run(m Mutator, forward bool) error

	// Envelope returns the serializable form of the event.
	Envelope() Envelope
}

// base carries the bookkeeping shared by all events.
type base struct {
	workspaceID string
	group       string
	recordUndo  bool
	blockID     string
}

func newBase(blockID string) base {
	return base{blockID: blockID, recordUndo: true}
}

func (b *base) BlockID() string          { return b.blockID }
func (b *base) WorkspaceID() string      { return b.workspaceID }
func (b *base) SetWorkspaceID(id string) { b.workspaceID = id }
func (b *base) Group() string            { return b.group }
func (b *base) SetGroup(group string)    { b.group = group }
func (b *base) RecordUndo() bool         { return b.recordUndo }
func (b *base) SetRecordUndo(r bool)     { b.recordUndo = r }

func (b *base) envelope(typ string) Envelope {
	return Envelope{
		Type:        typ,
		WorkspaceID: b.workspaceID,
		Group:       b.group,
		BlockID:     b.blockID,
	}
}

// Create records the creation of a block subtree.
type Create struct {
	base
	Snap wire.Block
}

// NewCreate builds a Create event from a snapshot of the new subtree.
func NewCreate(blockID string, snap wire.Block) *Create {
	return &Create{base: newBase(blockID), Snap: snap}
}

// Name implements Event.
func (e *Create) Name() string { return TypeCreate }

// IsNull implements Event; creation is never a no-op.
func (e *Create) IsNull() bool { return false }

// Run implements Event.
func (e *Create) Run(m Mutator, forward bool) error {
	if forward {
		return m.SpawnBlock(e.Snap)
	}
	return m.RemoveBlock(e.blockID)
}

// Envelope implements Event.
func (e *Create) Envelope() Envelope {
	env := e.envelope(TypeCreate)
	snap := e.Snap
	env.Snapshot = &snap
	return env
}

// Delete records the disposal of a block subtree. The snapshot captures
// the whole subtree so undo can rebuild it.
type Delete struct {
	base
	Snap wire.Block
}

// NewDelete builds a Delete event from a snapshot taken before teardown.
func NewDelete(blockID string, snap wire.Block) *Delete {
	return &Delete{base: newBase(blockID), Snap: snap}
}

// Name implements Event.
func (e *Delete) Name() string { return TypeDelete }

// IsNull implements Event; deletion is never a no-op.
func (e *Delete) IsNull() bool { return false }

// Run implements Event.
func (e *Delete) Run(m Mutator, forward bool) error {
	if forward {
		return m.RemoveBlock(e.blockID)
	}
	return m.SpawnBlock(e.Snap)
}

// Envelope implements Event.
func (e *Delete) Envelope() Envelope {
	env := e.envelope(TypeDelete)
	snap := e.Snap
	env.Snapshot = &snap
	return env
}

// Move records a placement change: between parent connections, between a
// parent connection and a free position, or between two free positions.
type Move struct {
	base
	Old wire.Location
	New wire.Location

	finalized bool
}

// NewMove builds a Move event capturing the block's old placement. The
// caller mutates the graph and then finalizes with RecordNew.
func NewMove(blockID string, old wire.Location) *Move {
	return &Move{base: newBase(blockID), Old: old}
}

// RecordNew finalizes the event with the block's placement after the
// mutation. This is the only post-construction write an event allows.
func (e *Move) RecordNew(loc wire.Location) {
	e.New = loc
	e.finalized = true
}

// Name implements Event.
func (e *Move) Name() string { return TypeMove }

// IsNull implements Event: a move that ends where it started is a no-op.
func (e *Move) IsNull() bool { return !e.finalized || e.Old.Equal(e.New) }

// Run implements Event.
func (e *Move) Run(m Mutator, forward bool) error {
	if forward {
		return m.PlaceBlock(e.blockID, e.New)
	}
	return m.PlaceBlock(e.blockID, e.Old)
}

// Envelope implements Event.
func (e *Move) Envelope() Envelope {
	env := e.envelope(TypeMove)
	old, nw := e.Old, e.New
	env.OldLocation = &old
	env.NewLocation = &nw
	return env
}

// Change records a value change on one element of a block: a field, or
// one of the presentation flags.
type Change struct {
	base
	Element string
	Field   string // field name when Element == ElementField
	OldVal  string
	NewVal  string
}

// NewChange builds a Change event with old and new values captured.
func NewChange(blockID, element, field, oldVal, newVal string) *Change {
	return &Change{
		base:    newBase(blockID),
		Element: element,
		Field:   field,
		OldVal:  oldVal,
		NewVal:  newVal,
	}
}

// Name implements Event.
func (e *Change) Name() string { return TypeChange }

// IsNull implements Event: setting an element to its current value is a
// no-op.
func (e *Change) IsNull() bool { return e.OldVal == e.NewVal }

// Run implements Event.
func (e *Change) Run(m Mutator, forward bool) error {
	if forward {
		return m.SetElement(e.blockID, e.Element, e.Field, e.NewVal)
	}
	return m.SetElement(e.blockID, e.Element, e.Field, e.OldVal)
}

// Envelope implements Event.
func (e *Change) Envelope() Envelope {
	env := e.envelope(TypeChange)
	env.Element = e.Element
	env.Field = e.Field
	env.OldValue = e.OldVal
	env.NewValue = e.NewVal
	return env
}
