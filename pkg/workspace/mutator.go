package workspace

import (
	"maps"
	"slices"

	"github.com/matzehuels/blockforge/pkg/block"
	"github.com/matzehuels/blockforge/pkg/errors"
	"github.com/matzehuels/blockforge/pkg/events"
	"github.com/matzehuels/blockforge/pkg/wire"
)

// This file implements events.Mutator: the narrow surface events replay
// through. Every method routes back into the same structural block
// methods ordinary mutations use, so replay is subject to the same
// invariants.

// SpawnBlock rebuilds a snapshot subtree: the root block, its fields and
// flags, each input subtree, and the stack below, all connected exactly
// as captured.
func (w *Workspace) SpawnBlock(snap wire.Block) error {
	_, err := w.buildSnapshot(snap)
	return err
}

func (w *Workspace) buildSnapshot(snap wire.Block) (*block.Block, error) {
	b, err := w.NewBlockWithID(snap.Type, snap.ID)
	if err != nil {
		return nil, err
	}
	b.SetShadow(snap.Shadow)
	if err := b.MoveTo(block.Point{X: snap.X, Y: snap.Y}); err != nil {
		return nil, err
	}
	if snap.Disabled {
		if err := b.SetDisabled(true); err != nil {
			return nil, err
		}
	}
	if snap.Collapsed {
		if err := b.SetCollapsed(true); err != nil {
			return nil, err
		}
	}
	// Sorted for deterministic replay; map order would leak into the
	// event stream otherwise.
	for _, name := range slices.Sorted(maps.Keys(snap.Fields)) {
		if err := b.SetFieldValue(name, snap.Fields[name]); err != nil {
			return nil, err
		}
	}

	for _, in := range snap.Inputs {
		child, err := w.buildSnapshot(*in.Block)
		if err != nil {
			return nil, err
		}
		input, ok := b.InputByName(in.Name)
		if !ok || input.Connection() == nil {
			return nil, errors.New(errors.ErrCodeInputNotFound,
				"snapshot references missing input %q on block type %q", in.Name, snap.Type)
		}
		childConn := superiorFacing(child, input.Connection().Kind())
		if childConn == nil {
			return nil, errors.New(errors.ErrCodeConnectionKind,
				"snapshot child %s cannot attach to input %q", child.ID(), in.Name)
		}
		if err := input.Connection().Connect(childConn); err != nil {
			return nil, err
		}
	}

	if snap.Next != nil {
		next, err := w.buildSnapshot(*snap.Next)
		if err != nil {
			return nil, err
		}
		if b.NextConnection() == nil || next.PreviousConnection() == nil {
			return nil, errors.New(errors.ErrCodeConnectionKind,
				"snapshot stacks %s under %s but the connections do not exist", next.ID(), b.ID())
		}
		if err := b.NextConnection().Connect(next.PreviousConnection()); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// superiorFacing picks the child connection matching a parent connection
// of the given kind.
func superiorFacing(child *block.Block, parentKind block.ConnectionKind) *block.Connection {
	switch parentKind {
	case block.InputValue:
		return child.OutputConnection()
	case block.NextStatement:
		return child.PreviousConnection()
	default:
		return nil
	}
}

// RemoveBlock disposes the identified block and its subtree. The stack is
// not healed: replay reproduces recorded placements exactly, it does not
// invent new ones.
func (w *Workspace) RemoveBlock(id string) error {
	b, ok := w.blocks[id]
	if !ok {
		return errors.New(errors.ErrCodeBlockNotFound, "block %q not found", id)
	}
	return b.Dispose(false)
}

// PlaceBlock detaches the identified block from wherever it is and
// re-places it at loc: either a parent connection or free coordinates.
// The detach and the re-place undo as one unit.
func (w *Workspace) PlaceBlock(id string, loc wire.Location) error {
	b, ok := w.blocks[id]
	if !ok {
		return errors.New(errors.ErrCodeBlockNotFound, "block %q not found", id)
	}
	return w.Group(func() error { return w.placeBlock(b, loc) })
}

func (w *Workspace) placeBlock(b *block.Block, loc wire.Location) error {
	if err := b.Unplug(false); err != nil {
		return err
	}
	if loc.IsTopLevel() {
		return b.MoveTo(block.Point{X: loc.X, Y: loc.Y})
	}

	parent, ok := w.blocks[loc.ParentID]
	if !ok {
		return errors.New(errors.ErrCodeBlockNotFound, "parent block %q not found", loc.ParentID)
	}
	var parentConn *block.Connection
	if loc.Input != "" {
		input, ok := parent.InputByName(loc.Input)
		if !ok || input.Connection() == nil {
			return errors.New(errors.ErrCodeInputNotFound,
				"parent block %q has no connectable input %q", loc.ParentID, loc.Input)
		}
		parentConn = input.Connection()
	} else {
		parentConn = parent.NextConnection()
		if parentConn == nil {
			return errors.New(errors.ErrCodeConnectionKind,
				"parent block %q has no next connection", loc.ParentID)
		}
	}
	childConn := superiorFacing(b, parentConn.Kind())
	if childConn == nil {
		return errors.New(errors.ErrCodeConnectionKind,
			"block %q cannot attach to the chosen connection on %q", b.ID(), loc.ParentID)
	}
	return parentConn.Connect(childConn)
}

// SetElement applies a Change event's payload.
func (w *Workspace) SetElement(id, element, name, value string) error {
	b, ok := w.blocks[id]
	if !ok {
		return errors.New(errors.ErrCodeBlockNotFound, "block %q not found", id)
	}
	switch element {
	case events.ElementField:
		return b.SetFieldValue(name, value)
	case events.ElementDisabled:
		return b.SetDisabled(value == "true")
	case events.ElementCollapsed:
		return b.SetCollapsed(value == "true")
	default:
		return errors.New(errors.ErrCodeInvalidEvent, "unknown change element %q", element)
	}
}
