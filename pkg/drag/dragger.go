package drag

import (
	"github.com/matzehuels/blockforge/pkg/block"
	"github.com/matzehuels/blockforge/pkg/errors"
	"github.com/matzehuels/blockforge/pkg/workspace"
)

// BlockDragger orchestrates one drag gesture over three synchronous
// entry points: StartDrag, Drag per pointer move, and EndDrag (or
// CancelDrag). All events fired between start and end share one group,
// so the whole gesture undoes as a single unit.
type BlockDragger struct {
	ws  *workspace.Workspace
	b   *block.Block
	mgr *Manager

	start    block.Point
	delta    block.Point
	group    string
	dragging bool
}

// NewBlockDragger prepares a drag of b. Dragging an immovable block (or
// a shadow) is refused up front.
func NewBlockDragger(ws *workspace.Workspace, b *block.Block, radius float64) (*BlockDragger, error) {
	if b.IsDisposed() {
		return nil, errors.New(errors.ErrCodeDisposed, "block %s is disposed", b.ID())
	}
	if !b.IsMovable() {
		return nil, errors.New(errors.ErrCodeInvariant, "block %s is not movable", b.ID())
	}
	return &BlockDragger{
		ws:  ws,
		b:   b,
		mgr: NewManager(b, ws.ConnDB(), radius),
	}, nil
}

// StartDrag opens the gesture's event group and detaches the block from
// any superior connection, healing the stack behind it when requested.
func (d *BlockDragger) StartDrag(healStack bool) error {
	if d.dragging {
		return errors.New(errors.ErrCodeInvariant, "drag already started")
	}
	d.group = d.ws.OpenGroup()
	if err := d.b.Unplug(healStack); err != nil {
		d.ws.CloseGroup()
		return err
	}
	d.start = d.b.Position()
	d.dragging = true
	return nil
}

// Drag records the current pointer delta and recomputes the candidate
// preview. It reads the graph but never mutates it.
func (d *BlockDragger) Drag(delta block.Point, overDeleteZone bool) error {
	if !d.dragging {
		return errors.New(errors.ErrCodeInvariant, "drag not started")
	}
	d.delta = delta
	d.mgr.Update(delta, overDeleteZone)
	return nil
}

// WouldDeleteBlock reports whether ending the drag at the last recorded
// position would delete the dragged block.
func (d *BlockDragger) WouldDeleteBlock() bool { return d.mgr.WouldDeleteBlock() }

// EndDrag commits the gesture: the block either gets deleted (over a
// delete zone with no candidate), or moves by the final delta and
// reconnects to the winning candidate if one is in range. The event
// group closes in every path.
func (d *BlockDragger) EndDrag(delta block.Point, overDeleteZone bool) error {
	if err := d.Drag(delta, overDeleteZone); err != nil {
		return err
	}
	d.dragging = false
	defer d.ws.CloseGroup()

	if d.mgr.WouldDeleteBlock() {
		return d.b.Dispose(false)
	}
	if err := d.b.MoveTo(d.start.Add(delta)); err != nil {
		return err
	}
	return d.mgr.ApplyConnections()
}

// CancelDrag abandons the gesture and rolls back the detach performed by
// StartDrag, leaving the graph as it was before the drag began. A drag
// that recorded nothing (the block was already top-level) rolls back
// nothing.
func (d *BlockDragger) CancelDrag() error {
	if !d.dragging {
		return nil
	}
	d.dragging = false
	d.ws.CloseGroup()
	if ev, ok := d.ws.PeekUndo(); ok && ev.Group() == d.group {
		return d.ws.Undo(false)
	}
	return nil
}
