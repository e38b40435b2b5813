package block

import (
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/blockforge/pkg/errors"
	"github.com/matzehuels/blockforge/pkg/events"
	"github.com/matzehuels/blockforge/pkg/wire"
)

// Container is the surface a block needs from the workspace that owns it.
// It is implemented by pkg/workspace; blocks keep the container's registry,
// top-block list, connection database, and event stream in sync through it.
type Container interface {
	// WorkspaceID returns the owning workspace's id.
	WorkspaceID() string

	// Fire delivers an event to listeners and, when recording is enabled,
	// the undo stack.
	Fire(ev events.Event)

	// Quiet runs fn with event firing disabled. Used for teardown that is
	// already covered by an enclosing Delete event.
	Quiet(fn func() error) error

	// Group runs fn inside one event group, so an operation firing
	// several events undoes and redoes as one atomic unit. Nested
	// groups join the outer one.
	Group(fn func() error) error

	// AddTopBlock and RemoveTopBlock maintain the ordered set of
	// parentless blocks.
	AddTopBlock(b *Block)
	RemoveTopBlock(b *Block)

	// ForgetBlock deregisters a disposed block from the id registry and
	// the top-block list.
	ForgetBlock(b *Block)

	// ConnDB returns the workspace's connection database.
	ConnDB() *ConnectionDB
}

// Block is a node in the program graph: identity, type, an ordered input
// list, up to three structural connections, and the parent/children
// relation derived from them.
//
// Blocks are created through the workspace factory, never directly; the
// factory assigns the id, registers the block, and fires the Create event.
type Block struct {
	id        string
	typ       string
	def       *Definition
	container Container

	inputs   []*Input
	output   *Connection // mutually exclusive with previous
	previous *Connection
	next     *Connection

	parent   *Block
	children []*Block

	pos Point

	isShadow  bool
	deletable bool
	movable   bool
	editable  bool
	disabled  bool
	collapsed bool

	disposed bool
}

// New builds a block from its definition. The caller (the workspace
// factory) is responsible for registering the block, adding it to the
// top-block list, and firing the Create event.
func New(container Container, def *Definition, id string) (*Block, error) {
	if container == nil || def == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "container and definition are required")
	}
	if err := errors.ValidateID(id); err != nil {
		return nil, err
	}

	b := &Block{
		id:        id,
		typ:       def.Type,
		def:       def,
		container: container,
		deletable: true,
		movable:   true,
		editable:  true,
	}

	if def.HasOutput {
		b.output = newConnection(b, OutputValue, def.Output, Point{X: 0, Y: rowHeight / 2})
	}
	if def.HasPrevious {
		b.previous = newConnection(b, PreviousStatement, def.Previous, Point{})
	}

	for i, ind := range def.Inputs {
		in := &Input{
			owner: b,
			kind:  ind.Kind,
			name:  ind.Name,
		}
		for _, fd := range ind.Fields {
			in.fields = append(in.fields, &Field{name: fd.Name, value: fd.Value})
		}
		switch ind.Kind {
		case InputKindValue:
			in.conn = newConnection(b, InputValue, ind.Checks, Point{X: blockWidth, Y: rowHeight * (float64(i) + 0.5)})
		case InputKindStatement:
			in.conn = newConnection(b, NextStatement, ind.Checks, Point{X: blockWidth / 2, Y: rowHeight * (float64(i) + 1)})
		}
		b.inputs = append(b.inputs, in)
	}

	if def.HasNext {
		b.next = newConnection(b, NextStatement, def.Next, Point{X: 0, Y: rowHeight * float64(max(len(def.Inputs), 1))})
	}

	db := container.ConnDB()
	for _, c := range b.allConnections() {
		db.Add(c)
	}
	return b, nil
}

// ID returns the block's stable, globally unique identifier.
func (b *Block) ID() string { return b.id }

// Type returns the block's type key in the definition registry.
func (b *Block) Type() string { return b.typ }

// Definition returns the immutable definition the block was built from.
func (b *Block) Definition() *Definition { return b.def }

// Parent returns the block this block is attached under, or nil for a
// top-level block.
func (b *Block) Parent() *Block { return b.parent }

// Children returns the blocks attached via this block's connections, in
// attachment order. The returned slice is a copy.
func (b *Block) Children() []*Block { return slices.Clone(b.children) }

// OutputConnection returns the output connection, or nil.
func (b *Block) OutputConnection() *Connection { return b.output }

// PreviousConnection returns the previous connection, or nil.
func (b *Block) PreviousConnection() *Connection { return b.previous }

// NextConnection returns the next connection, or nil.
func (b *Block) NextConnection() *Connection { return b.next }

// Inputs returns the block's ordered input list as a read-only view.
func (b *Block) Inputs() []*Input { return b.inputs }

// Position returns the block's origin in workspace units.
func (b *Block) Position() Point { return b.pos }

// IsShadow reports whether the block is a shadow placeholder.
func (b *Block) IsShadow() bool { return b.isShadow }

// SetShadow marks or unmarks the block as a shadow placeholder.
func (b *Block) SetShadow(shadow bool) { b.isShadow = shadow }

// IsDeletable reports whether the block may be deleted by the user.
// Shadow blocks are never independently deletable.
func (b *Block) IsDeletable() bool { return b.deletable && !b.isShadow }

// SetDeletable sets the user-deletable flag.
func (b *Block) SetDeletable(v bool) { b.deletable = v }

// IsMovable reports whether the block may be dragged by the user.
func (b *Block) IsMovable() bool { return b.movable && !b.isShadow }

// SetMovable sets the user-movable flag.
func (b *Block) SetMovable(v bool) { b.movable = v }

// IsEditable reports whether the block's fields may be edited.
func (b *Block) IsEditable() bool { return b.editable }

// SetEditable sets the editable flag.
func (b *Block) SetEditable(v bool) { b.editable = v }

// IsDisabled reports the presentation-only disabled flag.
func (b *Block) IsDisabled() bool { return b.disabled }

// IsCollapsed reports the presentation-only collapsed flag.
func (b *Block) IsCollapsed() bool { return b.collapsed }

// IsDisposed reports whether the block has been disposed. A disposed
// block must never be used again.
func (b *Block) IsDisposed() bool { return b.disposed }

// SetDisabled updates the disabled flag, firing a Change event. The flag
// is presentation-only and does not alter graph shape.
func (b *Block) SetDisabled(v bool) error {
	if b.disposed {
		return errors.New(errors.ErrCodeDisposed, "block %s is disposed", b.id)
	}
	ev := events.NewChange(b.id, events.ElementDisabled, "", fmtBool(b.disabled), fmtBool(v))
	b.disabled = v
	b.container.Fire(ev)
	return nil
}

// SetCollapsed updates the collapsed flag, firing a Change event.
func (b *Block) SetCollapsed(v bool) error {
	if b.disposed {
		return errors.New(errors.ErrCodeDisposed, "block %s is disposed", b.id)
	}
	ev := events.NewChange(b.id, events.ElementCollapsed, "", fmtBool(b.collapsed), fmtBool(v))
	b.collapsed = v
	b.container.Fire(ev)
	return nil
}

func fmtBool(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

// superiorConnection returns the connection through which this block
// attaches to a parent: output or previous, whichever exists.
func (b *Block) superiorConnection() *Connection {
	if b.output != nil {
		return b.output
	}
	return b.previous
}

// allConnections returns every connection owned by the block, in a fixed
// order: output, previous, input connections, next.
func (b *Block) allConnections() []*Connection {
	var conns []*Connection
	if b.output != nil {
		conns = append(conns, b.output)
	}
	if b.previous != nil {
		conns = append(conns, b.previous)
	}
	for _, in := range b.inputs {
		if in.conn != nil {
			conns = append(conns, in.conn)
		}
	}
	if b.next != nil {
		conns = append(conns, b.next)
	}
	return conns
}

// SetParent reparents the block. It fails if the block's superior
// connection is attached to anything other than the new parent: callers
// must disconnect before reattaching elsewhere. Passing the current
// parent is a no-op.
func (b *Block) SetParent(p *Block) error {
	if b.disposed {
		return errors.New(errors.ErrCodeDisposed, "block %s is disposed", b.id)
	}
	if b.parent == p {
		return nil
	}
	sup := b.superiorConnection()
	if sup != nil && sup.IsConnected() && sup.TargetBlock() != p {
		return errors.New(errors.ErrCodeStillAttached,
			"block %s is still attached to %s; unplug first", b.id, sup.TargetBlock().id)
	}
	if p != nil && (sup == nil || !sup.IsConnected() || sup.TargetBlock() != p) {
		return errors.New(errors.ErrCodeInvariant,
			"no connection joins block %s to parent %s", b.id, p.id)
	}
	b.reparent(p)
	return nil
}

// reparent performs the bookkeeping for a parent change: old parent's
// children or the top-block list on one side, new parent's children or
// the top-block list on the other. Callers guarantee the connection state
// already agrees.
func (b *Block) reparent(p *Block) {
	if b.parent == p {
		return
	}
	if b.parent != nil {
		b.parent.children = slices.DeleteFunc(b.parent.children, func(c *Block) bool { return c == b })
	} else {
		b.container.RemoveTopBlock(b)
	}
	b.parent = p
	if p != nil {
		p.children = append(p.children, b)
	} else {
		b.container.AddTopBlock(b)
	}
}

// Unplug detaches the block from any superior connection. With healStack,
// a following stack is reconnected to whatever the previous connection
// used to target, but only if the two ends pass the ordinary type check;
// an incompatible pair is left detached with no error reported.
func (b *Block) Unplug(healStack bool) error {
	if b.disposed {
		return errors.New(errors.ErrCodeDisposed, "block %s is disposed", b.id)
	}
	if b.isShadow && b.parent != nil {
		return errors.New(errors.ErrCodeShadowDetach,
			"shadow block %s cannot be detached from its parent", b.id)
	}
	// Detach plus heal is one user action; its events share a group.
	return b.container.Group(func() error { return b.unplug(healStack) })
}

func (b *Block) unplug(healStack bool) error {
	if b.output != nil && b.output.IsConnected() {
		return b.output.Disconnect()
	}

	if b.previous != nil && b.previous.IsConnected() {
		prevTarget := b.previous.Target()
		if err := b.previous.Disconnect(); err != nil {
			return err
		}
		if healStack && b.next != nil && b.next.IsConnected() {
			follower := b.next.Target()
			if err := b.next.Disconnect(); err != nil {
				return err
			}
			// Heal only across a compatible pair; the tail stays detached
			// otherwise.
			if prevTarget != nil && prevTarget.CanConnect(follower) == nil {
				return prevTarget.Connect(follower)
			}
		}
	}
	return nil
}

// Dispose removes the block and its whole subtree from the workspace.
// The block is unplugged first (healing the stack if requested), a single
// Delete event carrying the subtree snapshot is fired, and then children,
// connections, and inputs are torn down bottom-up. Disposing an already
// disposed block is a no-op.
func (b *Block) Dispose(healStack bool) error {
	// The unplug's moves and the Delete undo together.
	return b.container.Group(func() error { return b.dispose(healStack, true) })
}

func (b *Block) dispose(healStack bool, fire bool) error {
	if b.disposed {
		return nil
	}

	if err := b.unplug(healStack); err != nil {
		return err
	}

	if fire {
		ev := events.NewDelete(b.id, b.Snapshot())
		b.container.Fire(ev)
	}

	// Teardown below is fully described by the Delete snapshot; individual
	// child deletions and disconnections must not generate further events.
	return b.container.Quiet(func() error {
		for _, child := range slices.Clone(b.children) {
			if err := child.dispose(false, false); err != nil {
				return err
			}
		}
		for _, c := range b.allConnections() {
			if err := c.dispose(); err != nil {
				return err
			}
		}
		for _, in := range b.inputs {
			in.conn = nil
			in.fields = nil
		}
		b.inputs = nil
		b.children = nil
		b.parent = nil
		b.disposed = true
		b.container.ForgetBlock(b)
		return nil
	})
}

// Descendants returns the block and every block below it, depth-first
// pre-order: self, then each input subtree in input order, then the stack
// below. The traversal tolerates a malformed graph by refusing to visit
// a block twice.
func (b *Block) Descendants() []*Block {
	var out []*Block
	seen := make(map[*Block]bool)
	var walk func(blk *Block)
	walk = func(blk *Block) {
		if blk == nil || seen[blk] {
			return
		}
		seen[blk] = true
		out = append(out, blk)
		for _, in := range blk.inputs {
			if in.conn != nil {
				walk(in.conn.TargetBlock())
			}
		}
		if blk.next != nil {
			walk(blk.next.TargetBlock())
		}
	}
	walk(b)
	return out
}

// LastConnectionInStack walks the chain of next connections and returns
// the first one with nothing attached, or nil if the block has no next
// connection at all.
func (b *Block) LastConnectionInStack() *Connection {
	seen := make(map[*Block]bool)
	for blk := b; blk != nil && !seen[blk]; {
		seen[blk] = true
		if blk.next == nil {
			return nil
		}
		if !blk.next.IsConnected() {
			return blk.next
		}
		blk = blk.next.TargetBlock()
	}
	return nil
}

// NextBlock returns the block attached below in the stack, or nil.
func (b *Block) NextBlock() *Block {
	if b.next == nil || !b.next.IsConnected() {
		return nil
	}
	return b.next.TargetBlock()
}

// Fields returns a copy of all field values keyed by field name.
func (b *Block) Fields() map[string]string {
	out := make(map[string]string)
	for _, in := range b.inputs {
		for _, f := range in.fields {
			out[f.name] = f.value
		}
	}
	return out
}

// InputByName returns the named input, or false if the block has none.
func (b *Block) InputByName(name string) (*Input, bool) {
	for _, in := range b.inputs {
		if in.name == name {
			return in, true
		}
	}
	return nil, false
}

// InputTargetBlock returns the block attached to the named input, or nil
// if the input does not exist or is empty.
func (b *Block) InputTargetBlock(name string) *Block {
	in, ok := b.InputByName(name)
	if !ok || in.conn == nil {
		return nil
	}
	return in.conn.TargetBlock()
}

// AppendInput adds a new input after the existing ones. Value and
// statement inputs must have a name unique within the block; a duplicate
// is an invariant violation.
func (b *Block) AppendInput(kind InputKind, name string, checks []string) (*Input, error) {
	if b.disposed {
		return nil, errors.New(errors.ErrCodeDisposed, "block %s is disposed", b.id)
	}
	if kind != InputKindDummy {
		if name == "" {
			return nil, errors.New(errors.ErrCodeInvalidDefinition,
				"%s input on block %s needs a name", kind, b.id)
		}
		if _, exists := b.InputByName(name); exists {
			return nil, errors.New(errors.ErrCodeDuplicateInput,
				"block %s already has an input named %q", b.id, name)
		}
	}
	in := &Input{owner: b, kind: kind, name: name}
	i := len(b.inputs)
	switch kind {
	case InputKindValue:
		in.conn = newConnection(b, InputValue, checks, Point{X: blockWidth, Y: rowHeight * (float64(i) + 0.5)})
	case InputKindStatement:
		in.conn = newConnection(b, NextStatement, checks, Point{X: blockWidth / 2, Y: rowHeight * (float64(i) + 1)})
	}
	if in.conn != nil {
		b.container.ConnDB().Add(in.conn)
	}
	b.inputs = append(b.inputs, in)
	return in, nil
}

// RemoveInput removes the named input, disposing its connection (and
// disconnecting any attached block) first. With quiet set, a missing
// input is a silent no-op; otherwise it is an error.
func (b *Block) RemoveInput(name string, quiet bool) error {
	if b.disposed {
		return errors.New(errors.ErrCodeDisposed, "block %s is disposed", b.id)
	}
	for i, in := range b.inputs {
		if in.name != name {
			continue
		}
		if in.conn != nil {
			if err := in.conn.dispose(); err != nil {
				return err
			}
		}
		b.inputs = slices.Delete(b.inputs, i, i+1)
		return nil
	}
	if quiet {
		return nil
	}
	return errors.New(errors.ErrCodeInputNotFound, "block %s has no input named %q", b.id, name)
}

// FieldValue returns the value of the named field, searching the input
// rows in order. The second result is false if no such field exists.
func (b *Block) FieldValue(name string) (string, bool) {
	f, ok := b.field(name)
	if !ok {
		return "", false
	}
	return f.value, true
}

// SetFieldValue updates the named field, firing a Change event. Setting a
// field to its current value fires a null event that never reaches the
// undo stack.
func (b *Block) SetFieldValue(name, value string) error {
	if b.disposed {
		return errors.New(errors.ErrCodeDisposed, "block %s is disposed", b.id)
	}
	if !b.editable {
		return errors.New(errors.ErrCodeInvariant, "block %s is not editable", b.id)
	}
	f, ok := b.field(name)
	if !ok {
		return errors.New(errors.ErrCodeFieldNotFound, "block %s has no field named %q", b.id, name)
	}
	ev := events.NewChange(b.id, events.ElementField, name, f.value, value)
	f.value = value
	b.container.Fire(ev)
	return nil
}

func (b *Block) field(name string) (*Field, bool) {
	for _, in := range b.inputs {
		for _, f := range in.fields {
			if f.name == name {
				return f, true
			}
		}
	}
	return nil, false
}

// MoveBy translates the block and its whole subtree, firing a single Move
// event for this block with its old and new placement.
func (b *Block) MoveBy(delta Point) error {
	if b.disposed {
		return errors.New(errors.ErrCodeDisposed, "block %s is disposed", b.id)
	}
	if delta == (Point{}) {
		return nil
	}
	ev := events.NewMove(b.id, b.location())
	b.translate(delta)
	ev.RecordNew(b.location())
	b.container.Fire(ev)
	return nil
}

// MoveTo places the block's origin at p, translating the subtree with it.
func (b *Block) MoveTo(p Point) error {
	return b.MoveBy(p.Sub(b.pos))
}

// translate shifts positions without firing events; descendants move with
// their root.
func (b *Block) translate(delta Point) {
	for _, d := range b.Descendants() {
		d.pos = d.pos.Add(delta)
		for _, c := range d.allConnections() {
			c.moveTo(d.pos.Add(c.offset))
		}
	}
}

// location captures the block's current placement for Move events.
func (b *Block) location() wire.Location {
	if sup := b.superiorConnection(); sup != nil && sup.IsConnected() {
		parent := sup.TargetBlock()
		tc := sup.Target()
		if tc == parent.next {
			return wire.Location{ParentID: parent.id}
		}
		for _, in := range parent.inputs {
			if in.conn == tc {
				return wire.Location{ParentID: parent.id, Input: in.name}
			}
		}
	}
	return wire.Location{X: b.pos.X, Y: b.pos.Y}
}

// Snapshot captures the block and everything below it as a wire subtree.
func (b *Block) Snapshot() wire.Block {
	snap := wire.Block{
		ID:        b.id,
		Type:      b.typ,
		X:         b.pos.X,
		Y:         b.pos.Y,
		Shadow:    b.isShadow,
		Disabled:  b.disabled,
		Collapsed: b.collapsed,
	}
	for _, in := range b.inputs {
		for _, f := range in.fields {
			if snap.Fields == nil {
				snap.Fields = make(map[string]string)
			}
			snap.Fields[f.name] = f.value
		}
		if in.conn != nil && in.conn.IsConnected() {
			child := in.conn.TargetBlock().Snapshot()
			snap.Inputs = append(snap.Inputs, wire.Input{Name: in.name, Block: &child})
		}
	}
	if b.next != nil && b.next.IsConnected() {
		next := b.next.TargetBlock().Snapshot()
		snap.Next = &next
	}
	return snap
}

// String returns a human-readable one-line summary, not a persisted
// format.
func (b *Block) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s#%s", b.typ, b.id)
	var fields []string
	for _, in := range b.inputs {
		for _, f := range in.fields {
			fields = append(fields, fmt.Sprintf("%s=%s", f.name, f.value))
		}
	}
	if len(fields) > 0 {
		fmt.Fprintf(&sb, "{%s}", strings.Join(fields, ","))
	}
	if b.disposed {
		sb.WriteString(" (disposed)")
	}
	return sb.String()
}
