package block

import (
	"slices"

	"github.com/matzehuels/blockforge/pkg/errors"
	"github.com/matzehuels/blockforge/pkg/events"
)

// ConnectionKind identifies the role of a connection on its block.
type ConnectionKind int

const (
	// OutputValue is the plug on a value block; it attaches to an
	// InputValue socket on the parent.
	OutputValue ConnectionKind = iota + 1
	// InputValue is a socket owned by a value input.
	InputValue
	// PreviousStatement is the notch on top of a statement block.
	PreviousStatement
	// NextStatement is the tab below a statement block or owned by a
	// statement input.
	NextStatement
)

// String returns the kind name used in logs and envelopes.
func (k ConnectionKind) String() string {
	switch k {
	case OutputValue:
		return "output"
	case InputValue:
		return "input"
	case PreviousStatement:
		return "previous"
	case NextStatement:
		return "next"
	default:
		return "unknown"
	}
}

// Opposite returns the kind a connection of kind k may attach to.
func (k ConnectionKind) Opposite() ConnectionKind {
	switch k {
	case OutputValue:
		return InputValue
	case InputValue:
		return OutputValue
	case PreviousStatement:
		return NextStatement
	case NextStatement:
		return PreviousStatement
	default:
		return 0
	}
}

// IsSuperior reports whether a connection of this kind belongs to the
// parent side of an attachment. The superior connection's owner becomes
// the parent of the opposite connection's owner.
func (k ConnectionKind) IsSuperior() bool {
	return k == InputValue || k == NextStatement
}

// Connection is a typed attachment point on a block. A connection belongs
// to exactly one block for its whole lifetime and never outlives it.
type Connection struct {
	owner  *Block
	kind   ConnectionKind
	checks []string // nil accepts any type
	target *Connection
	offset Point // anchor relative to the owning block's origin
	pos    Point // absolute anchor position, kept in sync on moves

	disposed bool
}

func newConnection(owner *Block, kind ConnectionKind, checks []string, offset Point) *Connection {
	c := &Connection{
		owner:  owner,
		kind:   kind,
		checks: slices.Clone(checks),
		offset: offset,
	}
	c.pos = owner.pos.Add(offset)
	return c
}

// Owner returns the block this connection belongs to.
func (c *Connection) Owner() *Block { return c.owner }

// Kind returns the connection's kind.
func (c *Connection) Kind() ConnectionKind { return c.kind }

// Checks returns the compatibility filter, or nil if the connection
// accepts any type. The returned slice is a read-only view.
func (c *Connection) Checks() []string { return c.checks }

// Target returns the opposite connection currently attached, or nil.
func (c *Connection) Target() *Connection { return c.target }

// TargetBlock returns the block attached to this connection, or nil.
func (c *Connection) TargetBlock() *Block {
	if c.target == nil {
		return nil
	}
	return c.target.owner
}

// IsConnected reports whether the connection is attached.
func (c *Connection) IsConnected() bool { return c.target != nil }

// Position returns the connection's absolute anchor position.
func (c *Connection) Position() Point { return c.pos }

// moveTo updates the absolute anchor and reindexes the connection in the
// container's connection database.
func (c *Connection) moveTo(p Point) {
	if c.pos == p {
		return
	}
	db := c.owner.container.ConnDB()
	db.Remove(c)
	c.pos = p
	if !c.disposed {
		db.Add(c)
	}
}

// CheckCompatible reports whether the two check filters intersect.
// A nil filter on either side accepts anything.
func CheckCompatible(a, b []string) bool {
	if a == nil || b == nil {
		return true
	}
	for _, t := range a {
		if slices.Contains(b, t) {
			return true
		}
	}
	return false
}

// CanConnect reports whether Connect would succeed, without mutating
// anything. A nil return means the pair is connectable; otherwise the
// error explains the first rule violated. Recoverable mismatches carry
// CONNECTION_* codes, structural problems carry INVARIANT_* codes.
func (c *Connection) CanConnect(other *Connection) error {
	if other == nil {
		return errors.New(errors.ErrCodeInvalidInput, "cannot connect to nil connection")
	}
	if c.disposed || other.disposed {
		return errors.New(errors.ErrCodeDisposed, "cannot connect a disposed connection")
	}
	if c.owner == other.owner {
		return errors.New(errors.ErrCodeConnectionSelf, "cannot connect block %s to itself", c.owner.id)
	}
	if other.kind != c.kind.Opposite() {
		return errors.New(errors.ErrCodeConnectionKind,
			"cannot connect %s to %s", c.kind, other.kind)
	}
	if !CheckCompatible(c.checks, other.checks) {
		return errors.New(errors.ErrCodeConnectionChecks,
			"checks %v and %v do not intersect", c.checks, other.checks)
	}

	sup, inf := orient(c, other)
	if inf.target != nil {
		return errors.New(errors.ErrCodeStillAttached,
			"block %s is still attached; unplug before reconnecting", inf.owner.id)
	}
	if sup.target != nil && !sup.TargetBlock().isShadow {
		return errors.New(errors.ErrCodeConnectionOccupied,
			"connection on block %s is already occupied", sup.owner.id)
	}
	// The inferior block must not contain the superior block, or the
	// attachment would close a cycle.
	for _, d := range inf.owner.Descendants() {
		if d == sup.owner {
			return errors.New(errors.ErrCodeCycle,
				"connecting %s under %s would form a cycle", inf.owner.id, sup.owner.id)
		}
	}
	return nil
}

// orient splits a validated pair into (superior, inferior). Exactly one
// side of any legal pair is superior.
func orient(a, b *Connection) (sup, inf *Connection) {
	if a.kind.IsSuperior() {
		return a, b
	}
	return b, a
}

// Connect attaches two connections symmetrically and reparents the
// inferior block under the superior block. A shadow occupant on the
// superior side is disposed first; any other occupant is an error.
//
// A Move event is fired for the inferior block describing the placement
// change.
func (c *Connection) Connect(other *Connection) error {
	if err := c.CanConnect(other); err != nil {
		return err
	}

	sup, inf := orient(c, other)

	// A shadow replacement fires a Delete before the Move; group them so
	// the pair undoes as one.
	return inf.owner.container.Group(func() error {
		if sup.target != nil {
			shadow := sup.TargetBlock()
			if err := shadow.dispose(false, true); err != nil {
				return err
			}
		}

		child := inf.owner
		mv := events.NewMove(child.id, child.location())

		sup.target = inf
		inf.target = sup
		child.reparent(sup.owner)

		mv.RecordNew(child.location())
		child.container.Fire(mv)
		return nil
	})
}

// Disconnect detaches the connection pair. The formerly inferior block
// becomes a top-level block at its current coordinates. Disconnecting an
// unattached connection is a no-op.
func (c *Connection) Disconnect() error {
	if c.target == nil {
		return nil
	}
	if c.disposed {
		return errors.New(errors.ErrCodeDisposed, "cannot disconnect a disposed connection")
	}

	sup, inf := orient(c, c.target)
	child := inf.owner
	mv := events.NewMove(child.id, child.location())

	sup.target = nil
	inf.target = nil
	child.reparent(nil)

	mv.RecordNew(child.location())
	child.container.Fire(mv)
	return nil
}

// SetCheck replaces the compatibility filter. If the connection is
// currently attached to a now-incompatible opposite, the pair is severed
// first; an invalid attached pair is never left in place.
func (c *Connection) SetCheck(checks []string) error {
	if c.disposed {
		return errors.New(errors.ErrCodeDisposed, "cannot set checks on a disposed connection")
	}
	c.checks = slices.Clone(checks)
	if c.target != nil && !CheckCompatible(c.checks, c.target.checks) {
		return c.Disconnect()
	}
	return nil
}

// dispose tombstones the connection, disconnecting it first if needed and
// removing it from the spatial index. Safe to call twice.
func (c *Connection) dispose() error {
	if c.disposed {
		return nil
	}
	if c.target != nil {
		if err := c.Disconnect(); err != nil {
			return err
		}
	}
	c.owner.container.ConnDB().Remove(c)
	c.disposed = true
	return nil
}
