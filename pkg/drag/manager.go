// Package drag resolves continuous drag gestures into single graph
// mutations: the candidate search that runs on every pointer move, and
// the dragger that orchestrates one gesture from detach to commit.
//
// The design is deferred-commit: during a drag the graph is only read.
// Candidate previews are recomputed from scratch each update, and the
// one mutation (reconnect, free drop, or delete) happens at gesture end.
// A gesture interrupted at any point therefore never leaves half-applied
// connections.
package drag

import (
	"github.com/matzehuels/blockforge/pkg/block"
)

// DefaultConnectRadius is the candidate search radius in workspace units
// used when a caller passes no explicit radius.
const DefaultConnectRadius = 20.0

// Manager finds the best reconnection candidate for a dragged block. It
// is created at drag start and queried on every pointer move; it never
// mutates the graph until ApplyConnections.
type Manager struct {
	top    *block.Block
	db     *block.ConnectionDB
	radius float64

	// available is the dragged block's exposed connections: those able
	// to accept a new external partner. Fixed for the gesture.
	available []*block.Connection

	// dragged is the set of blocks moving with the gesture; candidates
	// inside it are never legal (self-connection must be impossible).
	dragged map[*block.Block]bool

	local       *block.Connection // our side of the winning pair
	closest     *block.Connection // the candidate side
	closestDist float64
	wouldDelete bool
}

// NewManager prepares candidate search for a drag of b and its subtree.
// A non-positive radius falls back to DefaultConnectRadius.
func NewManager(b *block.Block, db *block.ConnectionDB, radius float64) *Manager {
	if radius <= 0 {
		radius = DefaultConnectRadius
	}
	m := &Manager{
		top:     b,
		db:      db,
		radius:  radius,
		dragged: make(map[*block.Block]bool),
	}
	for _, d := range b.Descendants() {
		m.dragged[d] = true
	}
	m.available = exposedConnections(b)
	return m
}

// exposedConnections enumerates the connections on a dragged stack that
// can accept a new external partner: the superior-facing output or
// previous connection, and the first unfilled next connection along the
// stack.
func exposedConnections(b *block.Block) []*block.Connection {
	var conns []*block.Connection
	if c := b.OutputConnection(); c != nil {
		conns = append(conns, c)
	}
	if c := b.PreviousConnection(); c != nil {
		conns = append(conns, c)
	}
	if c := b.LastConnectionInStack(); c != nil {
		conns = append(conns, c)
	}
	return conns
}

// Update recomputes the best candidate for the current drag delta. The
// scan is deterministic: exposed connections are tried in a fixed order
// and a later candidate wins only when strictly closer, so repeated calls
// with the same snapshot and delta return the same candidate.
//
// Deletion is suppressed whenever a reconnection candidate exists:
// reconnection takes priority over the delete zone.
func (m *Manager) Update(delta block.Point, overDeleteZone bool) {
	m.local, m.closest, m.closestDist = nil, nil, 0

	for _, conn := range m.available {
		cand, ok := m.db.ClosestCandidate(conn, m.radius, delta, m.rejectDragged)
		if !ok {
			continue
		}
		if m.closest == nil || cand.Distance < m.closestDist {
			m.local = conn
			m.closest = cand.Connection
			m.closestDist = cand.Distance
		}
	}

	m.wouldDelete = overDeleteZone && m.closest == nil && m.top.IsDeletable()
}

func (m *Manager) rejectDragged(c *block.Connection) bool {
	return m.dragged[c.Owner()]
}

// ClosestCandidate returns the current preview pair: the dragged block's
// connection and the workspace candidate it would join. ok is false when
// no candidate is in range.
func (m *Manager) ClosestCandidate() (local, target *block.Connection, ok bool) {
	return m.local, m.closest, m.closest != nil
}

// WouldDeleteBlock reports whether ending the drag now would delete the
// dragged block: over a delete zone, with no reconnection candidate.
func (m *Manager) WouldDeleteBlock() bool { return m.wouldDelete }

// ApplyConnections commits the last computed candidate, or does nothing
// when there is none. This is the only mutation the manager performs.
func (m *Manager) ApplyConnections() error {
	if m.closest == nil {
		return nil
	}
	local, target := m.local, m.closest
	m.local, m.closest, m.closestDist = nil, nil, 0
	return local.Connect(target)
}
