package block

import "sort"

// ConnectionDB is a spatial index of every live connection in a
// workspace, kept sorted by Y coordinate so that radius-bounded nearest
// searches only scan a horizontal band.
//
// The database is read-heavy: the drag manager queries it on every
// pointer move, while inserts and removals happen only on block creation,
// disposal, and commit-time moves.
type ConnectionDB struct {
	conns []*Connection // sorted by pos.Y, insertion order within equal Y
}

// NewConnectionDB creates an empty connection database.
func NewConnectionDB() *ConnectionDB {
	return &ConnectionDB{}
}

// Len returns the number of indexed connections.
func (db *ConnectionDB) Len() int { return len(db.conns) }

// Add inserts a connection at its current position. Adding a connection
// that is already present is a no-op.
func (db *ConnectionDB) Add(c *Connection) {
	if c == nil || db.indexOf(c) >= 0 {
		return
	}
	i := sort.Search(len(db.conns), func(i int) bool {
		return db.conns[i].pos.Y > c.pos.Y
	})
	db.conns = append(db.conns, nil)
	copy(db.conns[i+1:], db.conns[i:])
	db.conns[i] = c
}

// Remove deletes a connection from the index. Removing an absent
// connection is a no-op.
func (db *ConnectionDB) Remove(c *Connection) {
	if i := db.indexOf(c); i >= 0 {
		db.conns = append(db.conns[:i], db.conns[i+1:]...)
	}
}

// indexOf locates c by scanning the band of entries sharing its Y. The
// linear fallback covers connections whose position changed without a
// reindex; that is a bug elsewhere, but the index must not lie about
// membership because of it.
func (db *ConnectionDB) indexOf(c *Connection) int {
	for i, other := range db.conns {
		if other == c {
			return i
		}
	}
	return -1
}

// Candidate is the result of a closest-connection search.
type Candidate struct {
	Connection *Connection
	Distance   float64
}

// ClosestCandidate returns the nearest connection that could legally
// attach to c, assuming c's anchor were translated by offset. Candidates
// further than maxRadius are ignored, as is any connection for which
// reject returns true.
//
// The search is deterministic: candidates are scanned in Y order and a
// later candidate replaces an earlier one only when strictly closer, so
// ties go to the first discovered. The search never mutates the graph.
func (db *ConnectionDB) ClosestCandidate(c *Connection, maxRadius float64, offset Point, reject func(*Connection) bool) (Candidate, bool) {
	if c == nil || maxRadius <= 0 {
		return Candidate{}, false
	}
	from := c.pos.Add(offset)

	// Band of entries with pos.Y in [from.Y-maxRadius, from.Y+maxRadius].
	lo := sort.Search(len(db.conns), func(i int) bool {
		return db.conns[i].pos.Y >= from.Y-maxRadius
	})

	best := Candidate{Distance: maxRadius}
	found := false
	for i := lo; i < len(db.conns); i++ {
		cand := db.conns[i]
		if cand.pos.Y > from.Y+maxRadius {
			break
		}
		if cand == c || cand.owner == c.owner {
			continue
		}
		if reject != nil && reject(cand) {
			continue
		}
		if c.CanConnect(cand) != nil {
			continue
		}
		d := from.DistanceTo(cand.pos)
		if d > maxRadius {
			continue
		}
		if !found || d < best.Distance {
			best = Candidate{Connection: cand, Distance: d}
			found = true
		}
	}
	return best, found
}
