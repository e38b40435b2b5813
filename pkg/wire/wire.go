// Package wire defines the serialization types for block subtrees and
// block placements.
//
// This package is the canonical wire format for Blockforge's graph data,
// used in event envelopes, API responses, storage, and replay. It sits at
// the boundary between the in-memory engine (pkg/block, pkg/workspace) and
// external formats:
//
//   - [Block]: a snapshot of a block subtree (fields, inputs, stack)
//   - [Location]: where a block sits (parent connection or coordinates)
//
// The format is human-readable and designed for round-trip fidelity:
// snapshot → store → rebuild produces an observably identical subtree.
//
// # Concurrency
//
// All types are plain data; they are safe for concurrent reads but not
// concurrent writes.
package wire

// Block is a serializable snapshot of one block and everything below it:
// its field values, the subtree connected to each input, and the rest of
// its stack via Next.
//
// Snapshots are value-like: rebuilding a snapshot never aliases the blocks
// it was captured from.
type Block struct {
	ID   string `json:"id" bson:"id"`
	Type string `json:"type" bson:"type"`

	X float64 `json:"x,omitempty" bson:"x,omitempty"`
	Y float64 `json:"y,omitempty" bson:"y,omitempty"`

	Shadow    bool `json:"shadow,omitempty" bson:"shadow,omitempty"`
	Disabled  bool `json:"disabled,omitempty" bson:"disabled,omitempty"`
	Collapsed bool `json:"collapsed,omitempty" bson:"collapsed,omitempty"`

	// Fields maps field name to value for every field on the block itself
	// (not its children).
	Fields map[string]string `json:"fields,omitempty" bson:"fields,omitempty"`

	// Inputs holds one entry per input that has a block attached.
	// Inputs without an attached block are omitted.
	Inputs []Input `json:"inputs,omitempty" bson:"inputs,omitempty"`

	// Next is the block attached to this block's next connection, if any.
	Next *Block `json:"next,omitempty" bson:"next,omitempty"`
}

// Input pairs an input name with the subtree attached to it.
type Input struct {
	Name  string `json:"name" bson:"name"`
	Block *Block `json:"block" bson:"block"`
}

// Location describes where a block is placed.
//
// Exactly one interpretation applies:
//   - ParentID and Input set: attached to the named value/statement input
//     of the parent block.
//   - ParentID set, Input empty: attached to the parent's next connection.
//   - ParentID empty: top-level at coordinates (X, Y).
type Location struct {
	ParentID string  `json:"parentId,omitempty" bson:"parentId,omitempty"`
	Input    string  `json:"input,omitempty" bson:"input,omitempty"`
	X        float64 `json:"x,omitempty" bson:"x,omitempty"`
	Y        float64 `json:"y,omitempty" bson:"y,omitempty"`
}

// Equal reports whether two locations describe the same placement.
func (l Location) Equal(other Location) bool {
	return l == other
}

// IsTopLevel reports whether the location is a free position rather than
// an attachment to a parent connection.
func (l Location) IsTopLevel() bool { return l.ParentID == "" }

// BlockIDs returns the IDs of every block in the snapshot, pre-order:
// self, then each input subtree in order, then the stack below.
func (b *Block) BlockIDs() []string {
	if b == nil {
		return nil
	}
	ids := []string{b.ID}
	for _, in := range b.Inputs {
		ids = append(ids, in.Block.BlockIDs()...)
	}
	ids = append(ids, b.Next.BlockIDs()...)
	return ids
}

// Count returns the number of blocks in the snapshot, self included.
func (b *Block) Count() int {
	if b == nil {
		return 0
	}
	n := 1
	for _, in := range b.Inputs {
		n += in.Block.Count()
	}
	return n + b.Next.Count()
}
