// Package block implements the block/connection graph at the heart of
// Blockforge: typed blocks joined by typed connections into trees and
// stacks.
//
// # Architecture
//
// The package defines the structural core and nothing else - no rendering,
// no serialization beyond snapshots, no persistence:
//
//   - [Block]: a node in the program graph with an ordered input list and
//     up to three structural connections (output, previous, next)
//   - [Connection]: a typed attachment point; connects symmetrically to
//     exactly one opposite connection
//   - [Input]: a named slot on a block owning an optional connection plus
//     a row of fields
//   - [Definition], [Registry]: immutable per-type block definitions,
//     consulted at construction instead of mutating block instances
//   - [ConnectionDB]: a spatial index of connections sorted by Y, used by
//     the drag manager to find reconnection candidates
//
// # Invariants
//
// The mutation methods enforce, at every public entry point:
//
//   - a block has at most one parent, and the parent/children relation
//     always agrees with connection targets
//   - a block has an output connection or a previous connection, never both
//   - connection targets are symmetric: a.Target() == b iff b.Target() == a
//   - cycles cannot form: connecting a block to its own descendant fails
//   - disposed blocks and connections are tombstoned; further use fails
//     loudly instead of corrupting the graph
//
// Violations surface as INVARIANT_* errors from pkg/errors; recoverable
// type/kind mismatches surface as CONNECTION_* errors.
//
// # Containers
//
// Blocks live inside a [Container] (implemented by pkg/workspace). The
// container owns the id registry, the top-block list, the connection
// database, and the event stream. Blocks call back into it to keep those
// in sync; they never reach around it.
//
// # Concurrency
//
// Everything here is single-threaded by design. All mutations run to
// completion synchronously; callers serialize access (one UI event loop,
// or a mutex in the HTTP layer).
package block
