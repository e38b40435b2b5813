// Package pkg provides the core libraries for the Blockforge block-program engine.
//
// # Overview
//
// Blockforge manages workspaces of connected program blocks - the data
// model behind visual block editors - with full event-sourced undo/redo.
// The pkg directory is organized into five main areas:
//
//  1. [block] - Block domain model (definitions, connections, geometry)
//  2. [workspace] - Workspace container (undo/redo, groups, variables)
//  3. [events] - Mutation events and their wire envelopes
//  4. [eventstore] - Persisted event logs and replay
//  5. [render] - Graphviz diagram output
//
// # Architecture
//
// The typical data flow through Blockforge:
//
//	Block definitions (TOML)
//	         ↓
//	    [block] package (blocks, connections, connection database)
//	         ↓
//	    [workspace] package (mutation, grouping, undo/redo)
//	         ↓
//	    [events] package (create/delete/move/change envelopes)
//	         ↓
//	    [eventstore] package (memory, file, Redis, Mongo logs)
//	         ↓
//	    Replay / [render] DOT and SVG output
//
// # Quick Start
//
// Build a small program and undo the last step:
//
//	import (
//	    "github.com/matzehuels/blockforge/pkg/block"
//	    "github.com/matzehuels/blockforge/pkg/workspace"
//	)
//
//	reg, _ := block.LoadDefinitions("blocks.toml")
//
//	ws, _ := workspace.New(reg, workspace.Options{})
//	ifBlock, _ := ws.NewBlock("controls_if")
//	cond, _ := ws.NewBlock("logic_boolean")
//	in, _ := ifBlock.InputByName("IF0")
//	_ = in.Connection().Connect(cond.OutputConnection())
//	_ = ws.Undo(false)
//
// # Main Packages
//
// ## Domain Model
//
// [block] - Blocks, their connections, field values, and nominal geometry.
// Includes the TOML definition registry and the per-workspace connection
// database used for proximity lookups.
//
// [workspace] - The container for a block program: top-level block set,
// variable table, event groups, and the bounded undo/redo stacks.
//
// [drag] - Drag gestures: exposed connections, candidate highlighting,
// delete-zone rules, and atomic drop/cancel semantics.
//
// ## Events and Persistence
//
// [events] - The four mutation events (create, delete, move, change),
// their inverse replay, and JSON envelopes for transport and storage.
//
// [eventstore] - Append-only event logs per workspace. MemoryStore for
// testing, FileStore for the CLI, RedisStore and MongoStore for server
// deployments. [eventstore.Replay] rebuilds a workspace from its log.
//
// [wire] - Serialization types for block trees and workspace snapshots.
//
// ## Output
//
// [render] - DOT generation and Graphviz SVG rendering of a workspace's
// block forest.
//
// [cache] - Byte-level caching of rendered artifacts keyed by DOT hash.
//
// ## Infrastructure
//
// [errors] - Coded errors shared by the engine, server, and CLI.
//
// [observability] - Optional hooks for metrics and tracing backends.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...            # All tests
//	go test ./pkg/workspace/...  # Specific package
//
// [block]: https://pkg.go.dev/github.com/matzehuels/blockforge/pkg/block
// [workspace]: https://pkg.go.dev/github.com/matzehuels/blockforge/pkg/workspace
// [drag]: https://pkg.go.dev/github.com/matzehuels/blockforge/pkg/drag
// [events]: https://pkg.go.dev/github.com/matzehuels/blockforge/pkg/events
// [eventstore]: https://pkg.go.dev/github.com/matzehuels/blockforge/pkg/eventstore
// [wire]: https://pkg.go.dev/github.com/matzehuels/blockforge/pkg/wire
// [render]: https://pkg.go.dev/github.com/matzehuels/blockforge/pkg/render
// [cache]: https://pkg.go.dev/github.com/matzehuels/blockforge/pkg/cache
// [errors]: https://pkg.go.dev/github.com/matzehuels/blockforge/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/blockforge/pkg/observability
package pkg
