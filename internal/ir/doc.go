// Package ir provides the declaration graph and binding IR types for wrapgen.
//
// This package contains type definitions and small pure helpers only. All
// other internal packages import ir; ir imports nothing internal. This keeps
// the declaration graph the foundational layer with no circular dependencies.
//
// Run identity uses domain-separated SHA-256 over RFC 8785 canonical JSON
// (MarshalCanonical) so digests are independent of options file format.
//
// Key design constraints:
//   - Nodes live in an arena addressed by stable index; nodes are never removed
//   - An inert node (Skip or Empty) never becomes Active again
//   - Passes install rebuilt expressions with Graph.Replace; shared sub-trees are not mutated
//   - Call wrapping is an explicit variant (NativeCall, GuardedCall, CheckedCall), never positional tree indexing
package ir
