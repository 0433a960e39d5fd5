// Package rewrite implements the rewriting passes over a module's
// declaration graph.
//
// Passes run in this order:
//
//  1. Prune: macros shadowed by a function become Skip; macros that merely
//     rename a function of the same family become Empty.
//  2. Filter: declarations from headers outside the module's targets become Skip.
//  3. Rewrite: for each function, resolve its options once, apply argument
//     type overrides, then annotate the call (GC-safe, context hook, error check).
//
// Passes never reactivate an inert node and never mutate an expression in
// place: they install rebuilt expressions with ir.Graph.Replace.
//
// Soft conditions are reported as Diagnostics. The only fatal condition is a
// ConfigError from the override engine.
package rewrite
