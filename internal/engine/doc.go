// Package engine drives binding generation for registry modules.
//
// ProcessModule runs one module end to end: parser arguments, options
// file, header parse, the rewrite passes, emission, the artifact write,
// formatting and the artifact digest. Run processes a selection of
// modules, optionally on a bounded worker pool, and records the outcome
// in the generation log when a store is attached.
//
// Failure isolation: a module failure is captured as a *ModuleError in
// its ModuleResult and never prevents the other modules from running.
// Results always come back in input order, whatever the job count.
//
// Modules share no mutable state. Each one owns its declaration graph
// and options, so workers need no locking beyond the store, which
// serializes writes through a single connection.
package engine
