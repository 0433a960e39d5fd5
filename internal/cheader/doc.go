// Package cheader builds a module's declaration graph from C headers.
//
// Preprocessing and parsing are delegated to modernc.org/cc/v3. This
// package only maps what the parser returns onto ir nodes: function
// prototypes, typedefs and object-like or function-like macros, each
// tagged with the header it came from. Macro replacement lists are
// classified into the small set of shapes the rewriting passes understand.
package cheader
