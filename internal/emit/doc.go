// Package emit renders a rewritten declaration graph as target-language
// source and writes it to disk.
//
// Rendering is deterministic: the same graph and options always produce
// the same bytes. Inert nodes produce nothing. Declarations are separated
// by one blank line and the artifact starts with Notice.
//
// After writing, a Formatter normalizes the file. Tidy is built in;
// CommandFormatter runs an external formatter configured per module.
package emit
