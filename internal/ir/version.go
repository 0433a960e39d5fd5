package ir

// Version constants for the binding IR and the generator.
const (
	// IRVersion is the declaration graph schema version.
	IRVersion = "1"

	// ToolVersion is the wrapgen version recorded in the generation log.
	ToolVersion = "0.1.0"
)
