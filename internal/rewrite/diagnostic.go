package rewrite

import "fmt"

// DiagnosticKind categorizes a soft condition.
type DiagnosticKind string

const (
	// DiagMacroShadowed: a macro has the same name as a function.
	DiagMacroShadowed DiagnosticKind = "macro_shadowed"
	// DiagAliasRemoved: a macro renames a function of the same family.
	DiagAliasRemoved DiagnosticKind = "alias_removed"
	// DiagStructSize: a STRUCT_SIZE call was rewritten to a macro invocation.
	DiagStructSize DiagnosticKind = "struct_size_rewritten"
	// DiagWrapperUnwrapped: a transparent calling-convention marker was removed.
	DiagWrapperUnwrapped DiagnosticKind = "wrapper_unwrapped"
	// DiagOutOfTarget: declarations from a header outside the module targets.
	DiagOutOfTarget DiagnosticKind = "out_of_target"
	// DiagOverrideApplied: an argument type was overridden.
	DiagOverrideApplied DiagnosticKind = "override_applied"
	// DiagTemplateMatched: a function's options came from a template entry.
	DiagTemplateMatched DiagnosticKind = "template_matched"
)

// Diagnostic is an informational record produced by a pass.
// Diagnostics never abort a run.
type Diagnostic struct {
	Kind   DiagnosticKind `json:"kind"`
	Symbol string         `json:"symbol"`
	Detail string         `json:"detail,omitempty"`
}

func (d Diagnostic) String() string {
	if d.Detail == "" {
		return fmt.Sprintf("%s %s", d.Kind, d.Symbol)
	}
	return fmt.Sprintf("%s %s: %s", d.Kind, d.Symbol, d.Detail)
}

// Stats summarizes what the passes did to one module.
type Stats struct {
	Functions  int `json:"functions"`
	Overridden int `json:"overridden"`
	Guarded    int `json:"guarded"`
	Checked    int `json:"checked"`
	Shadowed   int `json:"shadowed"`
	Aliases    int `json:"aliases"`
	Filtered   int `json:"filtered"`
}

// Count returns how many diagnostics of the given kind are in diags.
func Count(diags []Diagnostic, kind DiagnosticKind) int {
	n := 0
	for _, d := range diags {
		if d.Kind == kind {
			n++
		}
	}
	return n
}
