package harness

import (
	"github.com/roach88/wrapgen/internal/ir"
	"github.com/roach88/wrapgen/internal/rewrite"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every assertion holds.
	Pass bool `json:"pass"`

	// Errors contains assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	RunID  string `json:"run_id"`
	Module string `json:"module"`

	// Status is the module status recorded in the generation log.
	Status string `json:"status"`

	// Phase and Error describe a failed module. Scratch directory paths
	// in Error are replaced with $ROOT.
	Phase string `json:"phase,omitempty"`
	Error string `json:"error,omitempty"`

	// Output is the generated artifact; empty when the module failed.
	Output string `json:"output,omitempty"`
	Digest string `json:"digest,omitempty"`

	Stats       rewrite.Stats         `json:"stats"`
	Diagnostics []ir.DiagnosticRecord `json:"diagnostics"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:        true,
		Errors:      []string{},
		Diagnostics: []ir.DiagnosticRecord{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Failed reports whether the module failed to generate.
func (r *Result) Failed() bool {
	return r.Status == ir.StatusFailed
}
