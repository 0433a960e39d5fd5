package ir

// Generation log records (store-layer).
// Ordering uses the logical Seq column, never wall-clock time.

// RunRecord is one invocation of the generator.
type RunRecord struct {
	ID          string `json:"id"` // UUIDv7
	Seq         int64  `json:"seq"`
	Selection   string `json:"selection"` // "all", a module or a family name
	ToolVersion string `json:"tool_version"`
	Modules     int    `json:"modules"`
	Failed      int    `json:"failed"`
}

// ModuleRecord is the outcome of one module within a run.
type ModuleRecord struct {
	RunID         string `json:"run_id"`
	Module        string `json:"module"`
	Status        string `json:"status"` // "ok" | "failed"
	Phase         string `json:"phase,omitempty"`
	Error         string `json:"error,omitempty"`
	OutputPath    string `json:"output_path,omitempty"`
	Digest        string `json:"digest,omitempty"`
	OptionsDigest string `json:"options_digest,omitempty"`
	Functions     int    `json:"functions"`
	Guarded       int    `json:"guarded"`
	Checked       int    `json:"checked"`
	Overridden    int    `json:"overridden"`
	Pruned        int    `json:"pruned"`
	Filtered      int    `json:"filtered"`
}

// Module status values.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// DiagnosticRecord is a soft condition observed while rewriting a module.
type DiagnosticRecord struct {
	RunID  string `json:"run_id"`
	Module string `json:"module"`
	Seq    int64  `json:"seq"`
	Kind   string `json:"kind"`
	Symbol string `json:"symbol"`
	Detail string `json:"detail,omitempty"`
}
