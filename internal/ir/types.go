package ir

// ModuleSpec describes one logical module (one vendor sub-library).
// Supplied once per module invocation; immutable during a run.
type ModuleSpec struct {
	Name        string   `json:"name"`
	Family      string   `json:"family,omitempty"`
	Headers     []string `json:"headers"`      // ordered header paths
	Targets     []string `json:"targets"`      // path substrings or glob patterns
	IncludeDirs []string `json:"include_dirs"` // -I directories
	Defines     []Define `json:"defines"`
	ConfigPath  string   `json:"config"` // per-module options file
}

// Define is a preprocessor define, either a bare name or a name=value pair.
type Define struct {
	Name  string `json:"name"`
	Value string `json:"value,omitempty"`
}

// Flag renders the define as a -D parser argument.
func (d Define) Flag() string {
	if d.Value == "" {
		return "-D" + d.Name
	}
	return "-D" + d.Name + "=" + d.Value
}
