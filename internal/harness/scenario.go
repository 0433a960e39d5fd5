package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/wrapgen/internal/rewrite"
)

// Scenario defines one generation scenario.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Module is the module name. Defaults to Name.
	Module string `yaml:"module,omitempty"`

	// Family is the registry family of the module.
	Family string `yaml:"family,omitempty"`

	// Headers are written to the scratch directory; the module parses
	// them in order.
	Headers []HeaderFile `yaml:"headers"`

	// Targets are the module's target filters.
	Targets []string `yaml:"targets,omitempty"`

	// IncludeDirs are -I directories, relative to the scratch directory.
	IncludeDirs []string `yaml:"include_dirs,omitempty"`

	// Defines are preprocessor defines, NAME or NAME=VALUE.
	Defines []string `yaml:"defines,omitempty"`

	// Config is the text of the module's options file. Relative output
	// paths land in the scratch directory.
	Config string `yaml:"config"`

	// ConfigFormat is "toml" (default) or "yaml".
	ConfigFormat string `yaml:"config_format,omitempty"`

	// RunID is an optional fixed run ID.
	// If empty, defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`

	// Assertions validate the generated module.
	Assertions []Assertion `yaml:"assertions"`
}

// HeaderFile is one header written for a scenario.
type HeaderFile struct {
	// Path is relative to the scratch directory.
	Path string `yaml:"path"`

	// Content is the header text.
	Content string `yaml:"content"`
}

// Assertion validates one aspect of the generated module.
type Assertion struct {
	// Type specifies the assertion type, one of the Assert* constants.
	Type string `yaml:"type"`

	// Text is the artifact fragment (output_contains, output_omits).
	Text string `yaml:"text,omitempty"`

	// Stat names a rewrite statistic (stat).
	Stat string `yaml:"stat,omitempty"`

	// Count is the expected number (stat, diagnostic_count).
	Count int `yaml:"count,omitempty"`

	// AtLeast turns a stat assertion into a lower bound, for counts that
	// depend on host system headers.
	AtLeast bool `yaml:"at_least,omitempty"`

	// Kind is a diagnostic kind (diagnostic, diagnostic_count).
	Kind string `yaml:"kind,omitempty"`

	// Symbol optionally narrows a diagnostic assertion.
	Symbol string `yaml:"symbol,omitempty"`

	// Phase is the expected failure phase (module_failed).
	Phase string `yaml:"phase,omitempty"`

	// Message is expected in the failure text (module_failed).
	Message string `yaml:"message,omitempty"`
}

// Assertion type constants.
const (
	AssertOutputContains  = "output_contains"
	AssertOutputOmits     = "output_omits"
	AssertStat            = "stat"
	AssertDiagnostic      = "diagnostic"
	AssertDiagnosticCount = "diagnostic_count"
	AssertModuleFailed    = "module_failed"
)

// Statistic names accepted by stat assertions.
var statNames = []string{"functions", "overridden", "guarded", "checked", "shadowed", "aliases", "filtered"}

var diagnosticKinds = []rewrite.DiagnosticKind{
	rewrite.DiagMacroShadowed,
	rewrite.DiagAliasRemoved,
	rewrite.DiagStructSize,
	rewrite.DiagWrapperUnwrapped,
	rewrite.DiagOutOfTarget,
	rewrite.DiagOverrideApplied,
	rewrite.DiagTemplateMatched,
}

// ModuleName returns the module name of the scenario.
func (s *Scenario) ModuleName() string {
	if s.Module != "" {
		return s.Module
	}
	return s.Name
}

// configFile returns the scratch-relative name of the options file.
func (s *Scenario) configFile() string {
	if s.ConfigFormat == "yaml" {
		return s.ModuleName() + ".yaml"
	}
	return s.ModuleName() + ".toml"
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML from memory.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Headers) == 0 {
		return fmt.Errorf("headers list is required and must be non-empty")
	}
	if strings.TrimSpace(s.Config) == "" {
		return fmt.Errorf("config is required")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	switch s.ConfigFormat {
	case "", "toml", "yaml":
	default:
		return fmt.Errorf("config_format must be toml or yaml, got %q", s.ConfigFormat)
	}

	seen := map[string]bool{}
	for i, h := range s.Headers {
		if h.Path == "" {
			return fmt.Errorf("headers[%d]: path is required", i)
		}
		if filepath.IsAbs(h.Path) || strings.HasPrefix(filepath.Clean(h.Path), "..") {
			return fmt.Errorf("headers[%d]: path must be relative: %s", i, h.Path)
		}
		if seen[h.Path] {
			return fmt.Errorf("headers[%d]: duplicate path %s", i, h.Path)
		}
		seen[h.Path] = true
	}
	if seen[s.configFile()] {
		return fmt.Errorf("header path %s collides with the options file", s.configFile())
	}

	for i, d := range s.Defines {
		if name, _, _ := strings.Cut(d, "="); !rewrite.IsIdentifier(name) {
			return fmt.Errorf("defines[%d]: invalid define %q", i, d)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)

	case AssertOutputContains, AssertOutputOmits:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for %s", index, a.Type)
		}

	case AssertStat:
		if !contains(statNames, a.Stat) {
			return fmt.Errorf("assertions[%d]: stat must be one of %s, got %q", index, strings.Join(statNames, ", "), a.Stat)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}

	case AssertDiagnostic, AssertDiagnosticCount:
		if !knownKind(a.Kind) {
			return fmt.Errorf("assertions[%d]: unknown diagnostic kind %q", index, a.Kind)
		}
		if a.Type == AssertDiagnosticCount && a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}

	case AssertModuleFailed:
		if a.Phase == "" {
			return fmt.Errorf("assertions[%d]: phase is required for module_failed", index)
		}

	default:
		return fmt.Errorf("assertions[%d]: unknown type %q", index, a.Type)
	}
	return nil
}

func knownKind(kind string) bool {
	for _, k := range diagnosticKinds {
		if string(k) == kind {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
