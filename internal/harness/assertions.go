package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/wrapgen/internal/rewrite"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("Assertion failed: %s\n  Expected: %s\n  Actual: %s", e.Type, e.Expected, e.Actual)
}

// EvaluateAssertions checks every assertion against r and records each
// failure in r.Errors. A failed module fails every assertion except
// module_failed, with a single error naming the failure.
func EvaluateAssertions(r *Result, assertions []Assertion) {
	expectsFailure := false
	for _, a := range assertions {
		if a.Type == AssertModuleFailed {
			expectsFailure = true
		}
	}
	if r.Failed() && !expectsFailure {
		r.AddError(fmt.Sprintf("module %s failed in %s: %s", r.Module, r.Phase, r.Error))
		return
	}

	for i, a := range assertions {
		if err := evaluate(r, a); err != nil {
			r.AddError(fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
}

func evaluate(r *Result, a Assertion) error {
	switch a.Type {
	case AssertOutputContains:
		return assertOutputContains(r, a)
	case AssertOutputOmits:
		return assertOutputOmits(r, a)
	case AssertStat:
		return assertStat(r, a)
	case AssertDiagnostic:
		return assertDiagnostic(r, a)
	case AssertDiagnosticCount:
		return assertDiagnosticCount(r, a)
	case AssertModuleFailed:
		return assertModuleFailed(r, a)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

func assertOutputContains(r *Result, a Assertion) error {
	if strings.Contains(r.Output, a.Text) {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("output containing %q", a.Text),
		Actual:   summarize(r.Output),
	}
}

func assertOutputOmits(r *Result, a Assertion) error {
	if !strings.Contains(r.Output, a.Text) {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("output without %q", a.Text),
		Actual:   fmt.Sprintf("found at offset %d", strings.Index(r.Output, a.Text)),
	}
}

func assertStat(r *Result, a Assertion) error {
	got, ok := statValue(r.Stats, a.Stat)
	if !ok {
		return fmt.Errorf("unknown stat: %s", a.Stat)
	}
	if got == a.Count || (a.AtLeast && got > a.Count) {
		return nil
	}
	op := "="
	if a.AtLeast {
		op = ">="
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%s %s %d", a.Stat, op, a.Count),
		Actual:   fmt.Sprintf("%s = %d", a.Stat, got),
	}
}

func assertDiagnostic(r *Result, a Assertion) error {
	for _, d := range r.Diagnostics {
		if d.Kind == a.Kind && (a.Symbol == "" || d.Symbol == a.Symbol) {
			return nil
		}
	}
	want := a.Kind
	if a.Symbol != "" {
		want += " " + a.Symbol
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("diagnostic %s", want),
		Actual:   listDiagnostics(r),
	}
}

func assertDiagnosticCount(r *Result, a Assertion) error {
	got := 0
	for _, d := range r.Diagnostics {
		if d.Kind == a.Kind && (a.Symbol == "" || d.Symbol == a.Symbol) {
			got++
		}
	}
	if got == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%d diagnostic(s) of kind %s", a.Count, a.Kind),
		Actual:   fmt.Sprintf("%d: %s", got, listDiagnostics(r)),
	}
}

func assertModuleFailed(r *Result, a Assertion) error {
	if !r.Failed() {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("module failure in phase %s", a.Phase),
			Actual:   "module generated",
		}
	}
	if r.Phase != a.Phase {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("failure in phase %s", a.Phase),
			Actual:   fmt.Sprintf("failure in phase %s: %s", r.Phase, r.Error),
		}
	}
	if a.Message != "" && !strings.Contains(r.Error, a.Message) {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("error containing %q", a.Message),
			Actual:   r.Error,
		}
	}
	return nil
}

func statValue(s rewrite.Stats, name string) (int, bool) {
	switch name {
	case "functions":
		return s.Functions, true
	case "overridden":
		return s.Overridden, true
	case "guarded":
		return s.Guarded, true
	case "checked":
		return s.Checked, true
	case "shadowed":
		return s.Shadowed, true
	case "aliases":
		return s.Aliases, true
	case "filtered":
		return s.Filtered, true
	}
	return 0, false
}

func listDiagnostics(r *Result) string {
	if len(r.Diagnostics) == 0 {
		return "no diagnostics"
	}
	parts := make([]string, len(r.Diagnostics))
	for i, d := range r.Diagnostics {
		parts[i] = d.Kind + " " + d.Symbol
	}
	return strings.Join(parts, ", ")
}

// summarize shortens output for error messages.
func summarize(out string) string {
	if out == "" {
		return "empty output"
	}
	const max = 200
	if len(out) > max {
		return fmt.Sprintf("%q... (%d bytes)", out[:max], len(out))
	}
	return fmt.Sprintf("%q", out)
}
