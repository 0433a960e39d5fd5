package config

import (
	"sort"
	"strconv"
	"strings"
)

// TemplatePlaceholder stands in for a single type-suffix letter in a
// template key, e.g. cublas𝕏gemm.
const TemplatePlaceholder = "𝕏"

// DefaultContextHook is the runtime-initialization hook inserted before
// native calls unless a function opts out.
const DefaultContextHook = "initialize_context"

// DefaultTransparentWrappers are the calling-convention markers the alias
// pruner looks through (per-thread default stream variants).
var DefaultTransparentWrappers = []string{"__CUDA_API_PTDS", "__CUDA_API_PTSZ"}

// FunctionOptions are the per-function rewriting options.
type FunctionOptions struct {
	// ArgTypes maps a 0-based argument index to a type expression.
	ArgTypes map[int]string `json:"argtypes,omitempty"`
	// NeedsContext controls insertion of the context hook. Defaults to true.
	NeedsContext bool `json:"needs_context"`
}

// DefaultFunctionOptions returns the options applied when no entry matches.
func DefaultFunctionOptions() FunctionOptions {
	return FunctionOptions{NeedsContext: true}
}

// Indices returns the configured argument indices in ascending order.
func (f FunctionOptions) Indices() []int {
	idx := make([]int, 0, len(f.ArgTypes))
	for i := range f.ArgTypes {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}

// Options are the loaded options of one module. Read-only during a run.
type Options struct {
	// Path is the file the options were loaded from (empty when parsed from memory).
	Path string `json:"path,omitempty"`

	OutputFilePath      string   `json:"output_file_path"`
	LibraryName         string   `json:"library_name"`
	ContextHook         string   `json:"context_hook"`
	TransparentWrappers []string `json:"transparent_wrappers"`
	FormatCommand       []string `json:"format_command,omitempty"`

	Functions          map[string]FunctionOptions `json:"functions"`
	Templates          map[string]FunctionOptions `json:"templates"`
	CheckedReturnTypes map[string]bool            `json:"checked_rettypes"`

	// Digest identifies the decoded options independent of file format.
	Digest string `json:"digest,omitempty"`
}

// NewOptions returns options with defaults and empty tables.
func NewOptions(module string) *Options {
	return &Options{
		LibraryName:         module,
		ContextHook:         DefaultContextHook,
		TransparentWrappers: append([]string(nil), DefaultTransparentWrappers...),
		Functions:           map[string]FunctionOptions{},
		Templates:           map[string]FunctionOptions{},
		CheckedReturnTypes:  map[string]bool{},
	}
}

// IsChecked reports whether calls returning typ must be error-checked.
func (o *Options) IsChecked(typ string) bool {
	return o.CheckedReturnTypes[typ]
}

// IsTransparentWrapper reports whether name is a calling-convention marker.
func (o *Options) IsTransparentWrapper(name string) bool {
	for _, w := range o.TransparentWrappers {
		if w == name {
			return true
		}
	}
	return false
}

// IsTemplateKey reports whether key contains the template placeholder.
func IsTemplateKey(key string) bool {
	return strings.Contains(key, TemplatePlaceholder)
}

// canonical returns the decoded options as plain values for hashing.
// Path is excluded and OutputFilePath is taken as written, so moving the
// options file does not change its identity.
func (o *Options) canonical() map[string]any {
	checked := make([]string, 0, len(o.CheckedReturnTypes))
	for typ, on := range o.CheckedReturnTypes {
		if on {
			checked = append(checked, typ)
		}
	}
	sort.Strings(checked)

	general := map[string]any{
		"output_file_path":     o.OutputFilePath,
		"library_name":         o.LibraryName,
		"context_hook":         o.ContextHook,
		"transparent_wrappers": append([]string{}, o.TransparentWrappers...),
	}
	if len(o.FormatCommand) > 0 {
		general["format_command"] = append([]string{}, o.FormatCommand...)
	}

	return map[string]any{
		"general":          general,
		"functions":        canonicalFunctions(o.Functions),
		"templates":        canonicalFunctions(o.Templates),
		"checked_rettypes": checked,
	}
}

func canonicalFunctions(table map[string]FunctionOptions) map[string]any {
	out := make(map[string]any, len(table))
	for name, f := range table {
		args := make(map[string]any, len(f.ArgTypes))
		for idx, typ := range f.ArgTypes {
			args[strconv.Itoa(idx)] = typ
		}
		out[name] = map[string]any{
			"argtypes":      args,
			"needs_context": f.NeedsContext,
		}
	}
	return out
}
