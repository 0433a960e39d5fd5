package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/roach88/wrapgen/internal/ir"
)

// Format identifies the encoding of an options file.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatForPath picks the encoding from the file extension.
// Anything that is not .yaml or .yml is read as TOML.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

// LoadError reports an unreadable or malformed options file.
type LoadError struct {
	Path    string
	Key     string // dotted key path, if known
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	if e.Key != "" {
		b.WriteString(e.Key)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load reads the options file at path for the given module.
// A relative general.output_file_path is resolved against the directory
// of the options file.
func Load(path, module string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: "reading options", Err: err}
	}

	opts, err := Parse(data, FormatForPath(path), module)
	if err != nil {
		if le, ok := err.(*LoadError); ok {
			le.Path = path
			return nil, le
		}
		return nil, &LoadError{Path: path, Message: "parsing options", Err: err}
	}

	opts.Path = path
	if !filepath.IsAbs(opts.OutputFilePath) {
		opts.OutputFilePath = filepath.Join(filepath.Dir(path), opts.OutputFilePath)
	}
	return opts, nil
}

// Parse decodes options from memory.
func Parse(data []byte, format Format, module string) (*Options, error) {
	var raw map[string]any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, &LoadError{Message: "decoding YAML", Err: err}
		}
	default:
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, &LoadError{Message: "decoding TOML", Err: err}
		}
	}

	opts := NewOptions(module)
	if err := decodeGeneral(raw["general"], opts); err != nil {
		return nil, err
	}
	if err := decodeAPI(raw["api"], opts); err != nil {
		return nil, err
	}

	digest, err := ir.OptionsDigest(opts.canonical())
	if err != nil {
		return nil, &LoadError{Message: "digesting options", Err: err}
	}
	opts.Digest = digest
	return opts, nil
}

func decodeGeneral(v any, opts *Options) error {
	if v == nil {
		return &LoadError{Key: "general.output_file_path", Message: "is required"}
	}
	general, ok := asMap(v)
	if !ok {
		return &LoadError{Key: "general", Message: "must be a table"}
	}

	var err error
	if opts.OutputFilePath, err = stringField(general, "general", "output_file_path"); err != nil {
		return err
	}
	if opts.OutputFilePath == "" {
		return &LoadError{Key: "general.output_file_path", Message: "is required"}
	}

	if name, err := stringField(general, "general", "library_name"); err != nil {
		return err
	} else if name != "" {
		opts.LibraryName = name
	}
	if hook, err := stringField(general, "general", "context_hook"); err != nil {
		return err
	} else if hook != "" {
		opts.ContextHook = hook
	}

	if _, ok := general["transparent_wrappers"]; ok {
		wrappers, err := stringList(general["transparent_wrappers"], "general.transparent_wrappers")
		if err != nil {
			return err
		}
		opts.TransparentWrappers = wrappers
	}
	if _, ok := general["format_command"]; ok {
		cmd, err := stringList(general["format_command"], "general.format_command")
		if err != nil {
			return err
		}
		opts.FormatCommand = cmd
	}
	return nil
}

func decodeAPI(v any, opts *Options) error {
	if v == nil {
		return nil
	}
	api, ok := asMap(v)
	if !ok {
		return &LoadError{Key: "api", Message: "must be a table"}
	}

	// Sorted for deterministic error reporting
	keys := make([]string, 0, len(api))
	for k := range api {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if key == "checked_rettypes" {
			types, err := stringList(api[key], "api.checked_rettypes")
			if err != nil {
				return err
			}
			for _, t := range types {
				opts.CheckedReturnTypes[t] = true
			}
			continue
		}

		name := norm.NFC.String(key)
		fn, err := decodeFunction(api[key], "api."+name)
		if err != nil {
			return err
		}
		if IsTemplateKey(name) {
			if n := strings.Count(name, TemplatePlaceholder); n != 1 {
				return &LoadError{Key: "api." + name, Message: fmt.Sprintf("template key must contain exactly one %s, found %d", TemplatePlaceholder, n)}
			}
			opts.Templates[name] = fn
			continue
		}
		opts.Functions[name] = fn
	}
	return nil
}

func decodeFunction(v any, key string) (FunctionOptions, error) {
	fn := DefaultFunctionOptions()
	entry, ok := asMap(v)
	if !ok {
		return fn, &LoadError{Key: key, Message: "must be a table"}
	}

	for field, value := range entry {
		switch field {
		case "needs_context":
			b, ok := value.(bool)
			if !ok {
				return fn, &LoadError{Key: key + ".needs_context", Message: fmt.Sprintf("must be a boolean, got %T", value)}
			}
			fn.NeedsContext = b
		case "argtypes":
			args, ok := asMap(value)
			if !ok {
				return fn, &LoadError{Key: key + ".argtypes", Message: "must be a table"}
			}
			fn.ArgTypes = make(map[int]string, len(args))
			for idxStr, typ := range args {
				idx, err := strconv.Atoi(strings.TrimSpace(idxStr))
				if err != nil || idx < 0 {
					return fn, &LoadError{Key: key + ".argtypes." + idxStr, Message: "argument index must be a non-negative integer"}
				}
				s, ok := typ.(string)
				if !ok {
					return fn, &LoadError{Key: key + ".argtypes." + idxStr, Message: fmt.Sprintf("type expression must be a string, got %T", typ)}
				}
				fn.ArgTypes[idx] = s
			}
		default:
			return fn, &LoadError{Key: key + "." + field, Message: "unknown option"}
		}
	}
	return fn, nil
}

// asMap accepts both decoder map shapes: TOML and string-keyed YAML give
// map[string]any, YAML with integer keys gives map[any]any.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}

func stringField(m map[string]any, section, key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", &LoadError{Key: section + "." + key, Message: fmt.Sprintf("must be a string, got %T", v)}
	}
	return s, nil
}

func stringList(v any, key string) ([]string, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, &LoadError{Key: key, Message: fmt.Sprintf("must be a list of strings, got %T", v)}
	}
	out := make([]string, 0, len(list))
	for i, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, &LoadError{Key: fmt.Sprintf("%s[%d]", key, i), Message: fmt.Sprintf("must be a string, got %T", item)}
		}
		out = append(out, s)
	}
	return out, nil
}
