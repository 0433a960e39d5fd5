package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/wrapgen/internal/compiler"
	"github.com/roach88/wrapgen/internal/ir"
)

// LoadMode controls how errors are handled during registry loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// SelectAll is the selection that covers every module.
const SelectAll = "all"

// RegistryResult contains the modules loaded from a registry.
type RegistryResult struct {
	Modules   []ir.ModuleSpec // declaration order
	CUEValue  cue.Value
	FileCount int
	BaseDir   string // relative paths resolve against this directory
}

// LoadError represents an error that occurred during registry loading.
type LoadError struct {
	Code    string
	Module  string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Module != "" {
		msg = fmt.Sprintf("module %s: %s", e.Module, msg)
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// LoadRegistry loads the module registry at path, either one CUE file or
// a directory holding a CUE package. Every entry under `module:` is
// compiled in declaration order.
func LoadRegistry(path string, mode LoadMode) (*RegistryResult, []error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("registry not found: %s", path)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing registry: %v", err)}}
	}

	dir, args := path, []string{"."}
	fileCount := 1
	if info.IsDir() {
		files, err := FindCUEFiles(path)
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
		}
		if len(files) == 0 {
			return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", path)}}
		}
		fileCount = len(files)
	} else {
		dir, args = filepath.Dir(path), []string{filepath.Base(path)}
	}
	baseDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: err.Error()}}
	}

	ctx := cuecontext.New()
	instances := load.Instances(args, &load.Config{Dir: baseDir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	result := &RegistryResult{
		CUEValue:  value,
		FileCount: fileCount,
		BaseDir:   baseDir,
	}

	modules := value.LookupPath(cue.ParsePath("module"))
	if !modules.Exists() {
		return result, []error{&LoadError{Code: ErrCodeNoModules, Message: "registry declares no module"}}
	}
	iter, err := modules.Fields()
	if err != nil {
		return result, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating modules: %v", err)}}
	}

	var errs []error
	for iter.Next() {
		name := iter.Label()
		spec, compileErr := compiler.CompileModule(iter.Value(), baseDir)
		if compileErr != nil {
			errs = append(errs, convertCompileError(compileErr, name))
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		result.Modules = append(result.Modules, *spec)
	}

	if len(result.Modules) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeNoModules, Message: "registry declares no module"})
	}
	return result, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, module string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    ErrCodeInvalidModule,
			Module:  module,
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeInvalidModule,
		Module:  module,
		Message: err.Error(),
	}
}

// UnknownModuleError reports a selection that names neither a module nor
// a family.
type UnknownModuleError struct {
	Name     string
	Known    []string // module names, sorted
	Families []string // distinct family names, sorted
}

func (e *UnknownModuleError) Error() string {
	msg := fmt.Sprintf("unknown module %q (known modules: %s", e.Name, strings.Join(e.Known, ", "))
	if len(e.Families) > 0 {
		msg += "; families: " + strings.Join(e.Families, ", ")
	}
	return msg + ")"
}

// Select returns the modules named by selection: every module for "all"
// or an empty selection, the module of that name, or every module of
// that family. Module names win over family names.
func Select(specs []ir.ModuleSpec, selection string) ([]ir.ModuleSpec, error) {
	if selection == "" || selection == SelectAll {
		return specs, nil
	}
	for _, s := range specs {
		if s.Name == selection {
			return []ir.ModuleSpec{s}, nil
		}
	}
	var family []ir.ModuleSpec
	for _, s := range specs {
		if s.Family == selection {
			family = append(family, s)
		}
	}
	if len(family) > 0 {
		return family, nil
	}

	known := make([]string, 0, len(specs))
	var families []string
	seen := map[string]bool{}
	for _, s := range specs {
		known = append(known, s.Name)
		if s.Family != "" && !seen[s.Family] {
			seen[s.Family] = true
			families = append(families, s.Family)
		}
	}
	sort.Strings(known)
	sort.Strings(families)
	return nil, &UnknownModuleError{Name: selection, Known: known, Families: families}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeScanError     = "E002" // Directory scan error
	ErrCodeNoFiles       = "E003" // No CUE files found
	ErrCodeLoadFailed    = "E004" // CUE load failed
	ErrCodeNotFound      = "E005" // Path not found
	ErrCodeBuildFailed   = "E006" // CUE build failed
	ErrCodeNoModules     = "E007" // Registry declares no module
	ErrCodeInvalidModule = "E008" // Registry entry does not match the schema
	ErrCodeUnknownModule = "E009" // Selection names no module or family
	ErrCodeStore         = "E010" // Generation log error
	ErrCodeOptions       = "E011" // Module options file error
	ErrCodeTestFailed    = "E012" // One or more scenarios failed
)
