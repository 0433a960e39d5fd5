package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/wrapgen/internal/compiler"
	"github.com/roach88/wrapgen/internal/config"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Registry string
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool                       `json:"valid"`
	Modules int                        `json:"modules"`
	Errors  []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the registry and module options without generating",
		Long: `Validate the module registry and every module's options file.

Checks the registry schema, duplicate headers and defines, family names,
that headers and options files exist, and that every configured argument
type expression parses. Argument index bounds need the parsed headers
and are checked by generate.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Registry, "registry", "r", DefaultRegistry, "registry file or directory")

	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	registry, loadErrs := LoadRegistry(opts.Registry, LoadModeCollectAll)
	if registry == nil {
		return commandError(formatter, loadErrs[0])
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", registry.FileCount, opts.Registry)

	var errs []compiler.ValidationError
	for _, err := range loadErrs {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			errs = append(errs, compiler.ValidationError{
				Module:  loadErr.Module,
				Field:   "registry",
				Message: loadErr.Error(),
				Code:    loadErr.Code,
			})
		}
	}

	errs = append(errs, compiler.ValidateRegistry(registry.Modules)...)
	for i := range registry.Modules {
		spec := &registry.Modules[i]
		formatter.VerboseLog("Validating module: %s", spec.Name)

		errs = append(errs, compiler.ValidateModule(spec)...)
		errs = append(errs, compiler.ValidateFiles(spec)...)
		errs = append(errs, validateOptions(spec.Name, spec.ConfigPath)...)
	}

	if len(errs) > 0 {
		return outputValidationErrors(formatter, len(registry.Modules), errs)
	}
	return outputValidateSuccess(formatter, len(registry.Modules))
}

// validateOptions loads a module's options file and checks every type
// expression it configures.
func validateOptions(module, path string) []compiler.ValidationError {
	if path == "" {
		return nil
	}
	opts, err := config.Load(path, module)
	if err != nil {
		// A missing file is already reported by ValidateFiles.
		var le *config.LoadError
		if errors.As(err, &le) && le.Message == "reading options" {
			return nil
		}
		return []compiler.ValidationError{{Module: module, Field: "config", Code: ErrCodeOptions, Message: err.Error()}}
	}

	var errs []compiler.ValidationError
	for _, e := range opts.Validate() {
		errs = append(errs, compiler.ValidationError{Module: module, Field: "config", Code: ErrCodeOptions, Message: e.Error()})
	}
	return errs
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, modules int) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Modules: modules})
	}
	fmt.Fprintf(formatter.Writer, "✓ %d module(s) valid\n", modules)
	return nil
}

// outputValidationErrors outputs every validation error and maps the
// failure to exit code 1.
func outputValidationErrors(formatter *OutputFormatter, modules int, errs []compiler.ValidationError) error {
	fail := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Modules: modules, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}
		if err := formatter.Encode(response); err != nil {
			return err
		}
		return fail
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		if err.Module != "" {
			fmt.Fprintf(formatter.Writer, "module %s\n", err.Module)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}
	return fail
}
