package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/pulsenet/internal/compiler"
	"github.com/roach88/pulsenet/internal/harness"
	"github.com/roach88/pulsenet/internal/ir"
	"github.com/roach88/pulsenet/internal/registry"
)

// ValidationIssue is one problem found in a circuit.
type ValidationIssue struct {
	Code    string `json:"code"`
	Module  string `json:"module,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool              `json:"valid"`
	Modules int               `json:"modules,omitempty"`
	Sinks   []string          `json:"sinks,omitempty"`
	Loops   []registry.Loop   `json:"loops,omitempty"`
	Errors  []ValidationIssue `json:"errors,omitempty"`
}

func (r ValidationResult) String() string {
	var b strings.Builder
	if r.Valid {
		fmt.Fprintf(&b, "✓ Circuit valid: %d modules", r.Modules)
		if len(r.Sinks) > 0 {
			fmt.Fprintf(&b, " (sinks: %s)", strings.Join(r.Sinks, ", "))
		}
	} else {
		fmt.Fprintln(&b, "✗ Validation failed")
		for _, issue := range r.Errors {
			fmt.Fprintln(&b)
			switch {
			case issue.Module != "":
				fmt.Fprintf(&b, "module %s\n", issue.Module)
			case issue.Field != "":
				fmt.Fprintf(&b, "%s\n", issue.Field)
			}
			fmt.Fprintf(&b, "  %s: %s", issue.Code, issue.Message)
		}
	}
	if len(r.Loops) > 0 {
		fmt.Fprintf(&b, "\n\nFeedback loops:")
		for _, l := range r.Loops {
			fmt.Fprintf(&b, "\n  [%s] %s", l.Level, strings.Join(l.Path, " -> "))
		}
	}
	return b.String()
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <circuit>",
		Short: "Check a circuit without simulating it",
		Long: `Check a circuit file for syntax errors, bad module names, structural
errors (broadcaster count, duplicate definitions and targets) and
feedback loops that would never drain.

Every problem is reported, not just the first. Feedback loops broken by
a flip-flop are listed for information.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("circuit file not found: %s", path), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("circuit file not found: %s", path))
	}

	defs, err := compiler.LoadFile(path)
	if err != nil {
		code := harness.ErrorCode(err)
		if code == "" {
			code = ErrCodeLoadFailed
		}
		return outputValidation(formatter, ValidationResult{
			Errors: []ValidationIssue{{Code: code, Message: err.Error()}},
		})
	}
	formatter.VerboseLog("Parsed %d module definition(s) from %s", len(defs), path)

	result := ValidateDefinitions(defs)
	return outputValidation(formatter, result)
}

// ValidateDefinitions runs every check on a compiled circuit and
// collects all issues.
func ValidateDefinitions(defs []ir.Definition) ValidationResult {
	var result ValidationResult

	for _, verr := range compiler.Validate(defs) {
		result.Errors = append(result.Errors, ValidationIssue{
			Code:    verr.Code,
			Field:   verr.Field,
			Message: verr.Message,
		})
	}
	for _, rerr := range registry.Validate(defs) {
		result.Errors = append(result.Errors, ValidationIssue{
			Code:    string(rerr.Code),
			Module:  rerr.Module,
			Message: rerr.Message,
		})
	}
	result.Loops = registry.AnalyzeLoops(defs)

	if len(result.Errors) > 0 {
		return result
	}

	reg, err := registry.New(defs)
	if err != nil {
		result.Errors = append(result.Errors, ValidationIssue{
			Code:    string(registry.CodeOf(err)),
			Message: err.Error(),
		})
		return result
	}

	result.Valid = true
	result.Modules = reg.Len()
	result.Sinks = reg.NamesOfKind(ir.KindSink)
	return result
}

func outputValidation(f *OutputFormatter, result ValidationResult) error {
	if result.Valid {
		return f.Success(result)
	}

	first := result.Errors[0]
	if err := f.Failure(result, first.Code, first.Message); err != nil {
		return err
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
}
