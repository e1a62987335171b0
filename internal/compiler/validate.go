package compiler

import (
	"fmt"
	"regexp"

	"github.com/roach88/pulsenet/internal/ir"
)

// Validation error codes (E100-E199)
const (
	ErrInvalidModuleName = "E101" // module name is not an identifier
	ErrInvalidTargetName = "E102" // target name is not an identifier
	ErrReservedName      = "E103" // name collides with the button
	ErrSinkDeclared      = "E104" // sinks are implied, never declared
)

// ValidationError represents a naming or declaration error in a compiled
// circuit. Structural errors are reported by the registry instead.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

var identPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Validate checks module and target names of compiled definitions.
// Returns all errors found (does not fail-fast).
func Validate(defs []ir.Definition) []ValidationError {
	var errs []ValidationError

	for i, d := range defs {
		field := fmt.Sprintf("module[%d]", i)

		switch {
		case d.Name == ir.ButtonName:
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("%q is reserved for the button", d.Name),
				Code:    ErrReservedName,
			})
		case !identPattern.MatchString(d.Name):
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("invalid module name %q", d.Name),
				Code:    ErrInvalidModuleName,
			})
		}

		if d.Kind == ir.KindSink {
			errs = append(errs, ValidationError{
				Field:   field + ".kind",
				Message: fmt.Sprintf("module %q declares kind sink; sinks are implied by undefined targets", d.Name),
				Code:    ErrSinkDeclared,
			})
		}

		for j, t := range d.Targets {
			tf := fmt.Sprintf("%s.targets[%d]", field, j)
			switch {
			case t == ir.ButtonName:
				errs = append(errs, ValidationError{
					Field:   tf,
					Message: fmt.Sprintf("%q is reserved for the button", t),
					Code:    ErrReservedName,
				})
			case !identPattern.MatchString(t):
				errs = append(errs, ValidationError{
					Field:   tf,
					Message: fmt.Sprintf("invalid target name %q", t),
					Code:    ErrInvalidTargetName,
				})
			}
		}
	}

	return errs
}
