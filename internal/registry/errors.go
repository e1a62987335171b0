package registry

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes circuit construction errors.
type ErrorCode string

const (
	// ErrCodeUnknownKind indicates a module kind outside the closed enumeration.
	ErrCodeUnknownKind ErrorCode = "UNKNOWN_MODULE_KIND"

	// ErrCodeDuplicateModule indicates the same name is defined twice.
	ErrCodeDuplicateModule ErrorCode = "DUPLICATE_MODULE_DEFINITION"

	// ErrCodeMissingBroadcaster indicates no broadcaster is defined.
	ErrCodeMissingBroadcaster ErrorCode = "MISSING_BROADCASTER"

	// ErrCodeMultipleBroadcasters indicates more than one broadcaster is defined.
	ErrCodeMultipleBroadcasters ErrorCode = "MULTIPLE_BROADCASTERS"

	// ErrCodeDuplicateTarget indicates a module lists the same target twice.
	ErrCodeDuplicateTarget ErrorCode = "DUPLICATE_TARGET"

	// ErrCodeEmptyName indicates a module or target with an empty name.
	ErrCodeEmptyName ErrorCode = "EMPTY_MODULE_NAME"

	// ErrCodeUnboundedLoop indicates a feedback loop that can never drain.
	ErrCodeUnboundedLoop ErrorCode = "UNBOUNDED_LOOP"
)

// Error is a malformed-circuit error detected while building a Registry.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Module names the offending module, if any.
	Module string

	// Message is a human-readable description.
	Message string

	// Path holds the members of an unbounded loop.
	Path []string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Module != "" {
		return fmt.Sprintf("%s: %s (module=%s)", e.Code, e.Message, e.Module)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf returns the code of a registry Error anywhere in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsUnknownKind returns true if err is an unknown module kind error.
func IsUnknownKind(err error) bool {
	return CodeOf(err) == ErrCodeUnknownKind
}

// IsDuplicateModule returns true if err is a duplicate definition error.
func IsDuplicateModule(err error) bool {
	return CodeOf(err) == ErrCodeDuplicateModule
}

// IsUnboundedLoop returns true if err is an unbounded loop error.
func IsUnboundedLoop(err error) bool {
	return CodeOf(err) == ErrCodeUnboundedLoop
}

func newUnboundedLoopError(path []string) *Error {
	return &Error{
		Code:    ErrCodeUnboundedLoop,
		Module:  path[0],
		Message: "loop of always-emitting modules never drains: " + strings.Join(path, " -> "),
		Path:    path,
	}
}
