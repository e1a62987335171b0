package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents an error detected while solving a circuit.
//
// Runtime errors include:
//   - Missing watched module: the module to watch is unknown or has no
//     predecessors
//   - Trigger limit exceeded: the search pressed the button more times
//     than allowed without finding an answer
//
// Invariant violations inside the simulator (an unknown target, a sender
// that is not a conjunction input) are not RuntimeErrors; they panic.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Module names the watched module.
	Module string

	// Details contains additional context.
	Details map[string]string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeMissingWatchedModule indicates the watched module does not
	// exist or has no predecessors to watch.
	ErrCodeMissingWatchedModule RuntimeErrorCode = "MISSING_WATCHED_MODULE"

	// ErrCodeTriggerLimitExceeded indicates the search ran out of triggers.
	ErrCodeTriggerLimitExceeded RuntimeErrorCode = "TRIGGER_LIMIT_EXCEEDED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Module != "" {
		return fmt.Sprintf("%s: %s (module=%s)", e.Code, e.Message, e.Module)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsMissingWatchedModule returns true if err is a missing watched module error.
// Uses errors.As to handle wrapped errors.
func IsMissingWatchedModule(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeMissingWatchedModule
	}
	return false
}

// IsTriggerLimitError returns true if err is a trigger limit error.
// Uses errors.As to handle wrapped errors.
func IsTriggerLimitError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeTriggerLimitExceeded
	}
	return false
}

// NewMissingWatchedModuleError creates a RuntimeError for an unusable
// watched module.
func NewMissingWatchedModuleError(module, reason string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeMissingWatchedModule,
		Message: reason,
		Module:  module,
	}
}

// NewTriggerLimitError creates a RuntimeError for an exhausted search.
func NewTriggerLimitError(module string, triggers, limit int64) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeTriggerLimitExceeded,
		Message: fmt.Sprintf("no answer after %d triggers (limit %d)", triggers, limit),
		Module:  module,
		Details: map[string]string{
			"triggers":     fmt.Sprintf("%d", triggers),
			"max_triggers": fmt.Sprintf("%d", limit),
		},
	}
}
