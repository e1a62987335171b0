package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/pulsenet/internal/compiler"
	"github.com/roach88/pulsenet/internal/harness"
	"github.com/roach88/pulsenet/internal/ir"
	"github.com/roach88/pulsenet/internal/registry"
)

// LoadError represents an error that occurred while loading a circuit.
type LoadError struct {
	Code    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Circuit is a loaded and validated circuit file.
type Circuit struct {
	Path        string
	Definitions []ir.Definition
	Registry    *registry.Registry
}

// LoadCircuit reads, validates and builds the circuit at path.
// Every failure is a *LoadError whose Code is the most specific code
// known: E005 for a missing file, a parser or validation code, or a
// registry code.
func LoadCircuit(path string) (*Circuit, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("circuit file not found: %s", path), Err: err}
	}

	defs, err := compiler.LoadFile(path)
	if err != nil {
		return nil, loadError(err, ErrCodeLoadFailed)
	}

	if verrs := compiler.Validate(defs); len(verrs) > 0 {
		return nil, loadError(verrs[0], ErrCodeLoadFailed)
	}

	reg, err := registry.New(defs)
	if err != nil {
		return nil, loadError(err, ErrCodeGeneric)
	}

	return &Circuit{Path: path, Definitions: defs, Registry: reg}, nil
}

func loadError(err error, fallback string) *LoadError {
	code := harness.ErrorCode(err)
	if code == "" {
		code = fallback
	}
	return &LoadError{Code: code, Message: err.Error(), Err: err}
}

// failLoad reports a circuit load error and returns the matching ExitError.
// A missing file is a command error; a malformed circuit is a failure.
func failLoad(f *OutputFormatter, err error) error {
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		_ = f.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load circuit", err)
	}

	_ = f.Error(loadErr.Code, loadErr.Message, nil)
	if loadErr.Code == ErrCodeNotFound {
		return WrapExitError(ExitCommandError, "failed to load circuit", err)
	}
	return WrapExitError(ExitFailure, "invalid circuit", err)
}
