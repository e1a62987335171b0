package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/pulsenet/internal/ir"
)

// CompileError represents a CUE compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadCUEFile reads and compiles a CUE circuit file.
func LoadCUEFile(path string) ([]ir.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read circuit: %w", err)
	}
	return CompileCUESource(path, data)
}

// CompileCUESource compiles CUE source held in memory. filename is used
// only for error positions.
func CompileCUESource(filename string, src []byte) ([]ir.Definition, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	return CompileCUE(v)
}

// CompileCUE extracts module definitions from the "module" struct of a CUE
// value. Fields are read in declaration order, which becomes the
// definition order.
func CompileCUE(v cue.Value) ([]ir.Definition, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	modules := v.LookupPath(cue.ParsePath("module"))
	if !modules.Exists() {
		return nil, &CompileError{
			Field:   "module",
			Message: "module struct is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := modules.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var defs []ir.Definition
	for iter.Next() {
		def, err := compileModule(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}

	return defs, nil
}

func compileModule(name string, v cue.Value) (ir.Definition, error) {
	field := "module." + name

	kindVal := v.LookupPath(cue.ParsePath("kind"))
	if !kindVal.Exists() {
		return ir.Definition{}, &CompileError{
			Field:   field + ".kind",
			Message: "kind is required",
			Pos:     v.Pos(),
		}
	}
	kindName, err := kindVal.String()
	if err != nil {
		return ir.Definition{}, formatCUEError(err)
	}
	kind, err := ir.ParseKindName(kindName)
	if err != nil {
		return ir.Definition{}, &CompileError{
			Field:   field + ".kind",
			Message: err.Error(),
			Pos:     kindVal.Pos(),
		}
	}

	targets := []string{}
	targetsVal := v.LookupPath(cue.ParsePath("targets"))
	if targetsVal.Exists() {
		list, err := targetsVal.List()
		if err != nil {
			return ir.Definition{}, formatCUEError(err)
		}
		for list.Next() {
			t, err := list.Value().String()
			if err != nil {
				return ir.Definition{}, formatCUEError(err)
			}
			targets = append(targets, t)
		}
	}

	return ir.Definition{Name: name, Kind: kind, Targets: targets}, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
