package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/pulsenet/internal/ir"
)

// LoadFile reads a circuit file, choosing the format by extension:
// ".cue" files are compiled as CUE, everything else is puzzle text.
func LoadFile(path string) ([]ir.Definition, error) {
	if strings.EqualFold(filepath.Ext(path), ".cue") {
		return LoadCUEFile(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open circuit: %w", err)
	}
	defer f.Close()

	return ParseText(f)
}
