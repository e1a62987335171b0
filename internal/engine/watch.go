package engine

import (
	"github.com/roach88/pulsenet/internal/ir"
	"github.com/roach88/pulsenet/internal/registry"
)

// ResolveWatch picks the module to watch when the question is asked about
// target.
//
// A target fed by exactly one conjunction (the usual "rx" shape) receives
// Low exactly when that conjunction has heard High from all of its own
// inputs, so the conjunction is watched instead. Any other target is
// watched directly.
func ResolveWatch(reg *registry.Registry, target string) (string, error) {
	if _, ok := reg.Lookup(target); !ok {
		return "", NewMissingWatchedModuleError(target, "module is not in the circuit")
	}

	preds := reg.PredecessorsOf(target)
	if len(preds) == 1 && reg.Module(preds[0]).Kind == ir.KindConjunction {
		return preds[0], nil
	}
	return target, nil
}
