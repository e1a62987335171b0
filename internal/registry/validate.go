package registry

import (
	"fmt"

	"github.com/roach88/pulsenet/internal/ir"
)

// Validate checks a definition list against every structural rule and
// returns all violations found (it does not stop at the first).
//
// Rules:
//   - names are non-empty and unique
//   - kinds are one of the four defined kinds
//   - exactly one broadcaster is defined
//   - no module lists the same target twice
//   - no feedback loop consists solely of always-emitting modules
//
// Targets naming undefined modules are not errors; they become sinks.
func Validate(defs []ir.Definition) []*Error {
	var errs []*Error

	seen := make(map[string]bool, len(defs))
	var broadcasters []string
	for _, d := range defs {
		if d.Name == "" {
			errs = append(errs, &Error{Code: ErrCodeEmptyName, Message: "module name is empty"})
			continue
		}
		if seen[d.Name] {
			errs = append(errs, &Error{
				Code:    ErrCodeDuplicateModule,
				Module:  d.Name,
				Message: "module defined more than once",
			})
			continue
		}
		seen[d.Name] = true

		if !d.Kind.Valid() {
			errs = append(errs, &Error{
				Code:    ErrCodeUnknownKind,
				Module:  d.Name,
				Message: fmt.Sprintf("unknown module kind %s", d.Kind),
			})
		}
		if d.Kind == ir.KindBroadcaster {
			broadcasters = append(broadcasters, d.Name)
		}

		targets := make(map[string]bool, len(d.Targets))
		for _, t := range d.Targets {
			if t == "" {
				errs = append(errs, &Error{Code: ErrCodeEmptyName, Module: d.Name, Message: "target name is empty"})
				continue
			}
			if targets[t] {
				errs = append(errs, &Error{
					Code:    ErrCodeDuplicateTarget,
					Module:  d.Name,
					Message: fmt.Sprintf("target %q listed more than once", t),
				})
			}
			targets[t] = true
		}
	}

	switch len(broadcasters) {
	case 0:
		errs = append(errs, &Error{Code: ErrCodeMissingBroadcaster, Message: "circuit has no broadcaster"})
	case 1:
	default:
		errs = append(errs, &Error{
			Code:    ErrCodeMultipleBroadcasters,
			Module:  broadcasters[1],
			Message: fmt.Sprintf("circuit has %d broadcasters", len(broadcasters)),
		})
	}

	if len(errs) > 0 {
		return errs
	}

	for _, loop := range AnalyzeLoops(defs) {
		if loop.Unbounded {
			errs = append(errs, newUnboundedLoopError(loop.Path))
		}
	}

	return errs
}
