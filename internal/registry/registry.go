package registry

import (
	"fmt"
	"slices"

	"github.com/roach88/pulsenet/internal/ir"
)

// Module is an immutable node of the circuit graph.
type Module struct {
	Name    string
	Kind    ir.Kind
	Targets []string // emission order; shared, must not be modified

	// Defined is false for sinks synthesized from dangling targets.
	Defined bool
}

// Registry is the read-only module graph.
type Registry struct {
	modules     map[string]*Module
	order       []string            // defined modules, then synthesized sinks
	preds       map[string][]string // module -> senders, in definition order
	broadcaster string
	defs        []ir.Definition
	hash        string
}

// New validates defs and builds a Registry.
// The first violation found by Validate is returned as a *Error.
func New(defs []ir.Definition) (*Registry, error) {
	if errs := Validate(defs); len(errs) > 0 {
		return nil, errs[0]
	}

	hash, err := ir.CircuitHash(defs)
	if err != nil {
		return nil, fmt.Errorf("fingerprint circuit: %w", err)
	}

	r := &Registry{
		modules: make(map[string]*Module, len(defs)),
		preds:   make(map[string][]string, len(defs)),
		defs:    cloneDefinitions(defs),
		hash:    hash,
	}

	for _, d := range r.defs {
		r.modules[d.Name] = &Module{
			Name:    d.Name,
			Kind:    d.Kind,
			Targets: d.Targets,
			Defined: true,
		}
		r.order = append(r.order, d.Name)
		if d.Kind == ir.KindBroadcaster {
			r.broadcaster = d.Name
		}
	}

	for _, d := range r.defs {
		for _, t := range d.Targets {
			if _, ok := r.modules[t]; !ok {
				r.modules[t] = &Module{Name: t, Kind: ir.KindSink, Targets: []string{}}
				r.order = append(r.order, t)
			}
			r.preds[t] = append(r.preds[t], d.Name)
		}
	}

	return r, nil
}

// MustNew is like New but panics on error.
// Use only in tests or with circuits known to be valid.
func MustNew(defs []ir.Definition) *Registry {
	r, err := New(defs)
	if err != nil {
		panic(err)
	}
	return r
}

func cloneDefinitions(defs []ir.Definition) []ir.Definition {
	out := make([]ir.Definition, len(defs))
	for i, d := range defs {
		targets := slices.Clone(d.Targets)
		if targets == nil {
			targets = []string{}
		}
		out[i] = ir.Definition{Name: d.Name, Kind: d.Kind, Targets: targets}
	}
	return out
}

// Module returns the module with the given name.
// Panics if the name is unknown: every pulse target is either defined or
// a synthesized sink, so a miss is an invariant violation.
func (r *Registry) Module(name string) Module {
	m, ok := r.modules[name]
	if !ok {
		panic(fmt.Sprintf("registry: unknown module %q", name))
	}
	return *m
}

// Lookup returns the module with the given name, if present.
func (r *Registry) Lookup(name string) (Module, bool) {
	m, ok := r.modules[name]
	if !ok {
		return Module{}, false
	}
	return *m, true
}

// PredecessorsOf returns the modules that list name as a target, in
// definition order. For a conjunction this is exactly its input set.
func (r *Registry) PredecessorsOf(name string) []string {
	return slices.Clone(r.preds[name])
}

// Broadcaster returns the name of the single broadcaster.
func (r *Registry) Broadcaster() string {
	return r.broadcaster
}

// Names returns every module name: defined modules in definition order,
// then synthesized sinks in first-reference order.
func (r *Registry) Names() []string {
	return slices.Clone(r.order)
}

// NamesOfKind returns the names of all modules of kind k, in Names order.
func (r *Registry) NamesOfKind(k ir.Kind) []string {
	var out []string
	for _, name := range r.order {
		if r.modules[name].Kind == k {
			out = append(out, name)
		}
	}
	return out
}

// Len returns the number of modules, synthesized sinks included.
func (r *Registry) Len() int {
	return len(r.order)
}

// Definitions returns a copy of the definitions the registry was built from.
func (r *Registry) Definitions() []ir.Definition {
	return cloneDefinitions(r.defs)
}

// Hash returns the circuit fingerprint (see ir.CircuitHash).
func (r *Registry) Hash() string {
	return r.hash
}

// Loops returns the feedback loops of the circuit. Unbounded loops are
// rejected by New, so every returned loop contains a flip-flop.
func (r *Registry) Loops() []Loop {
	return AnalyzeLoops(r.defs)
}
