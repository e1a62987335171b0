package registry

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/pulsenet/internal/ir"
)

// Loop is a feedback loop (strongly connected component) in a circuit.
//
// Loops are normal: every counter built from flip-flops feeds a
// conjunction back into its own bits. A loop is only fatal when every
// member emits on every delivered pulse (broadcasters and conjunctions);
// once a pulse enters such a loop the queue never drains.
type Loop struct {
	Members   []string `json:"members"`   // definition order
	Path      []string `json:"path"`      // e.g. ["a", "b", "a"]
	Unbounded bool     `json:"unbounded"` // no flip-flop breaks the loop
	Message   string   `json:"message"`
	Level     string   `json:"level"` // "error" or "info"
}

// AnalyzeLoops finds every feedback loop in a definition list.
//
// The algorithm:
//  1. Build the module -> targets graph (undefined targets are sinks and
//     cannot be part of a loop)
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1, or a self-loop, as a Loop
//
// Results are ordered by the first member's position in defs, so the
// report is deterministic.
func AnalyzeLoops(defs []ir.Definition) []Loop {
	g := newLoopGraph(defs)

	loops := []Loop{}
	for _, scc := range g.tarjanSCC() {
		if len(scc) > 1 || g.hasSelfLoop(scc[0]) {
			loops = append(loops, g.toLoop(scc))
		}
	}
	return loops
}

type loopGraph struct {
	order []string       // definition order
	index map[string]int // name -> position in order
	edges map[string][]string
	kinds map[string]ir.Kind
}

func newLoopGraph(defs []ir.Definition) *loopGraph {
	g := &loopGraph{
		index: make(map[string]int, len(defs)),
		edges: make(map[string][]string, len(defs)),
		kinds: make(map[string]ir.Kind, len(defs)),
	}
	for _, d := range defs {
		if _, dup := g.index[d.Name]; dup {
			continue
		}
		g.index[d.Name] = len(g.order)
		g.order = append(g.order, d.Name)
		g.kinds[d.Name] = d.Kind
	}
	for _, d := range defs {
		for _, t := range d.Targets {
			if _, defined := g.index[t]; defined {
				g.edges[d.Name] = append(g.edges[d.Name], t)
			}
		}
	}
	return g
}

func (g *loopGraph) hasSelfLoop(node string) bool {
	for _, n := range g.edges[node] {
		if n == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Single-node SCCs without self-loops are not loops; callers filter them.
func (g *loopGraph) tarjanSCC() [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.edges[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, g.sortByDefinition(scc))
		}
	}

	for _, node := range g.order {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	// Tarjan emits SCCs in reverse topological order; report them by
	// first appearance in the definitions instead.
	sortSCCs(sccs, g.index)
	return sccs
}

func (g *loopGraph) sortByDefinition(names []string) []string {
	out := slices.Clone(names)
	slices.SortFunc(out, func(a, b string) int {
		return cmp.Compare(g.index[a], g.index[b])
	})
	return out
}

func sortSCCs(sccs [][]string, index map[string]int) {
	slices.SortFunc(sccs, func(a, b []string) int {
		return cmp.Compare(index[a[0]], index[b[0]])
	})
}

func (g *loopGraph) toLoop(scc []string) Loop {
	unbounded := true
	for _, name := range scc {
		if !g.kinds[name].Emits() {
			unbounded = false
			break
		}
	}

	path := g.reconstructPath(scc)
	loop := Loop{
		Members:   scc,
		Path:      path,
		Unbounded: unbounded,
		Level:     "info",
	}
	if unbounded {
		loop.Level = "error"
		loop.Message = fmt.Sprintf("Unbounded loop: %s", strings.Join(path, " → "))
	} else {
		loop.Message = fmt.Sprintf("Feedback loop: %s", strings.Join(path, " → "))
	}
	return loop
}

// reconstructPath walks edges inside the SCC from its first member until
// it returns to the start.
func (g *loopGraph) reconstructPath(scc []string) []string {
	start := scc[0]
	if len(scc) == 1 {
		return []string{start, start}
	}

	member := make(map[string]bool, len(scc))
	for _, n := range scc {
		member[n] = true
	}

	path := []string{start}
	visited := map[string]bool{start: true}
	current := start
	for {
		var next string
		for _, n := range g.edges[current] {
			if member[n] && !visited[n] {
				next = n
				break
			}
		}
		if next == "" {
			// Close the cycle if the current node links back to start.
			for _, n := range g.edges[current] {
				if n == start {
					path = append(path, start)
					break
				}
			}
			return path
		}
		path = append(path, next)
		visited[next] = true
		current = next
	}
}
