// Package registry owns the static topology of a pulse circuit.
//
// A Registry is built once from a validated definition list and is
// read-only afterwards; the simulator, state store and period detector
// all share it by reference.
//
// Construction does three things in one pass over the definitions:
//   - builds the exact name -> Module lookup
//   - synthesizes a Sink for every target that has no definition of its
//     own (dead ends such as "rx" or "output")
//   - derives every module's direct predecessors by scanning all target
//     lists (O(E)); conjunction state is seeded from this set, never
//     discovered lazily from pulses
package registry
