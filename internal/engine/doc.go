// Package engine runs pulse circuits.
//
// ARCHITECTURE:
//
// Single-Writer Simulation:
// A Simulator owns one pulse queue and one state.Store and processes every
// pulse on the calling goroutine. A trigger (one button press) seeds a
// single Low pulse from "button" to the broadcaster and drains the queue
// to empty before returning. This ensures:
//   - Causal FIFO order: a pulse emitted while handling pulse P is
//     delivered after every pulse that was already queued before P
//   - Reproducible totals and traces for the same circuit and press count
//   - Simple reasoning about state: nothing else mutates it
//
// Trigger Processing Flow:
//  1. Press() stamps the trigger with the next Clock value (1-based)
//  2. The seed pulse is pushed to the back of the queue
//  3. Each pulse is popped from the front, tallied, shown to observers,
//     and dispatched by the receiving module's kind
//  4. Emitted pulses are pushed to the back in target order
//  5. When the queue is empty the trigger's tally joins the running totals
//
// Period Detection:
// A PeriodDetector is an Observer that watches the High pulses arriving at
// one module. It answers "on which trigger does the module first hear High
// from every predecessor in the same trigger", either by observing it
// directly or by extrapolating per-predecessor periods with LCM.
//
// CRITICAL PATTERNS:
//
// Logical clock:
// Trigger indices come from Clock, never from wall time.
//
// Deterministic scheduling:
// Targets are visited in declaration order. No randomness, no
// concurrency, no map iteration on the hot path.
package engine
