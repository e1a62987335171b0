// Package ir provides the shared vocabulary types for pulsenet circuits.
//
// This package contains definitions only. All other internal packages
// import ir; ir imports nothing internal, which keeps it the foundational
// layer with no circular dependencies.
//
// Key design constraints:
//   - Module kinds are a closed enumeration, dispatched with a switch
//   - Pulse levels are plain booleans (Low=false, High=true)
//   - Trigger indices are logical counters, never wall-clock timestamps
//   - Canonical JSON is the only serialization used for fingerprints and traces
package ir
