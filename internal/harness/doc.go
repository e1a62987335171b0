// Package harness runs circuit scenarios as executable tests.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	circuit: |
//	  broadcaster -> a
//	  %a -> inv
//	  &inv -> out
//	presses: 1000
//	expect: { lows: 3000, highs: 1000 }
//	watch: { target: out, answer: 1, method: brute_force }
//	golden_triggers: 2
//	assertions:
//	  - type: pulse_order
//	    trigger: 1
//	    pulses: ["broadcaster -low-> a", "a -high-> inv"]
//	  - type: final_state
//	    module: inv
//	    expect: { a: low }
//	  - type: run_log
//	    table: runs
//	    where: { id: test-run-default }
//	    expect: { presses: 1000 }
//
// circuit_file may replace circuit; it is resolved relative to the
// scenario file and may be CUE or puzzle text. A scenario that only
// checks a rejection sets expect_error to the expected code.
//
// # Execution
//
// Every scenario runs against a fresh in-memory run log. The trace of
// every press is recorded; with golden_triggers set, the leading
// triggers are compared against testdata/golden/<name>.golden. The
// watch block runs on its own simulator, so it never sees the presses
// made for expect.
package harness
