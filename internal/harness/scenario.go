package harness

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/pulsenet/internal/engine"
)

// Scenario defines a circuit test scenario: a circuit, a number of button
// presses and the outcomes expected from them.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Circuit is an inline circuit in the puzzle text format.
	Circuit string `yaml:"circuit,omitempty"`

	// CircuitFile is a circuit file (.cue or text), relative to the
	// scenario file. Exactly one of Circuit and CircuitFile is set.
	CircuitFile string `yaml:"circuit_file,omitempty"`

	// Presses is the number of button presses to simulate.
	// Nil means engine.DefaultPresses.
	Presses *int `yaml:"presses,omitempty"`

	// Expect checks the pulse totals after all presses.
	Expect *Expect `yaml:"expect,omitempty"`

	// ExpectError names the error the circuit must be rejected with:
	// a registry code such as "MULTIPLE_BROADCASTERS", a compiler
	// validation code such as "E103", or "PARSE_ERROR".
	ExpectError string `yaml:"expect_error,omitempty"`

	// Watch runs a period search on a fresh simulator.
	Watch *Watch `yaml:"watch,omitempty"`

	// Assertions validate the pulse trace, final state and run log.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// GoldenTriggers is how many leading triggers of the trace are
	// compared against testdata/golden/<name>.golden.
	GoldenTriggers int `yaml:"golden_triggers,omitempty"`

	// RunID is an optional fixed run ID for the run log.
	// If empty, defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`

	// dir is the directory holding the scenario file.
	dir string
}

// Expect holds expected pulse totals. Nil fields are not checked.
type Expect struct {
	Lows    *int64 `yaml:"lows,omitempty"`
	Highs   *int64 `yaml:"highs,omitempty"`
	Product *int64 `yaml:"product,omitempty"`
}

// Watch configures a period search.
type Watch struct {
	// Module is the module whose predecessors are watched.
	Module string `yaml:"module,omitempty"`

	// Target is a low-pulse target such as "rx"; the module to watch is
	// derived from it. Exactly one of Module and Target is set.
	Target string `yaml:"target,omitempty"`

	// Confirm enables period confirmation. Nil means true.
	Confirm *bool `yaml:"confirm,omitempty"`

	// MaxTriggers caps the search. Zero means engine.DefaultMaxTriggers.
	MaxTriggers int64 `yaml:"max_triggers,omitempty"`

	// Answer is the expected answer trigger.
	Answer int64 `yaml:"answer,omitempty"`

	// Method is the expected method ("lcm" or "brute_force"), if set.
	Method string `yaml:"method,omitempty"`

	// ExpectError is the expected runtime error code, such as
	// "TRIGGER_LIMIT_EXCEEDED".
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Assertion validates the trace, the final state or the run log.
type Assertion struct {
	// Type specifies the assertion type:
	// - "pulse_contains": a pulse appears in the trace
	// - "pulse_order": pulses appear in order
	// - "pulse_count": a pulse appears exactly N times
	// - "final_state": a module is in the expected state
	// - "run_log": query a run log table and verify expected values
	Type string `yaml:"type"`

	// Pulse is a pulse in "from -level-> to" form (pulse_contains, pulse_count).
	Pulse string `yaml:"pulse,omitempty"`

	// Trigger restricts pulse_contains, pulse_order and pulse_count to
	// one trigger. Zero means every trigger.
	Trigger int64 `yaml:"trigger,omitempty"`

	// Pulses is the expected pulse order (pulse_order).
	Pulses []string `yaml:"pulses,omitempty"`

	// Count is the expected number of occurrences (pulse_count).
	Count int `yaml:"count,omitempty"`

	// Module is the module to inspect (final_state).
	Module string `yaml:"module,omitempty"`

	// Table is the run log table name (run_log).
	Table string `yaml:"table,omitempty"`

	// Where specifies query filters (run_log).
	Where map[string]interface{} `yaml:"where,omitempty"`

	// Expect contains expected values. For final_state a flip-flop uses
	// {on: bool} and a conjunction maps input names to "low" or "high".
	// For run_log it is a subset of the row's columns.
	Expect map[string]interface{} `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertPulseContains = "pulse_contains"
	AssertPulseOrder    = "pulse_order"
	AssertPulseCount    = "pulse_count"
	AssertFinalState    = "final_state"
	AssertRunLog        = "run_log"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	scenario.dir = filepath.Dir(path)

	if scenario.CircuitFile != "" {
		if _, err := os.Stat(scenario.circuitPath()); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: circuit file not found: %s", scenario.circuitPath())
		}
	}

	return scenario, nil
}

// ParseScenario parses scenario YAML held in memory. A circuit_file is
// resolved against the working directory.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml and *.yml file in dir whose scenario
// name matches filter (a path.Match pattern; empty matches all).
// Scenarios are returned in file name order.
func LoadScenarios(dir, filter string) ([]*Scenario, error) {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)

	if filter != "" {
		if _, err := path.Match(filter, ""); err != nil {
			return nil, fmt.Errorf("invalid filter %q: %w", filter, err)
		}
	}

	var scenarios []*Scenario
	for _, f := range files {
		s, err := LoadScenario(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(f), err)
		}
		if filter != "" {
			if ok, _ := path.Match(filter, s.Name); !ok {
				continue
			}
		}
		scenarios = append(scenarios, s)
	}

	return scenarios, nil
}

func (s *Scenario) circuitPath() string {
	if filepath.IsAbs(s.CircuitFile) || s.dir == "" {
		return s.CircuitFile
	}
	return filepath.Join(s.dir, s.CircuitFile)
}

func (s *Scenario) presses() int {
	if s.Presses == nil {
		return engine.DefaultPresses
	}
	return *s.Presses
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if (s.Circuit == "") == (s.CircuitFile == "") {
		return fmt.Errorf("exactly one of circuit and circuit_file is required")
	}

	if s.Presses != nil && *s.Presses < 0 {
		return fmt.Errorf("presses must be non-negative")
	}

	if s.GoldenTriggers < 0 {
		return fmt.Errorf("golden_triggers must be non-negative")
	}

	if s.ExpectError != "" {
		if s.Expect != nil || s.Watch != nil || len(s.Assertions) > 0 || s.GoldenTriggers > 0 {
			return fmt.Errorf("expect_error cannot be combined with other expectations")
		}
		return nil
	}

	if s.Expect == nil && s.Watch == nil && len(s.Assertions) == 0 && s.GoldenTriggers == 0 {
		return fmt.Errorf("scenario checks nothing: set expect, watch, assertions or golden_triggers")
	}

	if s.Watch != nil {
		if err := validateWatch(s.Watch); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateWatch(w *Watch) error {
	if (w.Module == "") == (w.Target == "") {
		return fmt.Errorf("watch: exactly one of module and target is required")
	}
	if w.MaxTriggers < 0 {
		return fmt.Errorf("watch: max_triggers must be non-negative")
	}
	switch engine.Method(w.Method) {
	case "", engine.MethodLCM, engine.MethodBruteForce:
	default:
		return fmt.Errorf("watch: unknown method %q", w.Method)
	}
	if w.ExpectError == "" && w.Answer <= 0 {
		return fmt.Errorf("watch: answer or expect_error is required")
	}
	if w.ExpectError != "" && (w.Answer != 0 || w.Method != "") {
		return fmt.Errorf("watch: expect_error cannot be combined with answer or method")
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Trigger < 0 {
		return fmt.Errorf("assertions[%d]: trigger must be non-negative", index)
	}

	switch a.Type {
	case AssertPulseContains:
		if a.Pulse == "" {
			return fmt.Errorf("assertions[%d]: pulse is required for pulse_contains", index)
		}
	case AssertPulseOrder:
		if len(a.Pulses) == 0 {
			return fmt.Errorf("assertions[%d]: pulses list is required for pulse_order", index)
		}
	case AssertPulseCount:
		if a.Pulse == "" {
			return fmt.Errorf("assertions[%d]: pulse is required for pulse_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for pulse_count", index)
		}
	case AssertFinalState:
		if a.Module == "" {
			return fmt.Errorf("assertions[%d]: module is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertRunLog:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for run_log", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for run_log", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
