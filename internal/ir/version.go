package ir

// Version constants for the circuit format and engine.
const (
	// FormatVersion is the circuit fingerprint format version.
	FormatVersion = "1"

	// EngineVersion is the pulsenet engine version.
	EngineVersion = "0.1.0"
)
