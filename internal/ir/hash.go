package ir

import (
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
)

// DomainCircuit is the domain prefix for circuit fingerprints.
// The version suffix allows the algorithm to change without collisions.
const DomainCircuit = "pulsenet/circuit/v" + FormatVersion

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CircuitHash returns a stable fingerprint for a set of definitions.
//
// Definitions are ordered by name before hashing, so the fingerprint does
// not depend on declaration order. Target order is kept: it decides the
// order in which pulses are queued and therefore the simulated trace.
func CircuitHash(defs []Definition) (string, error) {
	sorted := slices.Clone(defs)
	slices.SortFunc(sorted, func(a, b Definition) int {
		return cmp.Compare(a.Name, b.Name)
	})

	list := make([]any, len(sorted))
	for i, d := range sorted {
		list[i] = d
	}

	canonical, err := MarshalCanonical(list)
	if err != nil {
		return "", fmt.Errorf("CircuitHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainCircuit, canonical), nil
}

// MustCircuitHash is like CircuitHash but panics on error.
// Use only in tests or when definitions are known to be valid.
func MustCircuitHash(defs []Definition) string {
	h, err := CircuitHash(defs)
	if err != nil {
		panic(err)
	}
	return h
}
