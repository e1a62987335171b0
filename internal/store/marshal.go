package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/pulsenet/internal/ir"
)

// marshalDefinitions serializes definitions to canonical JSON, keeping
// declaration order.
func marshalDefinitions(defs []ir.Definition) (string, error) {
	list := make([]any, len(defs))
	for i, d := range defs {
		list[i] = d
	}
	data, err := ir.MarshalCanonical(list)
	if err != nil {
		return "", fmt.Errorf("marshal definitions: %w", err)
	}
	return string(data), nil
}

// storedDefinition is the canonical JSON shape of an ir.Definition.
type storedDefinition struct {
	Name    string   `json:"name"`
	Kind    string   `json:"kind"`
	Targets []string `json:"targets"`
}

func unmarshalDefinitions(data string) ([]ir.Definition, error) {
	var stored []storedDefinition
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		return nil, fmt.Errorf("unmarshal definitions: %w", err)
	}

	defs := make([]ir.Definition, len(stored))
	for i, sd := range stored {
		kind, err := ir.ParseKindName(sd.Kind)
		if err != nil {
			return nil, fmt.Errorf("unmarshal definition %q: %w", sd.Name, err)
		}
		targets := sd.Targets
		if targets == nil {
			targets = []string{}
		}
		defs[i] = ir.Definition{Name: sd.Name, Kind: kind, Targets: targets}
	}
	return defs, nil
}
