package config

import (
	"fmt"
	"os"

	"meterload/domain/meter"
	"meterload/internal/errors"

	"gopkg.in/yaml.v3"
)

// Mapping is the parsed meters file:
//
//	date_column: Date
//	meters:
//	  - column: M1
//	    label: Main Incoming Water
//	    topic: Astellas/Primary/Main_Incoming_Water
//	    field: totalValue
//
// date_column is optional and overrides the environment default.
type Mapping struct {
	DateColumn string             `yaml:"date_column"`
	Meters     []meter.Definition `yaml:"meters"`
}

// LoadMeters reads a meter mapping file. An empty path falls back to the
// built-in default mapping.
func LoadMeters(path string) (*Mapping, error) {
	if path == "" {
		return &Mapping{Meters: meter.DefaultMapping()}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read meters file %s", path)
	}

	var mapping Mapping
	if err := yaml.Unmarshal(data, &mapping); err != nil {
		return nil, errors.Wrapf(err, "failed to parse meters file %s", path)
	}
	if len(mapping.Meters) == 0 {
		return nil, errors.ConfigInvalid(fmt.Sprintf("meters file %s defines no meters", path))
	}

	seen := make(map[string]bool, len(mapping.Meters))
	for i, def := range mapping.Meters {
		if def.Column == "" {
			return nil, errors.ConfigInvalid(fmt.Sprintf("meter %d in %s has no column", i+1, path))
		}
		if def.Topic == "" {
			return nil, errors.ConfigInvalid(fmt.Sprintf("meter %s in %s has no topic", def.Column, path))
		}
		if seen[def.Column] {
			return nil, errors.ConfigInvalid(fmt.Sprintf("meter column %s is defined twice in %s", def.Column, path))
		}
		seen[def.Column] = true
	}
	return &mapping, nil
}
