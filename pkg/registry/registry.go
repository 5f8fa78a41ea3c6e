// pkg/registry/registry.go
package registry

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

var featureIDPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

func LoadRegistry(path string) (*FeatureRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a YAML registry document and validates it.
func Parse(data []byte) (*FeatureRegistry, error) {
	var reg FeatureRegistry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse feature registry: %w", err)
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return &reg, nil
}

// Validate reports every problem found, joined into one error.
func (r *FeatureRegistry) Validate() error {
	var errs []error
	seen := make(map[string]bool, len(r.Features))

	for i, f := range r.Features {
		switch {
		case f.ID == "":
			errs = append(errs, fmt.Errorf("features[%d]: id is required", i))
			continue
		case !featureIDPattern.MatchString(f.ID):
			errs = append(errs, fmt.Errorf("features[%d]: id %q must be snake_case", i, f.ID))
		}
		if seen[f.ID] {
			errs = append(errs, fmt.Errorf("features[%d]: duplicate id %q", i, f.ID))
		}
		seen[f.ID] = true

		if f.DailyCeiling < 0 {
			errs = append(errs, fmt.Errorf("feature %s: dailyCeiling must not be negative", f.ID))
		}
	}

	return errors.Join(errs...)
}

// Ceilings maps every enabled feature to its daily ceiling.
func (r *FeatureRegistry) Ceilings() map[string]int {
	out := make(map[string]int, len(r.Features))
	for _, f := range r.Features {
		if f.Enabled {
			out[f.ID] = f.DailyCeiling
		}
	}
	return out
}

func (r *FeatureRegistry) Find(id string) (Feature, bool) {
	for _, f := range r.Features {
		if f.ID == id {
			return f, true
		}
	}
	return Feature{}, false
}
