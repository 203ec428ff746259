package config

import (
	"fmt"
	"math"
	"os"
	"sort"

	"assessr/domain/analytics"
	"assessr/domain/core"
	"assessr/internal/errors"

	"gopkg.in/yaml.v3"
)

// DefaultPreset is used when a comparables request names no preset
const DefaultPreset = "residential"

// Presets maps a preset name to the fields used for comparable scoring
type Presets map[string][]analytics.FieldSpec

type presetsFile struct {
	Presets map[string][]analytics.FieldSpec `yaml:"presets"`
}

// BuiltinPresets returns the presets shipped with the application
func BuiltinPresets() Presets {
	return Presets{
		"residential": {
			{Key: "living_area", Type: analytics.FieldNumeric, Weight: analytics.Weight(3)},
			{Key: "land_area", Type: analytics.FieldNumeric, Weight: analytics.Weight(1)},
			{Key: "year_built", Type: analytics.FieldNumeric, Weight: analytics.Weight(2)},
			{Key: "bedrooms", Type: analytics.FieldNumeric, Weight: analytics.Weight(1)},
			{Key: "bathrooms", Type: analytics.FieldNumeric, Weight: analytics.Weight(1)},
			{Key: "neighborhood", Type: analytics.FieldCategorical, Weight: analytics.Weight(2)},
			{Key: "quality", Type: analytics.FieldCategorical, Weight: analytics.Weight(2)},
			{Key: "condition", Type: analytics.FieldCategorical, Weight: analytics.Weight(1)},
			{Key: "has_garage", Type: analytics.FieldBoolean, Weight: analytics.Weight(0.5)},
			{Key: "has_pool", Type: analytics.FieldBoolean, Weight: analytics.Weight(0.5)},
			{Key: "sale_date", Type: analytics.FieldDate, Weight: analytics.Weight(1)},
		},
		"land": {
			{Key: "land_area", Type: analytics.FieldNumeric, Weight: analytics.Weight(3)},
			{Key: "neighborhood", Type: analytics.FieldCategorical, Weight: analytics.Weight(2)},
			{Key: "property_class", Type: analytics.FieldCategorical, Weight: analytics.Weight(1)},
			{Key: "sale_date", Type: analytics.FieldDate, Weight: analytics.Weight(1)},
		},
	}
}

// LoadPresets reads presets from a YAML file of the form
//
//	presets:
//	  residential:
//	    - {key: living_area, type: numeric, weight: 3}
//
// An omitted weight is 1; weight 0 keeps the field listed but ignores it.
// File presets override built-ins of the same name. An empty path returns the
// built-ins.
func LoadPresets(path string) (Presets, error) {
	presets := BuiltinPresets()
	if path == "" {
		return presets, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ConfigInvalid(err.Error()), "failed to read presets file %s", path)
	}
	return ParsePresets(data, presets)
}

// ParsePresets decodes YAML presets on top of base
func ParsePresets(data []byte, base Presets) (Presets, error) {
	var file presetsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(errors.ConfigInvalid(err.Error()), "failed to parse presets")
	}

	out := make(Presets, len(base)+len(file.Presets))
	for name, fields := range base {
		out[name] = fields
	}
	for name, fields := range file.Presets {
		if err := validateFields(fields); err != nil {
			return nil, errors.Wrapf(err, "preset %q", name)
		}
		out[name] = fields
	}
	return out, nil
}

// Lookup returns the named preset, or the default when name is empty
func (p Presets) Lookup(name string) ([]analytics.FieldSpec, error) {
	if name == "" {
		name = DefaultPreset
	}
	fields, ok := p[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrPresetNotFound, name)
	}
	return fields, nil
}

// Names lists preset names alphabetically
func (p Presets) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func validateFields(fields []analytics.FieldSpec) error {
	if len(fields) == 0 {
		return errors.ConfigInvalid("preset has no fields")
	}
	for i, f := range fields {
		if f.Key == "" {
			return errors.ConfigInvalid(fmt.Sprintf("field %d has no key", i))
		}
		if !f.Type.Valid() {
			return errors.ConfigInvalid(fmt.Sprintf("field %s has unknown type %q", f.Key, f.Type))
		}
		if f.Weight != nil && (*f.Weight < 0 || math.IsNaN(*f.Weight) || math.IsInf(*f.Weight, 0)) {
			return errors.ConfigInvalid(fmt.Sprintf("field %s has invalid weight %v", f.Key, *f.Weight))
		}
	}
	return nil
}
