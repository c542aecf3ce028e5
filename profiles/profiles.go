// Package profiles provides named GC policy presets, loaded from YAML. A
// preset resolves to a collect setting that can seed a scope, typically the
// boot scope a runtime opens at startup.
package profiles

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/epochgc/gcpolicy/core"
)

// presetData holds the raw bytes of the built-in preset file, baked into the
// binary so the defaults travel with it.
//
//go:embed presets.yaml
var presetData []byte

// Profile is one named policy preset
type Profile struct {
	// Name identifies the preset
	Name string `yaml:"name"`

	// Collect is the collect value: "collect" or "nocollect"
	Collect string `yaml:"collect"`

	// Strength is the precedence level: "lenient", "as-strong-as" or "strict"
	Strength string `yaml:"strength"`

	// Threshold is the floor value for as-strong-as, empty otherwise
	Threshold string `yaml:"threshold,omitempty"`

	// Description says what the preset is for
	Description string `yaml:"description,omitempty"`
}

// profileFile is the on-disk document shape
type profileFile struct {
	Profiles []Profile `yaml:"profiles"`
}

// Load parses a preset document, validates every profile, and returns them
// sorted by name.
func Load(data []byte) ([]Profile, error) {
	var file profileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profiles: %w", err)
	}

	seen := make(map[string]bool)
	for i, p := range file.Profiles {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("profile %d (%q): %w", i, p.Name, err)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("duplicate profile name %q", p.Name)
		}
		seen[p.Name] = true
	}

	sort.Slice(file.Profiles, func(i, j int) bool {
		return file.Profiles[i].Name < file.Profiles[j].Name
	})

	return file.Profiles, nil
}

var (
	presetsOnce sync.Once
	presets     []Profile
	presetsErr  error
)

// Presets returns the built-in presets embedded in the binary.
func Presets() ([]Profile, error) {
	presetsOnce.Do(func() {
		presets, presetsErr = Load(presetData)
	})
	if presetsErr != nil {
		return nil, fmt.Errorf("embedded presets: %w", presetsErr)
	}
	return presets, nil
}

// Find returns the profile with the given name.
func Find(list []Profile, name string) (Profile, bool) {
	for _, p := range list {
		if p.Name == name {
			return p, true
		}
	}
	return Profile{}, false
}

// Validate checks the enum spellings and the strength/threshold pairing.
func (p Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile name must not be empty")
	}
	if _, err := core.ParseCollect(p.Collect); err != nil {
		return err
	}
	kind, err := core.ParseStrengthKind(p.Strength)
	if err != nil {
		return err
	}
	if kind == core.StrengthAsStrongAs {
		if p.Threshold == "" {
			return fmt.Errorf("strength as-strong-as requires a threshold")
		}
		if _, err := core.ParseCollect(p.Threshold); err != nil {
			return fmt.Errorf("threshold: %w", err)
		}
	} else if p.Threshold != "" {
		return fmt.Errorf("threshold is only valid with strength as-strong-as")
	}
	return nil
}

// Setting resolves the preset into a concrete collect setting.
func (p Profile) Setting() (core.Setting[core.Collect], error) {
	var zero core.Setting[core.Collect]

	value, err := core.ParseCollect(p.Collect)
	if err != nil {
		return zero, err
	}
	kind, err := core.ParseStrengthKind(p.Strength)
	if err != nil {
		return zero, err
	}

	var strength core.Strength[core.Collect]
	switch kind {
	case core.StrengthLenient:
		strength = core.Lenient[core.Collect]()
	case core.StrengthAsStrongAs:
		threshold, err := core.ParseCollect(p.Threshold)
		if err != nil {
			return zero, fmt.Errorf("threshold: %w", err)
		}
		strength = core.AsStrongAs(threshold)
	case core.StrengthStrict:
		strength = core.Strict[core.Collect]()
	}

	return core.Setting[core.Collect]{Value: value, Strength: strength}, nil
}
