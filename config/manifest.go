package config

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed product-line.yaml
var defaultManifest []byte

// Feature is one service capability. Requires lists capabilities whose components must
// exist for this one to work; Optional lists capabilities wired in only when active.
type Feature struct {
	Port     int      `yaml:"port"`
	Requires []string `yaml:"requires"`
	Optional []string `yaml:"optional"`
}

type Variant struct {
	Description string   `yaml:"description"`
	Features    []string `yaml:"features"`
}

type Manifest struct {
	Features map[string]Feature `yaml:"features"`
	Variants map[string]Variant `yaml:"variants"`
}

// LoadManifest reads the manifest at path, or the embedded one when path is empty.
func LoadManifest(path string) (*Manifest, error) {
	if path == "" {
		return ParseManifest(defaultManifest)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read manifest %s: %w", path, err)
	}
	return ParseManifest(data)
}

func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("could not parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) Validate() error {
	if len(m.Features) == 0 {
		return fmt.Errorf("manifest declares no features")
	}

	ports := map[int]string{}
	for _, name := range sortedKeys(m.Features) {
		feature := m.Features[name]
		if feature.Port <= 0 || feature.Port > 65535 {
			return fmt.Errorf("feature %q: invalid port %d", name, feature.Port)
		}
		if other, taken := ports[feature.Port]; taken {
			return fmt.Errorf("feature %q: port %d already used by %q", name, feature.Port, other)
		}
		ports[feature.Port] = name

		for _, dep := range append(append([]string{}, feature.Requires...), feature.Optional...) {
			if _, ok := m.Features[dep]; !ok {
				return fmt.Errorf("feature %q depends on unknown feature %q", name, dep)
			}
			if dep == name {
				return fmt.Errorf("feature %q depends on itself", name)
			}
		}
	}
	if err := m.checkCycles(); err != nil {
		return err
	}

	for _, name := range sortedKeys(m.Variants) {
		variant := m.Variants[name]
		if len(variant.Features) == 0 {
			return fmt.Errorf("variant %q has no features", name)
		}
		for _, feature := range variant.Features {
			if _, ok := m.Features[feature]; !ok {
				return fmt.Errorf("variant %q: unknown feature %q", name, feature)
			}
		}
	}
	return nil
}

// checkCycles walks the requires graph depth first.
func (m *Manifest) checkCycles() error {
	const (
		visiting = 1
		done     = 2
	)
	state := map[string]int{}
	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		switch state[name] {
		case visiting:
			return fmt.Errorf("dependency cycle: %s", strings.Join(append(path, name), " -> "))
		case done:
			return nil
		}
		state[name] = visiting
		for _, dep := range m.Features[name].Requires {
			if err := visit(dep, append(path, name)); err != nil {
				return err
			}
		}
		state[name] = done
		return nil
	}
	for _, name := range sortedKeys(m.Features) {
		if err := visit(name, nil); err != nil {
			return err
		}
	}
	return nil
}

// Variant returns the named variant or an error listing the available ones.
func (m *Manifest) Variant(name string) (Variant, error) {
	variant, ok := m.Variants[name]
	if !ok {
		return Variant{}, fmt.Errorf("unknown variant %q, use one of: %s", name, strings.Join(m.VariantNames(), ", "))
	}
	return variant, nil
}

func (m *Manifest) VariantNames() []string {
	return sortedKeys(m.Variants)
}

func sortedKeys[V any](in map[string]V) []string {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
