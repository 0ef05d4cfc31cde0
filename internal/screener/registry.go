package screener

import (
	"bytes"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/wonny/stockscreen/backend/internal/contracts"
)

//go:embed registry.yaml
var registryYAML []byte

// Registry is the static catalog of filterable attributes.
// ⭐ SSOT: 필터 정의는 registry.yaml 에서만
type Registry struct {
	version string
	order   []string
	defs    map[string]contracts.FilterDefinition
}

type registryFile struct {
	Version string                       `yaml:"version"`
	Filters []contracts.FilterDefinition `yaml:"filters"`
}

// LoadRegistry decodes the embedded registry
func LoadRegistry() (*Registry, error) {
	return ParseRegistry(registryYAML)
}

// MustLoadRegistry is LoadRegistry for process start and tests
func MustLoadRegistry() *Registry {
	reg, err := LoadRegistry()
	if err != nil {
		panic(err)
	}
	return reg
}

// ParseRegistry decodes and validates a registry document.
// Unknown YAML fields are rejected.
func ParseRegistry(data []byte) (*Registry, error) {
	var file registryFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode filter registry: %w", err)
	}

	reg := &Registry{
		version: file.Version,
		order:   make([]string, 0, len(file.Filters)),
		defs:    make(map[string]contracts.FilterDefinition, len(file.Filters)),
	}

	for i, def := range file.Filters {
		if err := validateDefinition(def); err != nil {
			return nil, fmt.Errorf("filters[%d]: %w", i, err)
		}
		if _, dup := reg.defs[def.Key]; dup {
			return nil, fmt.Errorf("filters[%d]: duplicate key %q", i, def.Key)
		}
		reg.order = append(reg.order, def.Key)
		reg.defs[def.Key] = def
	}

	return reg, nil
}

func validateDefinition(def contracts.FilterDefinition) error {
	if def.Key == "" {
		return fmt.Errorf("key is required")
	}
	if !def.Category.Valid() {
		return fmt.Errorf("%s: unknown category %q", def.Key, def.Category)
	}
	if !def.Mode.Valid() {
		return fmt.Errorf("%s: unknown mode %q", def.Key, def.Mode)
	}
	if def.Mode == contracts.ModeSelect && len(def.Options) == 0 {
		return fmt.Errorf("%s: select filter needs options", def.Key)
	}
	if def.Backtest != nil && def.Backtest.Indicator == "" {
		return fmt.Errorf("%s: backtest mapping needs an indicator", def.Key)
	}
	return nil
}

// Version returns the registry document version
func (r *Registry) Version() string {
	return r.version
}

// Definition looks up a definition by key
func (r *Registry) Definition(key string) (contracts.FilterDefinition, bool) {
	def, ok := r.defs[key]
	return def, ok
}

// Definitions returns all definitions in registry order
func (r *Registry) Definitions() []contracts.FilterDefinition {
	out := make([]contracts.FilterDefinition, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.defs[key])
	}
	return out
}

// ByCategory returns the definitions of one category in registry order
func (r *Registry) ByCategory(c contracts.Category) []contracts.FilterDefinition {
	out := make([]contracts.FilterDefinition, 0)
	for _, key := range r.order {
		if def := r.defs[key]; def.Category == c {
			out = append(out, def)
		}
	}
	return out
}

// CategoryOf resolves a rule's category through its definition
func (r *Registry) CategoryOf(rule contracts.Rule) (contracts.Category, bool) {
	def, ok := r.defs[rule.Key]
	if !ok {
		return "", false
	}
	return def.Category, true
}
