package registry

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var dataFS embed.FS

// providerOrder fixes the iteration order used everywhere a provider
// tie-break matters (heuristic resolution, listings). First match wins.
var providerOrder = []string{"openai", "anthropic", "google", "mistral", "deepseek", "xai"}

// Cost is USD per 1000 tokens.
type Cost struct {
	InputPer1K  float64 `yaml:"input"`
	OutputPer1K float64 `yaml:"output"`
}

// ModelConfig is one registry entry. Name and Provider are always set;
// Encoding is present only for tokenizer families that need an explicit
// codec selector.
type ModelConfig struct {
	Name          string   `yaml:"name"`
	Provider      string   `yaml:"-"`
	Encoding      string   `yaml:"encoding,omitempty"`
	ContextWindow int      `yaml:"context_window,omitempty"`
	MaxOutput     int      `yaml:"max_output,omitempty"`
	CostPer1K     *Cost    `yaml:"cost_per_1k,omitempty"`
	Deprecated    bool     `yaml:"deprecated,omitempty"`
	Capabilities  []string `yaml:"capabilities,omitempty"`
}

type providerFile struct {
	Provider string         `yaml:"provider"`
	Models   []*ModelConfig `yaml:"models"`
}

// Registry holds all known models. It is immutable after Load and safe
// for unsynchronized concurrent reads.
type Registry struct {
	models     map[string]*ModelConfig
	byProvider map[string][]*ModelConfig
	providers  []string
}

// Load parses the embedded model data files.
func Load() (*Registry, error) {
	var models []*ModelConfig
	for _, provider := range providerOrder {
		data, err := dataFS.ReadFile("data/" + provider + ".yaml")
		if err != nil {
			return nil, fmt.Errorf("reading model data for %s: %w", provider, err)
		}
		var pf providerFile
		if err := yaml.Unmarshal(data, &pf); err != nil {
			return nil, fmt.Errorf("parsing model data for %s: %w", provider, err)
		}
		if pf.Provider != provider {
			return nil, fmt.Errorf("model data for %s declares provider %q", provider, pf.Provider)
		}
		for _, m := range pf.Models {
			m.Provider = provider
		}
		models = append(models, pf.Models...)
	}
	return New(models), nil
}

// New builds a registry from explicit entries. Providers keep their first
// appearance order; tests use this to substitute minimal fixtures.
func New(models []*ModelConfig) *Registry {
	r := &Registry{
		models:     make(map[string]*ModelConfig, len(models)),
		byProvider: make(map[string][]*ModelConfig),
	}
	for _, m := range models {
		name := Normalize(m.Name)
		if _, ok := r.byProvider[m.Provider]; !ok {
			r.providers = append(r.providers, m.Provider)
		}
		r.models[name] = m
		r.byProvider[m.Provider] = append(r.byProvider[m.Provider], m)
	}
	for _, list := range r.byProvider {
		sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	}
	return r
}

// Normalize lowercases and trims a model name for lookup.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Lookup returns the entry for an exact (normalized) model name.
func (r *Registry) Lookup(name string) (*ModelConfig, bool) {
	m, ok := r.models[Normalize(name)]
	return m, ok
}

// Providers returns provider names in the fixed registry order.
func (r *Registry) Providers() []string {
	return r.providers
}

// Models returns a provider's entries sorted by name.
func (r *Registry) Models(provider string) []*ModelConfig {
	return r.byProvider[provider]
}

// All returns every entry, grouped by provider order then name.
func (r *Registry) All() []*ModelConfig {
	var out []*ModelConfig
	for _, p := range r.providers {
		out = append(out, r.byProvider[p]...)
	}
	return out
}
