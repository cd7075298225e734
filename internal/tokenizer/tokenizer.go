// Package tokenizer dispatches token counting to provider-family counters.
// Family counters register themselves at init, mirroring how provider
// adapters are wired elsewhere in this codebase; main pulls them in with
// blank imports.
package tokenizer

import (
	"context"
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/everstacklabs/tokengate/internal/registry"
)

// DefaultModel is the universal fallback when a model cannot be resolved
// to any provider family.
const DefaultModel = "gpt-4o"

// charsPerToken is the rune-to-token ratio used by the approximation
// fallback. ~4 characters per token holds for English text across the
// major tokenizers.
const charsPerToken = 4

// Counter counts tokens for one provider family.
type Counter interface {
	// Family returns the provider family name (e.g., "openai").
	Family() string
	// Count returns the exact token count for text under the given model.
	Count(ctx context.Context, text string, model *registry.ModelConfig) (int, error)
}

var (
	mu       sync.RWMutex
	counters = make(map[string]Counter)
)

// Register adds a counter to the family registry.
func Register(c Counter) {
	mu.Lock()
	defer mu.Unlock()
	counters[c.Family()] = c
}

// Get returns a counter by family name.
func Get(family string) (Counter, bool) {
	mu.RLock()
	defer mu.RUnlock()
	c, ok := counters[family]
	return c, ok
}

// Approximate estimates a token count from rune length when no exact
// tokenizer is available. Rounds up so short non-empty text never counts
// as zero.
func Approximate(text string) int {
	return (utf8.RuneCountInString(text) + charsPerToken - 1) / charsPerToken
}

// Dispatcher resolves a model to a family counter and counts tokens, with
// documented degradation: unknown models use the default model's family,
// and any counter failure is replaced by the rune approximation.
type Dispatcher struct {
	reg *registry.Registry
}

// NewDispatcher creates a dispatcher over the given registry.
func NewDispatcher(reg *registry.Registry) *Dispatcher {
	return &Dispatcher{reg: reg}
}

// Count returns the token count for text as the given model tokenizes it.
// Empty text is always zero, for every path, without invoking a counter.
// Count never fails; degraded paths log and approximate.
func (d *Dispatcher) Count(ctx context.Context, text, model string) int {
	if text == "" {
		return 0
	}

	cfg := d.resolve(model)
	counter, ok := Get(cfg.Provider)
	if !ok {
		// Providers without a dedicated counter use the BPE family.
		counter, ok = Get("openai")
		if !ok {
			return Approximate(text)
		}
	}

	n, err := counter.Count(ctx, text, cfg)
	if err != nil {
		slog.Error("token counting failed, using approximation",
			"model", cfg.Name, "family", counter.Family(), "error", err)
		return Approximate(text)
	}
	return n
}

// resolve maps a model name to a registry entry: exact lookup first, then
// heuristic provider detection, then the default model.
func (d *Dispatcher) resolve(model string) *registry.ModelConfig {
	if cfg, ok := d.reg.Lookup(model); ok {
		return cfg
	}
	if provider, ok := d.reg.DetectProvider(model); ok {
		slog.Warn("model not in registry, provider inferred by name",
			"model", model, "provider", provider)
		return &registry.ModelConfig{Name: registry.Normalize(model), Provider: provider}
	}
	slog.Warn("unknown model, falling back to default tokenizer",
		"model", model, "fallback", DefaultModel)
	if cfg, ok := d.reg.Lookup(DefaultModel); ok {
		return cfg
	}
	return &registry.ModelConfig{Name: DefaultModel, Provider: "openai"}
}
