// Package pricing holds per-1000-token USD prices and derives costs from
// token counts. The table is keyed by the same normalized model names as
// the model registry but populated from a separate pricing feed; an
// embedded snapshot serves as the offline default.
package pricing

import (
	_ "embed"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/everstacklabs/tokengate/internal/registry"
)

//go:embed data/pricing.yaml
var feedSnapshot []byte

// Price is USD per 1000 tokens.
type Price struct {
	InputPer1K  float64 `yaml:"input_per_1k" json:"input_per_1k"`
	OutputPer1K float64 `yaml:"output_per_1k" json:"output_per_1k"`
}

type feedDoc struct {
	Models map[string]Price `yaml:"models"`
}

// Table is an immutable pricing lookup.
type Table struct {
	prices map[string]Price
}

// Load parses the embedded pricing feed snapshot.
func Load() (*Table, error) {
	return parse(feedSnapshot)
}

// New builds a table from explicit prices (fixture constructor for tests).
func New(prices map[string]Price) *Table {
	normalized := make(map[string]Price, len(prices))
	for name, p := range prices {
		normalized[registry.Normalize(name)] = p
	}
	return &Table{prices: normalized}
}

func parse(data []byte) (*Table, error) {
	var doc feedDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing pricing feed: %w", err)
	}
	return New(doc.Models), nil
}

// Price returns the per-1K pricing for a model.
func (t *Table) Price(model string) (Price, bool) {
	p, ok := t.prices[registry.Normalize(model)]
	return p, ok
}

// Cost converts a token count to USD using the model's input price.
// Unknown models cost zero: cost display is best-effort, never an error.
// Rounding is left to the presentation layer.
func (t *Table) Cost(tokens int, model string) float64 {
	p, ok := t.Price(model)
	if !ok {
		slog.Debug("no pricing known for model", "model", model)
		return 0
	}
	return float64(tokens) / 1000 * p.InputPer1K
}
