package limit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everstacklabs/tokengate/internal/registry"
)

func fixtureParser() *Parser {
	reg := registry.New([]*registry.ModelConfig{
		{Name: "gpt-4o", Provider: "openai", Encoding: "o200k_base", ContextWindow: 128000},
		{Name: "gpt-4", Provider: "openai", Encoding: "cl100k_base", ContextWindow: 8192},
		{Name: "claude-sonnet-4-5", Provider: "anthropic", ContextWindow: 200000},
		{Name: "mystery-model", Provider: "openai"}, // no context window
	})
	return NewParser(reg)
}

func TestParse_PlainNumbers(t *testing.T) {
	p := fixtureParser()

	for _, n := range []float64{0, 1, 100, 99.9, 1e6} {
		got, err := p.Parse(Number(n))
		require.NoError(t, err)
		require.NotNil(t, got.Tokens)
		assert.Equal(t, int(math.Floor(n)), *got.Tokens)
		assert.Nil(t, got.Cost)
	}
}

func TestParse_RejectsNegativeAndNonFinite(t *testing.T) {
	p := fixtureParser()

	for _, n := range []float64{-1, -0.5, math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := p.Parse(Number(n))
		assert.Error(t, err, "expected failure for %v", n)
	}
}

func TestParse_SuffixLaw(t *testing.T) {
	p := fixtureParser()

	cases := map[string]int{
		"1k":    1000,
		"1.5M":  1_500_000,
		"2b":    2_000_000_000,
		"1g":    1_000_000_000,
		"1b":    1_000_000_000,
		"1t":    1_000_000_000_000,
		"100":   100,
		" 10K ": 10000,
	}
	for in, want := range cases {
		got, err := p.Parse(String(in))
		require.NoError(t, err, "input %q", in)
		require.NotNil(t, got.Tokens, "input %q", in)
		assert.Equal(t, want, *got.Tokens, "input %q", in)
	}
}

func TestParse_RejectsOverflowingValues(t *testing.T) {
	p := fixtureParser()

	for _, in := range []string{"99999999999t", "9300000000000000000"} {
		_, err := p.Parse(String(in))
		require.Error(t, err, "input %q", in)
		assert.ErrorContains(t, err, in)
	}

	_, err := p.Parse(Number(1e19))
	assert.Error(t, err)
}

func TestParse_ModelNameAsLimit(t *testing.T) {
	p := fixtureParser()

	got, err := p.Parse(String("claude-sonnet-4-5"))
	require.NoError(t, err)
	require.NotNil(t, got.Tokens)
	assert.Equal(t, 200000, *got.Tokens)

	// Registered but without a context window: descriptive failure, not a
	// guess.
	_, err = p.Parse(String("mystery-model"))
	assert.ErrorContains(t, err, "mystery-model")
}

func TestParse_CostStrings(t *testing.T) {
	p := fixtureParser()

	cases := map[string]float64{
		"$0.05":     0.05,
		"5c":        0.05,
		"5 cents":   0.05,
		"1 cent":    0.01,
		"1 dollar":  1,
		"2 dollars": 2,
	}
	for in, want := range cases {
		got, err := p.Parse(String(in))
		require.NoError(t, err, "input %q", in)
		require.NotNil(t, got.Cost, "input %q", in)
		assert.InDelta(t, want, *got.Cost, 1e-9, "input %q", in)
		assert.Nil(t, got.Tokens, "input %q", in)
	}
}

func TestParse_MalformedStrings(t *testing.T) {
	p := fixtureParser()

	for _, in := range []string{"abc", "", "$-1", "1x", "$1 and 5c", "dollars"} {
		_, err := p.Parse(String(in))
		require.Error(t, err, "input %q", in)
		if in != "" {
			assert.ErrorContains(t, err, in)
		}
	}
}

func TestParse_CombinedObject(t *testing.T) {
	p := fixtureParser()

	tokens := String("1k")
	cost := String("$0.01")
	got, err := p.Parse(Object(&tokens, &cost))
	require.NoError(t, err)
	require.NotNil(t, got.Tokens)
	require.NotNil(t, got.Cost)
	assert.Equal(t, 1000, *got.Tokens)
	assert.InDelta(t, 0.01, *got.Cost, 1e-9)
}

func TestParse_ObjectWithSingleKey(t *testing.T) {
	p := fixtureParser()

	cost := String("50c")
	got, err := p.Parse(Object(nil, &cost))
	require.NoError(t, err)
	assert.Nil(t, got.Tokens)
	require.NotNil(t, got.Cost)
	assert.InDelta(t, 0.5, *got.Cost, 1e-9)

	_, err = p.Parse(Object(nil, nil))
	assert.Error(t, err)
}

func TestParse_Idempotence(t *testing.T) {
	p := fixtureParser()

	first, err := p.Parse(String("1.5m"))
	require.NoError(t, err)
	require.NotNil(t, first.Tokens)

	second, err := p.Parse(Number(float64(*first.Tokens)))
	require.NoError(t, err)
	require.NotNil(t, second.Tokens)
	assert.Equal(t, *first.Tokens, *second.Tokens)
}

func TestFromAny(t *testing.T) {
	expr, err := FromAny(100)
	require.NoError(t, err)
	assert.Equal(t, KindNumber, expr.Kind)

	expr, err = FromAny("10k")
	require.NoError(t, err)
	assert.Equal(t, KindString, expr.Kind)

	expr, err = FromAny(map[string]any{"tokens": 1000, "cost": "$0.01"})
	require.NoError(t, err)
	assert.Equal(t, KindObject, expr.Kind)
	require.NotNil(t, expr.Tokens)
	require.NotNil(t, expr.Cost)

	_, err = FromAny(map[string]any{"budget": 1000})
	assert.ErrorContains(t, err, "budget")

	_, err = FromAny(map[string]any{})
	assert.Error(t, err)

	_, err = FromAny([]string{"1k"})
	assert.Error(t, err)
}
