package runner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everstacklabs/tokengate/internal/content"
	"github.com/everstacklabs/tokengate/internal/limit"
	"github.com/everstacklabs/tokengate/internal/registry"
)

type stubContent struct {
	files []content.File
	err   error
}

func (s *stubContent) Collect(ctx context.Context, patterns []string) ([]content.File, error) {
	return s.files, s.err
}

type stubCounter struct {
	tokens int
	panics bool
}

func (s *stubCounter) Count(ctx context.Context, text, model string) int {
	if s.panics {
		panic("counter exploded")
	}
	return s.tokens
}

type stubPricer struct {
	cost float64
}

func (s *stubPricer) Cost(tokens int, model string) float64 { return s.cost }

func fixtureParser() *limit.Parser {
	return limit.NewParser(registry.New([]*registry.ModelConfig{
		{Name: "gpt-4o", Provider: "openai", ContextWindow: 128000},
	}))
}

func oneFile() *stubContent {
	return &stubContent{files: []content.File{{Path: "doc.md", Text: "hello"}}}
}

func limitExpr(t *testing.T, v any) *limit.Expression {
	t.Helper()
	expr, err := limit.FromAny(v)
	require.NoError(t, err)
	return &expr
}

func TestRun_TokenLimitPass(t *testing.T) {
	r := New(oneFile(), &stubCounter{tokens: 50}, &stubPricer{}, fixtureParser())

	summary, err := r.Run(context.Background(), []Check{
		{Name: "docs", Paths: []string{"*.md"}, Model: "gpt-4o", Limit: limitExpr(t, 100)},
	})
	require.NoError(t, err)
	require.Len(t, summary.Results, 1)

	res := summary.Results[0]
	assert.Equal(t, 50, res.TokenCount)
	require.NotNil(t, res.Passed)
	assert.True(t, *res.Passed)
	assert.False(t, res.Warning)
	assert.False(t, summary.Failed)
	assert.Nil(t, res.Cost, "cost hidden unless requested or limited")
}

func TestRun_TokenLimitFail(t *testing.T) {
	r := New(oneFile(), &stubCounter{tokens: 50}, &stubPricer{}, fixtureParser())

	summary, err := r.Run(context.Background(), []Check{
		{Name: "docs", Paths: []string{"*.md"}, Model: "gpt-4o", Limit: limitExpr(t, 40)},
	})
	require.NoError(t, err)

	res := summary.Results[0]
	require.NotNil(t, res.Passed)
	assert.False(t, *res.Passed)
	assert.True(t, res.Failed())
	assert.True(t, summary.Failed)
}

func TestRun_CombinedLimit(t *testing.T) {
	// Token ceiling holds, cost ceiling is exceeded: the check fails.
	r := New(oneFile(), &stubCounter{tokens: 500}, &stubPricer{cost: 0.02}, fixtureParser())

	summary, err := r.Run(context.Background(), []Check{
		{
			Name:  "docs",
			Paths: []string{"*.md"},
			Model: "gpt-4o",
			Limit: limitExpr(t, map[string]any{"tokens": 1000, "cost": 0.01}),
		},
	})
	require.NoError(t, err)

	res := summary.Results[0]
	require.NotNil(t, res.Passed)
	require.NotNil(t, res.CostPassed)
	assert.True(t, *res.Passed)
	assert.False(t, *res.CostPassed)
	assert.True(t, res.Failed())
	require.NotNil(t, res.Cost)
	assert.InDelta(t, 0.02, *res.Cost, 1e-9)
}

func TestRun_MalformedLimitFailsWholeRun(t *testing.T) {
	r := New(oneFile(), &stubCounter{tokens: 1}, &stubPricer{}, fixtureParser())

	expr := limit.String("abc")
	summary, err := r.Run(context.Background(), []Check{
		{Name: "good", Paths: []string{"*.md"}, Model: "gpt-4o", Limit: limitExpr(t, 100)},
		{Name: "bad", Paths: []string{"*.md"}, Model: "gpt-4o", Limit: &expr},
	})
	require.Error(t, err)
	assert.ErrorContains(t, err, "bad")
	assert.Nil(t, summary)
}

func TestRun_NoLimitIsInformational(t *testing.T) {
	r := New(oneFile(), &stubCounter{tokens: 123}, &stubPricer{cost: 0.5}, fixtureParser())

	summary, err := r.Run(context.Background(), []Check{
		{Name: "docs", Paths: []string{"*.md"}, Model: "gpt-4o", ShowCost: true},
	})
	require.NoError(t, err)

	res := summary.Results[0]
	assert.Equal(t, 123, res.TokenCount)
	assert.Nil(t, res.Passed)
	assert.Nil(t, res.CostPassed)
	assert.False(t, res.Failed())
	require.NotNil(t, res.Cost, "ShowCost includes cost even without a limit")
	assert.False(t, summary.Failed)
}

func TestRun_NoFilesIsMissed(t *testing.T) {
	r := New(&stubContent{}, &stubCounter{tokens: 1}, &stubPricer{}, fixtureParser())

	summary, err := r.Run(context.Background(), []Check{
		{Name: "docs", Paths: []string{"*.nope"}, Model: "gpt-4o"},
	})
	require.NoError(t, err)

	res := summary.Results[0]
	assert.True(t, res.Missed)
	assert.Contains(t, res.Message, "*.nope")
	assert.True(t, res.Failed())
	assert.True(t, summary.Failed)
}

func TestRun_CollectErrorIsMissed(t *testing.T) {
	r := New(&stubContent{err: errors.New("walk failed")},
		&stubCounter{tokens: 1}, &stubPricer{}, fixtureParser())

	summary, err := r.Run(context.Background(), []Check{
		{Name: "docs", Paths: []string{"*.md"}, Model: "gpt-4o"},
	})
	require.NoError(t, err)
	assert.True(t, summary.Results[0].Missed)
	assert.True(t, summary.Failed)
}

func TestRun_PanicBecomesMissed(t *testing.T) {
	r := New(oneFile(), &stubCounter{panics: true}, &stubPricer{}, fixtureParser())

	summary, err := r.Run(context.Background(), []Check{
		{Name: "docs", Paths: []string{"*.md"}, Model: "gpt-4o"},
		{Name: "other", Paths: []string{"*.md"}, Model: "gpt-4o"},
	})
	require.NoError(t, err)
	require.Len(t, summary.Results, 2)

	// Both checks share the panicking counter; both settle as missed
	// rather than crashing the run.
	for _, res := range summary.Results {
		assert.True(t, res.Missed)
		assert.Contains(t, res.Message, "panicked")
	}
	assert.True(t, summary.Failed)
}

func TestRun_WarningThreshold(t *testing.T) {
	// 85 of 100 tokens exceeds the default 0.8 threshold.
	r := New(oneFile(), &stubCounter{tokens: 85}, &stubPricer{}, fixtureParser())

	summary, err := r.Run(context.Background(), []Check{
		{Name: "default", Paths: []string{"*.md"}, Model: "gpt-4o", Limit: limitExpr(t, 100)},
		{Name: "relaxed", Paths: []string{"*.md"}, Model: "gpt-4o", Limit: limitExpr(t, 100), WarnThreshold: 0.9},
	})
	require.NoError(t, err)

	byName := map[string]Result{}
	for _, res := range summary.Results {
		byName[res.Name] = res
	}
	assert.True(t, byName["default"].Warning)
	assert.False(t, byName["relaxed"].Warning)
	assert.False(t, summary.Failed)
}

func TestRun_ResultsKeepConfigurationOrder(t *testing.T) {
	r := New(oneFile(), &stubCounter{tokens: 1}, &stubPricer{}, fixtureParser())

	checks := []Check{
		{Name: "first", Paths: []string{"*.md"}, Model: "gpt-4o"},
		{Name: "second", Paths: []string{"*.md"}, Model: "gpt-4o"},
		{Name: "third", Paths: []string{"*.md"}, Model: "gpt-4o"},
	}
	summary, err := r.Run(context.Background(), checks)
	require.NoError(t, err)
	require.Len(t, summary.Results, 3)
	for i, c := range checks {
		assert.Equal(t, c.Name, summary.Results[i].Name)
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "named", Check{Name: "named"}.displayName(0))
	assert.Equal(t, "a.md, b.md", Check{Paths: []string{"a.md", "b.md"}}.displayName(0))
	assert.Equal(t, "check #3", Check{}.displayName(2))
}
