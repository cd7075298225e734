// Package runner executes configured checks: collect file contents, count
// tokens, price them, and compare against parsed limits.
package runner

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/everstacklabs/tokengate/internal/content"
	"github.com/everstacklabs/tokengate/internal/limit"
)

// DefaultWarnThreshold flags checks that pass but sit above this fraction
// of their limit.
const DefaultWarnThreshold = 0.8

// Check is one configured unit of work.
type Check struct {
	Name          string
	Paths         []string
	Model         string
	Limit         *limit.Expression
	WarnThreshold float64
	ShowCost      bool
}

func (c Check) displayName(idx int) string {
	if c.Name != "" {
		return c.Name
	}
	if len(c.Paths) > 0 {
		return strings.Join(c.Paths, ", ")
	}
	return fmt.Sprintf("check #%d", idx+1)
}

// TokenCounter counts tokens for text as the given model tokenizes it.
type TokenCounter interface {
	Count(ctx context.Context, text, model string) int
}

// ContentProvider returns matched file contents in deterministic order.
type ContentProvider interface {
	Collect(ctx context.Context, patterns []string) ([]content.File, error)
}

// Pricer derives a USD cost from a token count.
type Pricer interface {
	Cost(tokens int, model string) float64
}

// Runner wires the collaborators for check execution.
type Runner struct {
	content ContentProvider
	counter TokenCounter
	prices  Pricer
	limits  *limit.Parser
}

// New creates a Runner.
func New(content ContentProvider, counter TokenCounter, prices Pricer, limits *limit.Parser) *Runner {
	return &Runner{content: content, counter: counter, prices: prices, limits: limits}
}

// Run executes all checks concurrently and joins their results all-settled:
// no check's failure aborts a sibling, and results keep configuration
// order. Malformed limits are user misconfiguration and fail the whole run
// before any check executes.
func (r *Runner) Run(ctx context.Context, checks []Check) (*Summary, error) {
	parsed := make([]limit.Parsed, len(checks))
	for i, c := range checks {
		if c.Limit == nil {
			continue
		}
		pl, err := r.limits.Parse(*c.Limit)
		if err != nil {
			return nil, fmt.Errorf("check %q: %w", c.displayName(i), err)
		}
		parsed[i] = pl
	}

	results := make([]Result, len(checks))
	var wg sync.WaitGroup
	for i := range checks {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = r.runCheck(ctx, checks[i], parsed[i], i)
		}(i)
	}
	wg.Wait()

	s := &Summary{Results: results}
	for _, res := range results {
		if res.Failed() {
			s.Failed = true
			break
		}
	}
	return s, nil
}

func (r *Runner) runCheck(ctx context.Context, check Check, lim limit.Parsed, idx int) (res Result) {
	name := check.displayName(idx)

	// Any panic in a single check becomes a missed result; siblings are
	// unaffected.
	defer func() {
		if rec := recover(); rec != nil {
			res = missedResult(name, check.Model, fmt.Sprintf("check panicked: %v", rec))
		}
	}()

	files, err := r.content.Collect(ctx, check.Paths)
	if err != nil {
		return missedResult(name, check.Model, err.Error())
	}
	if len(files) == 0 {
		return missedResult(name, check.Model,
			fmt.Sprintf("no files matched %s", strings.Join(check.Paths, ", ")))
	}

	paths := make([]string, len(files))
	texts := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
		texts[i] = f.Text
	}

	res = Result{Name: name, Model: check.Model, Files: paths}
	res.TokenCount = r.counter.Count(ctx, strings.Join(texts, "\n"), check.Model)

	cost := r.prices.Cost(res.TokenCount, check.Model)
	if check.ShowCost || lim.Cost != nil {
		res.Cost = &cost
	}

	threshold := check.WarnThreshold
	if threshold <= 0 {
		threshold = DefaultWarnThreshold
	}

	if lim.Tokens != nil {
		res.TokenLimit = lim.Tokens
		passed := res.TokenCount <= *lim.Tokens
		res.Passed = &passed
		if passed && float64(res.TokenCount) >= threshold*float64(*lim.Tokens) {
			res.Warning = true
		}
	}
	if lim.Cost != nil {
		res.CostLimit = lim.Cost
		costPassed := cost <= *lim.Cost
		res.CostPassed = &costPassed
		if costPassed && cost >= threshold*(*lim.Cost) {
			res.Warning = true
		}
	}
	return res
}
