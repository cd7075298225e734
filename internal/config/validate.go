package config

import (
	"fmt"
	"strings"

	"github.com/everstacklabs/tokengate/internal/limit"
	"github.com/everstacklabs/tokengate/internal/registry"
)

// Severity classifies validation issues.
type Severity int

const (
	SeverityError   Severity = iota // Blocks the run
	SeverityWarning                 // Reported but doesn't block
)

// Issue represents a single validation problem.
type Issue struct {
	Severity Severity
	Check    string
	Field    string
	Message  string
}

func (i Issue) String() string {
	sev := "ERROR"
	if i.Severity == SeverityWarning {
		sev = "WARN"
	}
	return fmt.Sprintf("[%s] %s: %s — %s", sev, i.Check, i.Field, i.Message)
}

// Result holds all validation issues.
type Result struct {
	Issues []Issue
}

// HasErrors returns true if there are any blocking errors.
func (r *Result) HasErrors() bool {
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns only error-severity issues.
func (r *Result) Errors() []Issue {
	var errs []Issue
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			errs = append(errs, i)
		}
	}
	return errs
}

// Warnings returns only warning-severity issues.
func (r *Result) Warnings() []Issue {
	var warns []Issue
	for _, i := range r.Issues {
		if i.Severity == SeverityWarning {
			warns = append(warns, i)
		}
	}
	return warns
}

// Validate checks every configured check descriptor. Unknown models are
// warnings (the tool degrades to a fallback tokenizer); structural
// problems and malformed limits are errors.
func Validate(cfg *Config, reg *registry.Registry) *Result {
	r := &Result{}

	if len(cfg.Checks) == 0 {
		r.Issues = append(r.Issues, Issue{SeverityError, "config", "checks",
			"at least one check is required"})
		return r
	}

	seen := make(map[string]bool)
	for i, c := range cfg.Checks {
		name := c.DisplayName(i)

		if _, err := c.Paths(); err != nil {
			r.Issues = append(r.Issues, Issue{SeverityError, name, "path", err.Error()})
		}

		if c.WarnThreshold < 0 || c.WarnThreshold > 1 {
			r.Issues = append(r.Issues, Issue{SeverityError, name, "warn_threshold",
				fmt.Sprintf("value %v outside range [0, 1]", c.WarnThreshold)})
		}

		if c.Limit != nil {
			expr, err := limit.FromAny(c.Limit)
			switch {
			case err != nil:
				r.Issues = append(r.Issues, Issue{SeverityError, name, "limit", err.Error()})
			case expr.Kind == limit.KindNumber && expr.Number <= 0:
				r.Issues = append(r.Issues, Issue{SeverityError, name, "limit",
					fmt.Sprintf("value %v must be greater than zero", expr.Number)})
			}
		}

		model := c.Model
		if model == "" {
			model = cfg.Model
		}
		if model != "" {
			if _, ok := reg.Lookup(model); !ok {
				if _, ok := reg.DetectProvider(model); !ok {
					r.Issues = append(r.Issues, Issue{SeverityWarning, name, "model",
						fmt.Sprintf("unknown model %q, the default tokenizer will be used", model)})
				}
			}
		}

		if seen[name] {
			r.Issues = append(r.Issues, Issue{SeverityWarning, name, "name", "duplicate check name"})
		}
		seen[name] = true
	}

	return r
}

// FormatResult formats validation results for display.
func FormatResult(r *Result) string {
	if len(r.Issues) == 0 {
		return "Configuration valid: no issues found."
	}

	var b strings.Builder
	errors := r.Errors()
	warnings := r.Warnings()

	if len(errors) > 0 {
		b.WriteString(fmt.Sprintf("Errors (%d):\n", len(errors)))
		for _, e := range errors {
			b.WriteString(fmt.Sprintf("  %s\n", e))
		}
	}
	if len(warnings) > 0 {
		b.WriteString(fmt.Sprintf("Warnings (%d):\n", len(warnings)))
		for _, w := range warnings {
			b.WriteString(fmt.Sprintf("  %s\n", w))
		}
	}
	return b.String()
}
