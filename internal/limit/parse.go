package limit

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Suffix multipliers for token strings. g and b are synonyms.
var suffixMultipliers = map[string]float64{
	"":  1,
	"k": 1e3,
	"m": 1e6,
	"b": 1e9,
	"g": 1e9,
	"t": 1e12,
}

var (
	dollarPattern      = regexp.MustCompile(`^\$(\d+(?:\.\d+)?)$`)
	centsSuffixPattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)c$`)
	centsWordPattern   = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*cents?$`)
	dollarWordPattern  = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*dollars?$`)
	barePattern        = regexp.MustCompile(`^(\d+(?:\.\d+)?)$`)
	tokenPattern       = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([kmbgt])?$`)
)

func (p *Parser) parseString(raw string) (Parsed, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if isCostString(s) {
		cost, err := parseCostString(raw, s)
		if err != nil {
			return Parsed{}, err
		}
		return Parsed{Cost: &cost}, nil
	}
	tokens, err := p.parseTokenString(raw, s)
	if err != nil {
		return Parsed{}, err
	}
	return Parsed{Tokens: &tokens}, nil
}

// isCostString reports whether a normalized string carries a currency
// marker: a dollar sign, a standalone trailing c, or the words cent(s)
// or dollar(s).
func isCostString(s string) bool {
	return strings.Contains(s, "$") ||
		centsSuffixPattern.MatchString(s) ||
		strings.Contains(s, "cent") ||
		strings.Contains(s, "dollar")
}

// parseCostString tries the currency patterns in a fixed order; the first
// match wins. Cents-family amounts are divided by 100 to yield dollars.
func parseCostString(raw, s string) (float64, error) {
	patterns := []struct {
		re    *regexp.Regexp
		cents bool
	}{
		{dollarPattern, false},
		{centsSuffixPattern, true},
		{centsWordPattern, true},
		{dollarWordPattern, false},
		{barePattern, false},
	}
	for _, pat := range patterns {
		m := pat.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		amount, err := strconv.ParseFloat(m[1], 64)
		if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
			break
		}
		if pat.cents {
			amount /= 100
		}
		return amount, nil
	}
	return 0, fmt.Errorf("invalid cost limit %q: expected formats like \"$0.50\", \"50c\", \"50 cents\", or \"1 dollar\"", raw)
}

// parseTokenString resolves a registered model name to its context window,
// or applies the <number>[kmbgt] grammar.
func (p *Parser) parseTokenString(raw, s string) (int, error) {
	if cfg, ok := p.reg.Lookup(s); ok {
		if cfg.ContextWindow > 0 {
			return cfg.ContextWindow, nil
		}
		return 0, fmt.Errorf("invalid token limit %q: model %s has no known context window", raw, cfg.Name)
	}
	m := tokenPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid token limit %q: expected a number, a suffixed size like \"100k\" or \"1.5m\", or a known model name", raw)
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid token limit %q: %w", raw, err)
	}
	tokens := value * suffixMultipliers[m[2]]
	// Out-of-range float to int conversion is undefined; fail instead of
	// producing a garbage limit.
	if tokens >= math.MaxInt64 {
		return 0, fmt.Errorf("invalid token limit %q: value is too large", raw)
	}
	return int(math.Floor(tokens)), nil
}
