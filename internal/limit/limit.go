// Package limit parses human-authored budget expressions — bare numbers,
// suffixed sizes ("1.5m"), currency strings ("$0.50", "50c"), model names
// standing in for their context window, and combined {tokens, cost}
// objects — into canonical numeric ceilings.
package limit

import (
	"fmt"
	"math"

	"github.com/everstacklabs/tokengate/internal/registry"
)

// Kind discriminates the expression variants.
type Kind int

const (
	KindNumber Kind = iota
	KindString
	KindObject
)

// Expression is the raw, pre-parse form of a limit. Exactly one variant is
// populated according to Kind; the object form holds independent token and
// cost sub-expressions.
type Expression struct {
	Kind   Kind
	Number float64
	String string
	Tokens *Expression
	Cost   *Expression
}

// Number builds a numeric expression (interpreted as a token count).
func Number(v float64) Expression {
	return Expression{Kind: KindNumber, Number: v}
}

// String builds a string expression.
func String(s string) Expression {
	return Expression{Kind: KindString, String: s}
}

// Object builds a combined expression; either part may be nil.
func Object(tokens, cost *Expression) Expression {
	return Expression{Kind: KindObject, Tokens: tokens, Cost: cost}
}

// FromAny converts a decoded configuration value into an Expression.
// Config loaders hand back untyped numbers, strings, or maps with
// "tokens" and/or "cost" keys.
func FromAny(v any) (Expression, error) {
	switch t := v.(type) {
	case int:
		return Number(float64(t)), nil
	case int32:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case uint64:
		return Number(float64(t)), nil
	case float32:
		return Number(float64(t)), nil
	case float64:
		return Number(t), nil
	case string:
		return String(t), nil
	case map[string]any:
		return objectFromMap(t)
	default:
		return Expression{}, fmt.Errorf("invalid limit %v: expected a number, a string, or an object with tokens/cost keys", v)
	}
}

func objectFromMap(m map[string]any) (Expression, error) {
	var tokens, cost *Expression
	for key, raw := range m {
		switch key {
		case "tokens", "cost":
			sub, err := FromAny(raw)
			if err != nil {
				return Expression{}, fmt.Errorf("limit key %q: %w", key, err)
			}
			if key == "tokens" {
				tokens = &sub
			} else {
				cost = &sub
			}
		default:
			return Expression{}, fmt.Errorf("invalid limit key %q: only tokens and cost are allowed", key)
		}
	}
	if tokens == nil && cost == nil {
		return Expression{}, fmt.Errorf("invalid limit object: at least one of tokens or cost is required")
	}
	return Object(tokens, cost), nil
}

// Parsed is the canonical limit. A nil field means no ceiling of that kind.
// Every populated value is non-negative and finite.
type Parsed struct {
	Tokens *int
	Cost   *float64
}

// Parser resolves expressions against a model registry (for
// model-name-as-limit context window lookups).
type Parser struct {
	reg *registry.Registry
}

// NewParser creates a parser over the given registry.
func NewParser(reg *registry.Registry) *Parser {
	return &Parser{reg: reg}
}

// Parse normalizes an expression into token and cost ceilings. Unparseable
// input fails with an error naming the offending literal; it never guesses.
func (p *Parser) Parse(expr Expression) (Parsed, error) {
	switch expr.Kind {
	case KindObject:
		return p.parseObject(expr)
	case KindNumber:
		tokens, err := parseNumber(expr.Number)
		if err != nil {
			return Parsed{}, err
		}
		return Parsed{Tokens: &tokens}, nil
	case KindString:
		return p.parseString(expr.String)
	default:
		return Parsed{}, fmt.Errorf("invalid limit expression kind %d", expr.Kind)
	}
}

// parseObject parses each present key independently and merges the results,
// so token and cost ceilings can be set simultaneously.
func (p *Parser) parseObject(expr Expression) (Parsed, error) {
	var out Parsed
	if expr.Tokens != nil {
		sub, err := p.Parse(*expr.Tokens)
		if err != nil {
			return Parsed{}, err
		}
		merge(&out, sub)
	}
	if expr.Cost != nil {
		sub, err := p.Parse(*expr.Cost)
		if err != nil {
			return Parsed{}, err
		}
		merge(&out, sub)
	}
	if out.Tokens == nil && out.Cost == nil {
		return Parsed{}, fmt.Errorf("invalid limit object: at least one of tokens or cost is required")
	}
	return out, nil
}

func merge(dst *Parsed, src Parsed) {
	if src.Tokens != nil {
		dst.Tokens = src.Tokens
	}
	if src.Cost != nil {
		dst.Cost = src.Cost
	}
}

func parseNumber(v float64) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("invalid token limit %v: must be a non-negative finite number", v)
	}
	if v >= math.MaxInt64 {
		return 0, fmt.Errorf("invalid token limit %v: value is too large", v)
	}
	return int(math.Floor(v)), nil
}
