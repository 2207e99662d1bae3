// Package extract turns raw HTML from the grid telemetry page and the news listing into
// candidate field values. Every field is resolved by an ordered chain of independent
// strategies; the first strategy that yields a usable value wins. Nothing here performs
// I/O or returns errors: a field that no strategy can resolve is simply nil.
package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Strategy pulls one raw token for a field out of a page.
type Strategy interface {
	Name() string
	Find(html string) (raw string, ok bool)
}

// regexStrategy returns the first capture group of the first match in document order.
type regexStrategy struct {
	name string
	re   *regexp.Regexp
}

// Pattern builds a Strategy from a regular expression with one capture group.
// It panics on an invalid expression, so it is meant for package-level chains.
func Pattern(name, expr string) Strategy {
	return regexStrategy{name: name, re: regexp.MustCompile(expr)}
}

func (s regexStrategy) Name() string { return s.name }

func (s regexStrategy) Find(html string) (string, bool) {
	m := s.re.FindStringSubmatch(html)
	if len(m) < 2 || m[1] == "" {
		return "", false
	}
	return m[1], true
}

// Match records which strategy resolved a field and the token it matched.
type Match struct {
	Strategy string `json:"strategy"`
	Raw      string `json:"raw"`
}

// Chain is the fallback list for a single numeric field.
type Chain struct {
	Field      string
	Strategies []Strategy
}

// With returns a copy of the chain with s appended as the lowest priority strategy.
func (c Chain) With(s Strategy) Chain {
	strategies := make([]Strategy, 0, len(c.Strategies)+1)
	strategies = append(strategies, c.Strategies...)
	return Chain{Field: c.Field, Strategies: append(strategies, s)}
}

// Resolve walks the chain in order. A strategy whose token does not parse as a number
// counts as a miss and the next one is tried.
func (c Chain) Resolve(html string) (*float64, *Match) {
	for _, s := range c.Strategies {
		raw, ok := s.Find(html)
		if !ok {
			continue
		}
		value, ok := ParseNumber(raw)
		if !ok {
			continue
		}
		return &value, &Match{Strategy: s.Name(), Raw: raw}
	}
	return nil, nil
}

// ParseNumber parses a numeric token after removing thousands separators.
func ParseNumber(raw string) (float64, bool) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if cleaned == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}
