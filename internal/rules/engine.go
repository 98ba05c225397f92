// Package rules implements the deterministic extraction sources: static
// per-domain regex rules, domain heuristics, a generic label:value pattern
// fallback and table-cell extraction.
package rules

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/vendorlens/vendorlens/internal/core/domain"
	"github.com/vendorlens/vendorlens/internal/normalize"
)

// Rule binds a profile field to a regex. The first capture group is the
// value; an optional second group captures a unit that overrides the
// rule's static unit (context-dependent unit inference).
type Rule struct {
	Field          string
	Pattern        *regexp.Regexp
	BaseConfidence float64
	Unit           string
}

type Engine struct {
	byDomain map[string][]Rule
}

func NewEngine() *Engine {
	return &Engine{byDomain: domainRules()}
}

// Extract runs every rule for the domain against every text block. Each
// match yields one candidate; a rule that matches nothing stays silent.
func (e *Engine) Extract(dom string, blocks []domain.TextBlock) []domain.ExtractionCandidate {
	rules := e.byDomain[dom]
	var out []domain.ExtractionCandidate
	for _, block := range blocks {
		for _, rule := range rules {
			matches := rule.Pattern.FindAllStringSubmatch(block.Text, -1)
			for _, m := range matches {
				candidate, ok := candidateFromMatch(rule, m, block)
				if ok {
					out = append(out, candidate)
				}
			}
		}
	}
	return out
}

func candidateFromMatch(rule Rule, m []string, block domain.TextBlock) (domain.ExtractionCandidate, bool) {
	if len(m) < 2 {
		return domain.ExtractionCandidate{}, false
	}
	raw := strings.TrimSpace(m[1])
	value, ok := parseNumber(raw)
	if !ok {
		return domain.ExtractionCandidate{}, false
	}

	unit := rule.Unit
	if len(m) > 2 && strings.TrimSpace(m[2]) != "" {
		unit = NormalizeUnitToken(m[2])
	}

	context := strings.TrimSpace(m[0])
	return domain.ExtractionCandidate{
		Label:         rule.Field,
		Value:         domain.NumberValue(value),
		Unit:          unit,
		Confidence:    rule.BaseConfidence,
		SourceContext: context,
		PageRef:       block.Page,
		Method:        domain.MethodRule,
	}, true
}

func parseNumber(raw string) (float64, bool) {
	cleaned := strings.ReplaceAll(raw, ",", "")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// NormalizeUnitToken maps captured unit spellings onto the conversion-table
// vocabulary (µA vs uA, req/minute vs req/min, and so on).
func NormalizeUnitToken(raw string) string {
	token := strings.TrimSpace(raw)
	token = strings.ReplaceAll(token, "µ", "u")
	switch strings.ToLower(token) {
	case "requests/minute", "req/minute", "requests per minute", "rpm":
		return "req/min"
	case "requests/second", "req/second", "requests per second", "rps":
		return "req/s"
	case "requests/hour", "req/hour", "requests per hour", "rph":
		return "req/hr"
	case "hours", "hour", "h":
		return "hr"
	case "days", "day":
		return "days"
	case "percent":
		return "%"
	case "$", "usd":
		return "USD"
	case "eur", "€":
		return "EUR"
	}
	// Rules capture units case-insensitively; fold the spelling onto the
	// conversion-table vocabulary so "mv" and "mhz" still convert.
	return normalize.CanonicalUnit(token)
}
