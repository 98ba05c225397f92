package rules

import (
	"regexp"
	"strings"

	"github.com/vendorlens/vendorlens/internal/core/domain"
	"github.com/vendorlens/vendorlens/internal/profile"
)

var rangePattern = regexp.MustCompile(`([-+]?\d[\d,]*\.?\d*)\s*([A-Za-zµ%][A-Za-z/%]{0,11})?\s*(?:to|–|-|\.\.)\s*([-+]?\d[\d,]*\.?\d*)\s*([A-Za-zµ%][A-Za-z/%]{0,11})?`)

const heuristicConfidence = 0.7

// ExtractHeuristics resolves "X to Y" ranges into a single value per the
// profile's range rules (min, typ or max) and detects boolean feature
// mentions near field synonyms. It only claims labels the profile knows.
func ExtractHeuristics(p *profile.Profile, blocks []domain.TextBlock) []domain.ExtractionCandidate {
	var out []domain.ExtractionCandidate
	for field, rule := range p.RangeRules {
		synonyms := fieldTerms(p, field)
		for _, block := range blocks {
			lower := strings.ToLower(block.Text)
			idx := indexAny(lower, synonyms)
			if idx < 0 {
				continue
			}
			window := block.Text[idx:]
			if len(window) > 160 {
				window = window[:160]
			}
			m := rangePattern.FindStringSubmatch(window)
			if m == nil {
				continue
			}
			candidate, ok := rangeCandidate(field, rule, m, block.Page)
			if ok {
				out = append(out, candidate)
			}
		}
	}
	out = append(out, boolCandidates(p, blocks)...)
	return out
}

func rangeCandidate(field, rule string, m []string, page int) (domain.ExtractionCandidate, bool) {
	low, okLow := parseNumber(m[1])
	high, okHigh := parseNumber(m[3])
	if !okLow || !okHigh {
		return domain.ExtractionCandidate{}, false
	}
	if low > high {
		low, high = high, low
	}

	value := high
	switch rule {
	case "min":
		value = low
	case "typ":
		value = (low + high) / 2
	}

	unit := m[4]
	if unit == "" {
		unit = m[2]
	}
	if unit != "" {
		unit = NormalizeUnitToken(unit)
	}

	return domain.ExtractionCandidate{
		Label:         field,
		Value:         domain.NumberValue(value),
		Unit:          unit,
		Confidence:    heuristicConfidence,
		SourceContext: strings.TrimSpace(m[0]),
		PageRef:       page,
		Method:        domain.MethodHeuristic,
	}, true
}

// boolCandidates flags boolean fields mentioned as supported/included.
func boolCandidates(p *profile.Profile, blocks []domain.TextBlock) []domain.ExtractionCandidate {
	var out []domain.ExtractionCandidate
	for _, f := range p.ActiveFields {
		if !strings.HasSuffix(f.Field, "_support") && !strings.HasPrefix(f.Field, "encryption") {
			continue
		}
		terms := fieldTerms(p, f.Field)
		for _, block := range blocks {
			lower := strings.ToLower(block.Text)
			idx := indexAny(lower, terms)
			if idx < 0 {
				continue
			}
			window := lower[idx:]
			if len(window) > 120 {
				window = window[:120]
			}
			supported := strings.Contains(window, "supported") ||
				strings.Contains(window, "included") ||
				strings.Contains(window, "available") ||
				strings.Contains(window, "enabled")
			negated := strings.Contains(window, "not supported") ||
				strings.Contains(window, "not available") ||
				strings.Contains(window, "not included")
			if !supported && !negated {
				continue
			}
			out = append(out, domain.ExtractionCandidate{
				Label:         f.Field,
				Value:         domain.BoolValue(supported && !negated),
				Confidence:    heuristicConfidence,
				SourceContext: strings.TrimSpace(window),
				PageRef:       block.Page,
				Method:        domain.MethodHeuristic,
			})
			break
		}
	}
	return out
}

func fieldTerms(p *profile.Profile, field string) []string {
	terms := []string{strings.ReplaceAll(field, "_", " ")}
	for _, syn := range p.FieldSynonyms[field] {
		terms = append(terms, strings.ToLower(syn))
	}
	return terms
}

func indexAny(haystack string, needles []string) int {
	best := -1
	for _, needle := range needles {
		if idx := strings.Index(haystack, needle); idx >= 0 && (best < 0 || idx < best) {
			best = idx
		}
	}
	return best
}
