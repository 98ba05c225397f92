package rules

import (
	"regexp"
	"strings"

	"github.com/vendorlens/vendorlens/internal/core/domain"
)

// genericPattern catches "Label: 123 unit" and "Label = 123 unit" lines
// that no domain rule claimed. Low confidence by design.
var genericPattern = regexp.MustCompile(`(?m)^\s*([A-Za-z][A-Za-z0-9 .\-/()+]{2,48}?)\s*[:=]\s*([-+]?\d[\d,]*\.?\d*)\s*([A-Za-zµ%][A-Za-z/%]{0,11})?\s*$`)

const patternConfidence = 0.5

// ExtractPatterns is the generic fallback extraction source.
func ExtractPatterns(blocks []domain.TextBlock) []domain.ExtractionCandidate {
	var out []domain.ExtractionCandidate
	for _, block := range blocks {
		for _, m := range genericPattern.FindAllStringSubmatch(block.Text, -1) {
			label := strings.TrimSpace(m[1])
			value, ok := parseNumber(m[2])
			if !ok || label == "" {
				continue
			}
			unit := ""
			if m[3] != "" {
				unit = NormalizeUnitToken(m[3])
			}
			out = append(out, domain.ExtractionCandidate{
				Label:         strings.ToLower(label),
				Value:         domain.NumberValue(value),
				Unit:          unit,
				Confidence:    patternConfidence,
				SourceContext: strings.TrimSpace(m[0]),
				PageRef:       block.Page,
				Method:        domain.MethodPattern,
			})
		}
	}
	return out
}
