package normalize

import (
	"math"
	"regexp"
	"strings"
)

// Composite confidence weights. They sum to 1.0.
const (
	weightExtractionMethod = 0.30
	weightUnitConversion   = 0.20
	weightContextClarity   = 0.15
	weightDomainRelevance  = 0.25
	weightPatternMatch     = 0.10

	failedConversionFactor = 0.6
	lowConfidenceThreshold = 0.5
)

var numberThenLetters = regexp.MustCompile(`\d+\s*[A-Za-zµ%]`)

type confidenceFactors struct {
	extractionMethod    float64
	unitConversion      float64
	contextClarity      float64
	domainRelevance     float64
	patternMatchQuality float64
}

func (f confidenceFactors) compose() float64 {
	overall := weightExtractionMethod*f.extractionMethod +
		weightUnitConversion*f.unitConversion +
		weightContextClarity*f.contextClarity +
		weightDomainRelevance*f.domainRelevance +
		weightPatternMatch*f.patternMatchQuality
	return math.Round(overall*1000) / 1000
}

// methodFactor buckets the raw candidate confidence so near-certain
// sources don't dominate the composite.
func methodFactor(raw float64) float64 {
	switch {
	case raw >= 0.95:
		return 0.95
	case raw >= 0.9:
		return 0.9
	case raw >= 0.8:
		return 0.85
	default:
		return clamp01(raw)
	}
}

func contextFactor(sourceContext string) float64 {
	length := len(sourceContext)
	switch {
	case length > 50:
		return 0.9
	case length > 20:
		return 0.8
	default:
		return 0.7
	}
}

func relevanceFactor(known, required bool) float64 {
	switch {
	case required:
		return 0.95
	case known:
		return 0.85
	default:
		return 0.6
	}
}

func patternFactor(sourceContext string) float64 {
	if strings.ContainsAny(sourceContext, ":=") {
		return 0.9
	}
	if numberThenLetters.MatchString(sourceContext) {
		return 0.85
	}
	return 0.75
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
