// Package classify scores document text against each domain profile's
// keyword sets and picks the best-matching domain.
package classify

import (
	"regexp"
	"sort"
	"strings"

	"github.com/vendorlens/vendorlens/internal/core/domain"
	"github.com/vendorlens/vendorlens/internal/profile"
)

const (
	MethodKeywordAnalysis  = "keyword_analysis"
	MethodFilenameBoosted  = "filename_boosted"
	MethodFilenameOverride = "filename_override"
	MethodFallback         = "fallback"

	confidenceFloor    = 0.6
	ambiguityMargin    = 0.3
	scoreDenominator   = 0.3
	fallbackConfidence = 0.1
	filenameBoost      = 0.2
)

type Classifier struct {
	registry *profile.Registry
	patterns map[string][]*regexp.Regexp
}

func New(registry *profile.Registry) (*Classifier, error) {
	patterns := make(map[string][]*regexp.Regexp)
	for _, dom := range registry.Domains() {
		p, err := registry.Active(dom)
		if err != nil {
			return nil, err
		}
		for _, raw := range p.FilenamePatterns {
			re, err := regexp.Compile(raw)
			if err != nil {
				return nil, err
			}
			patterns[dom] = append(patterns[dom], re)
		}
	}
	return &Classifier{registry: registry, patterns: patterns}, nil
}

type domainScore struct {
	domain   string
	score    int
	evidence domain.ClassificationEvidence
}

// Classify combines content keyword scoring with filename pattern hints.
// The filename signal boosts an agreeing content classification by 0.2
// (capped at 1.0) and overrides a disagreeing one only when the filename
// classifier alone is more confident.
func (c *Classifier) Classify(parse *domain.ParseResult, filename string) domain.DomainClassification {
	text := collectText(parse)
	result := c.classifyContent(text)

	fnDomain, fnConfidence := c.classifyFilename(filename)
	if fnDomain == "" {
		return result
	}

	if fnDomain == result.Domain {
		result.Confidence = capConfidence(result.Confidence + filenameBoost)
		if result.Method == MethodKeywordAnalysis {
			result.Method = MethodFilenameBoosted
		}
		result.RequiresConfirmation = result.Confidence < confidenceFloor
		return result
	}

	if fnConfidence > result.Confidence {
		result.Domain = fnDomain
		result.Confidence = fnConfidence
		result.Method = MethodFilenameOverride
		result.RequiresConfirmation = result.Confidence < confidenceFloor
	}
	return result
}

func (c *Classifier) classifyContent(text string) domain.DomainClassification {
	scores := make([]domainScore, 0, len(c.registry.Domains()))
	for _, dom := range c.registry.Domains() {
		p, err := c.registry.Active(dom)
		if err != nil {
			continue
		}
		scores = append(scores, scoreProfile(dom, p, text))
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	if len(scores) == 0 || scores[0].score <= 0 {
		return domain.DomainClassification{
			Domain:               c.registry.FallbackDomain(),
			Confidence:           fallbackConfidence,
			Method:               MethodFallback,
			AlternativeDomains:   []string{},
			RequiresConfirmation: true,
			Evidence:             emptyEvidence(),
		}
	}

	top := scores[0]
	maxPossible := float64(c.registry.MaxPossibleScore())
	confidence := float64(top.score) / (maxPossible * scoreDenominator)
	confidence = capConfidence(confidence)

	ambiguous := false
	if len(scores) > 1 && scores[1].score > 0 {
		margin := float64(top.score-scores[1].score) / float64(top.score)
		ambiguous = margin < ambiguityMargin
	}

	alternatives := []string{}
	for _, s := range scores[1:] {
		if s.score > 0 && len(alternatives) < 3 {
			alternatives = append(alternatives, s.domain)
		}
	}

	return domain.DomainClassification{
		Domain:               top.domain,
		Confidence:           confidence,
		Method:               MethodKeywordAnalysis,
		AlternativeDomains:   alternatives,
		RequiresConfirmation: confidence < confidenceFloor || ambiguous,
		Evidence:             top.evidence,
	}
}

func scoreProfile(dom string, p *profile.Profile, text string) domainScore {
	evidence := emptyEvidence()
	score := 0

	for _, kw := range p.PrimaryKeywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			score += 3
			evidence.PrimaryMatches = append(evidence.PrimaryMatches, kw)
		}
	}
	for _, kw := range p.SecondaryKeywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			score++
			evidence.SecondaryMatches = append(evidence.SecondaryMatches, kw)
		}
	}
	for _, section := range p.PrioritySections {
		if strings.Contains(text, strings.ToLower(section)) {
			score += 2
			evidence.SectionMatches = append(evidence.SectionMatches, section)
		}
	}
	for _, kw := range p.NegativeKeywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			score -= 2
			evidence.NegativeMatches = append(evidence.NegativeMatches, kw)
		}
	}
	if score < 0 {
		score = 0
	}
	return domainScore{domain: dom, score: score, evidence: evidence}
}

// classifyFilename returns the best filename-pattern domain and a
// confidence grown by additional pattern hits.
func (c *Classifier) classifyFilename(filename string) (string, float64) {
	if filename == "" {
		return "", 0
	}
	bestDomain := ""
	bestConfidence := 0.0
	for _, dom := range c.registry.Domains() {
		hits := 0
		for _, re := range c.patterns[dom] {
			if re.MatchString(filename) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		confidence := 0.5 + 0.2*float64(hits-1)
		if confidence > 0.9 {
			confidence = 0.9
		}
		if confidence > bestConfidence {
			bestDomain = dom
			bestConfidence = confidence
		}
	}
	return bestDomain, bestConfidence
}

func collectText(parse *domain.ParseResult) string {
	var b strings.Builder
	for _, block := range parse.TextBlocks {
		b.WriteString(block.Text)
		b.WriteString("\n")
	}
	for _, table := range parse.Tables {
		for _, row := range table.Rows {
			for _, cell := range row.Cells {
				b.WriteString(cell.Text)
				b.WriteString(" ")
			}
			b.WriteString("\n")
		}
	}
	return strings.ToLower(b.String())
}

func capConfidence(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}

func emptyEvidence() domain.ClassificationEvidence {
	return domain.ClassificationEvidence{
		PrimaryMatches:   []string{},
		SecondaryMatches: []string{},
		SectionMatches:   []string{},
		NegativeMatches:  []string{},
	}
}
