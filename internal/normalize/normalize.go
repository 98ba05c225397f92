package normalize

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vendorlens/vendorlens/internal/core/domain"
	"github.com/vendorlens/vendorlens/internal/profile"
)

type Normalizer struct {
	converter *Converter
}

func New() *Normalizer {
	return &Normalizer{converter: NewConverter()}
}

// Normalize converts raw candidates into unit-consistent fields with
// recomposed confidence. Output is sorted by confidence descending; no
// candidate is dropped, questionable ones are flagged.
func (n *Normalizer) Normalize(documentID string, p *profile.Profile, candidates []domain.ExtractionCandidate) []domain.NormalizedField {
	for field, target := range p.UnitTargets {
		n.converter.RegisterFieldUnit(field, target)
	}

	fields := make([]domain.NormalizedField, 0, len(candidates))
	for _, candidate := range candidates {
		fields = append(fields, n.normalizeOne(documentID, p, candidate))
	}
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Confidence > fields[j].Confidence })
	return fields
}

func (n *Normalizer) normalizeOne(documentID string, p *profile.Profile, candidate domain.ExtractionCandidate) domain.NormalizedField {
	fieldID, known := resolveField(p, candidate.Label)
	required := known && p.IsRequired(fieldID)

	field := domain.NormalizedField{
		FieldID: fieldID,
		Value:   candidate.Value,
		Unit:    candidate.Unit,
		Provenance: domain.Provenance{
			DocumentID: documentID,
			Page:       candidate.PageRef,
			Method:     candidate.Method,
		},
	}

	unitFactor := 1.0
	target := p.UnitTargets[fieldID]
	number, numeric := candidate.Value.AsNumber()
	if numeric && target != "" && candidate.Unit != "" && candidate.Unit != target {
		conv := n.converter.Convert(fieldID, number, candidate.Unit, target)
		if conv.Success {
			field.Value = domain.NumberValue(conv.Value)
			field.Unit = conv.Unit
			unitFactor = conv.Confidence
			if conv.Converted {
				field.AddFlag(domain.FlagUnitConverted)
				field.Note = fmt.Sprintf("converted from %s", candidate.Unit)
			}
		} else {
			unitFactor = failedConversionFactor
			field.AddFlag(domain.FlagNeedsReview)
			field.Note = fmt.Sprintf("no conversion from %s to %s", candidate.Unit, target)
		}
	}

	factors := confidenceFactors{
		extractionMethod:    methodFactor(candidate.Confidence),
		unitConversion:      unitFactor,
		contextClarity:      contextFactor(candidate.SourceContext),
		domainRelevance:     relevanceFactor(known, required),
		patternMatchQuality: patternFactor(candidate.SourceContext),
	}
	field.Confidence = factors.compose()

	if field.Confidence < lowConfidenceThreshold {
		field.AddFlag(domain.FlagLowConfidence)
	}

	switch ValidateFieldValue(p, fieldID, field.Value, field.Unit) {
	case ValidationNeedsReview:
		field.AddFlag(domain.FlagNeedsReview)
	case ValidationInvalid:
		field.AddFlag(domain.FlagInvalidValue)
	}

	return field
}

// resolveField maps a candidate label onto a profile field key: exact key
// match, then display label, then bidirectional synonym substring.
func resolveField(p *profile.Profile, label string) (string, bool) {
	needle := strings.ToLower(strings.TrimSpace(label))
	if needle == "" {
		return label, false
	}

	for _, f := range p.ActiveFields {
		if needle == f.Field || needle == strings.ToLower(f.DisplayLabel) {
			return f.Field, true
		}
	}
	for field, synonyms := range p.FieldSynonyms {
		for _, syn := range synonyms {
			lowered := strings.ToLower(syn)
			if strings.Contains(needle, lowered) || strings.Contains(lowered, needle) {
				return field, true
			}
		}
	}
	return needle, false
}
