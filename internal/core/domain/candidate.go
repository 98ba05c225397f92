package domain

type ExtractionMethod string

const (
	MethodRule      ExtractionMethod = "rule"
	MethodHeuristic ExtractionMethod = "heuristic"
	MethodLLM       ExtractionMethod = "llm"
	MethodPattern   ExtractionMethod = "pattern"
	MethodTable     ExtractionMethod = "table"
)

// ExtractionCandidate is an unvalidated (label, value, unit, confidence)
// tuple proposed by one extraction source for one document.
type ExtractionCandidate struct {
	Label         string           `json:"label"`
	Value         Value            `json:"value"`
	Unit          string           `json:"unit,omitempty"`
	Confidence    float64          `json:"confidence"`
	SourceContext string           `json:"source_context"`
	PageRef       int              `json:"page_ref,omitempty"`
	Method        ExtractionMethod `json:"extraction_method"`
}

const (
	FlagNeedsReview   = "needs_review"
	FlagUnitConverted = "unit_converted"
	FlagLowConfidence = "low_confidence"
	FlagInvalidValue  = "invalid_value"
	FlagMissing       = "missing"
)

// Provenance ties a normalized field back to its source.
type Provenance struct {
	DocumentID string           `json:"document_id"`
	Page       int              `json:"page,omitempty"`
	Method     ExtractionMethod `json:"method"`
}

// NormalizedField is a candidate after unit conversion, confidence
// recomposition and threshold validation. One per (document, field).
type NormalizedField struct {
	FieldID    string     `json:"field_id"`
	MetricID   string     `json:"metric_id,omitempty"`
	Value      Value      `json:"value"`
	Unit       string     `json:"unit,omitempty"`
	Note       string     `json:"note,omitempty"`
	Flags      []string   `json:"flags,omitempty"`
	Confidence float64    `json:"confidence"`
	Provenance Provenance `json:"provenance"`
}

func (f *NormalizedField) HasFlag(flag string) bool {
	for _, existing := range f.Flags {
		if existing == flag {
			return true
		}
	}
	return false
}

func (f *NormalizedField) AddFlag(flag string) {
	if !f.HasFlag(flag) {
		f.Flags = append(f.Flags, flag)
	}
}
