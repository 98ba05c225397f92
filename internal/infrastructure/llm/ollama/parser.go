package ollama

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vendorlens/vendorlens/internal/core/domain"
)

// maxCandidates bounds a single response; anything past it is model noise.
const maxCandidates = 64

type rawCandidate struct {
	Label      string  `json:"label"`
	Value      any     `json:"value"`
	Unit       string  `json:"unit"`
	Confidence float64 `json:"confidence"`
	Context    string  `json:"context"`
	Page       int     `json:"page"`
}

type rawResponse struct {
	Fields []rawCandidate `json:"fields"`
}

// parseCandidates validates a model response strictly: the envelope must
// be JSON, every kept entry must carry a label and a scalar value.
// Entries failing validation are skipped; a response with no usable
// entries is an error so the caller can log one rejection.
func parseCandidates(raw string) ([]domain.ExtractionCandidate, error) {
	cleaned := stripCodeFences(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("empty model response")
	}

	var envelope rawResponse
	if err := json.Unmarshal([]byte(extractJSONObject(cleaned)), &envelope); err != nil {
		return nil, fmt.Errorf("parse extraction json: %w", err)
	}
	if len(envelope.Fields) == 0 {
		return nil, fmt.Errorf("response carries no fields")
	}

	candidates := make([]domain.ExtractionCandidate, 0, len(envelope.Fields))
	for _, entry := range envelope.Fields {
		if len(candidates) == maxCandidates {
			break
		}
		label := strings.TrimSpace(entry.Label)
		if label == "" || entry.Value == nil {
			continue
		}
		value, err := domain.ParseValue(entry.Value)
		if err != nil {
			continue
		}

		confidence := entry.Confidence
		if confidence <= 0 || confidence > 1 {
			confidence = 0.7
		}
		candidates = append(candidates, domain.ExtractionCandidate{
			Label:         label,
			Value:         value,
			Unit:          strings.TrimSpace(entry.Unit),
			Confidence:    confidence,
			SourceContext: strings.TrimSpace(entry.Context),
			PageRef:       entry.Page,
			Method:        domain.MethodLLM,
		})
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no valid entries in response")
	}
	return candidates, nil
}

func stripCodeFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
