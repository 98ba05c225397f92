package usecase

import (
	"strings"

	"github.com/vendorlens/vendorlens/internal/core/domain"
)

// mergePrecedence orders extraction sources: structured and deterministic
// producers claim labels before probabilistic and generic ones.
var mergePrecedence = []domain.ExtractionMethod{
	domain.MethodRule,
	domain.MethodHeuristic,
	domain.MethodLLM,
	domain.MethodPattern,
	domain.MethodTable,
}

// MergeCandidates merges per-source candidate sets by case-insensitive
// label. The first producer in precedence order to claim a label wins;
// later producers only contribute previously-unseen labels.
func MergeCandidates(bySource map[domain.ExtractionMethod][]domain.ExtractionCandidate) []domain.ExtractionCandidate {
	var merged []domain.ExtractionCandidate
	claimed := make(map[string]bool)

	for _, method := range mergePrecedence {
		for _, candidate := range bySource[method] {
			key := strings.ToLower(strings.TrimSpace(candidate.Label))
			if key == "" || claimed[key] {
				continue
			}
			claimed[key] = true
			merged = append(merged, candidate)
		}
	}
	return merged
}
