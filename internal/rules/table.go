package rules

import (
	"regexp"
	"strings"

	"github.com/vendorlens/vendorlens/internal/core/domain"
)

var tableValuePattern = regexp.MustCompile(`^([-+]?\d[\d,]*\.?\d*)\s*([A-Za-zµ%][A-Za-z/%]{0,11})?$`)

const tableConfidence = 0.6

// ExtractTables reads two-column spec tables: first cell is the label,
// second the value. Rows that do not look like label/value pairs are
// skipped silently.
func ExtractTables(tables []domain.Table) []domain.ExtractionCandidate {
	var out []domain.ExtractionCandidate
	for _, table := range tables {
		for _, row := range table.Rows {
			candidate, ok := candidateFromRow(row, table.Page)
			if ok {
				out = append(out, candidate)
			}
		}
	}
	return out
}

func candidateFromRow(row domain.TableRow, page int) (domain.ExtractionCandidate, bool) {
	if len(row.Cells) < 2 {
		return domain.ExtractionCandidate{}, false
	}
	label := strings.TrimSpace(row.Cells[0].Text)
	rawValue := strings.TrimSpace(row.Cells[1].Text)
	if label == "" || rawValue == "" {
		return domain.ExtractionCandidate{}, false
	}
	// Numeric-looking labels mean the row is data, not a label/value pair.
	if _, numeric := parseNumber(label); numeric {
		return domain.ExtractionCandidate{}, false
	}

	context := label + ": " + rawValue
	m := tableValuePattern.FindStringSubmatch(rawValue)
	if m == nil {
		value := rawValue
		if len(value) > 120 {
			return domain.ExtractionCandidate{}, false
		}
		return domain.ExtractionCandidate{
			Label:         strings.ToLower(label),
			Value:         domain.TextValue(value),
			Confidence:    tableConfidence,
			SourceContext: context,
			PageRef:       page,
			Method:        domain.MethodTable,
		}, true
	}

	value, ok := parseNumber(m[1])
	if !ok {
		return domain.ExtractionCandidate{}, false
	}
	unit := ""
	if m[2] != "" {
		unit = NormalizeUnitToken(m[2])
	}
	return domain.ExtractionCandidate{
		Label:         strings.ToLower(label),
		Value:         domain.NumberValue(value),
		Unit:          unit,
		Confidence:    tableConfidence,
		SourceContext: context,
		PageRef:       page,
		Method:        domain.MethodTable,
	}, true
}
