// Package aggregate builds the vendor-by-metric comparison dataset from
// canonicalized per-document fields.
package aggregate

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/vendorlens/vendorlens/internal/core/domain"
)

type Input struct {
	Documents  []domain.Document
	Fields     map[string][]domain.NormalizedField
	SynonymMap *domain.SynonymMap
}

// Build always returns a shaped dataset, even for empty input, so callers
// polling a degenerate job never block on a missing result. The dataset is
// rebuilt wholesale on every run.
func Build(in Input) *domain.ComparisonDataset {
	dataset := domain.EmptyComparisonDataset()
	if in.SynonymMap != nil {
		dataset.SynonymMapVersion = in.SynonymMap.Version
	}

	for _, doc := range in.Documents {
		dataset.Vendors = append(dataset.Vendors, domain.Vendor{
			ID:   doc.ID,
			Name: vendorName(doc.Filename),
		})
	}

	dataset.Metrics = collectMetrics(in)
	for _, metric := range dataset.Metrics {
		row := make(map[string]*domain.Cell, len(dataset.Vendors))
		for _, vendor := range dataset.Vendors {
			row[vendor.ID] = bestCell(in.Fields[vendor.ID], metric.MetricID)
		}
		dataset.Matrix[metric.MetricID] = row
	}

	for _, vendor := range dataset.Vendors {
		flags := make(map[string]bool, len(dataset.Metrics))
		for _, metric := range dataset.Metrics {
			flags[metric.MetricID] = dataset.Matrix[metric.MetricID][vendor.ID] == nil
		}
		dataset.MissingFlags[vendor.ID] = flags
	}

	for _, metric := range dataset.Metrics {
		delta, best := deltaAndBest(metric, dataset.Matrix[metric.MetricID])
		dataset.Deltas[metric.MetricID] = delta
		if best != "" {
			dataset.BestVendorByMetric[metric.MetricID] = best
		}
	}

	return dataset
}

func collectMetrics(in Input) []domain.Metric {
	seen := make(map[string]domain.Metric)
	priorities := make(map[string]int)
	for _, fields := range in.Fields {
		for _, field := range fields {
			if field.MetricID == "" {
				continue
			}
			if _, ok := seen[field.MetricID]; ok {
				continue
			}
			metric := domain.Metric{MetricID: field.MetricID, Label: field.FieldID}
			priority := 99
			if entry, found := findEntry(in.SynonymMap, field.MetricID); found {
				metric.Label = entry.MetricLabel
				metric.Optimality = entry.Optimality
				priority = entry.Priority
			}
			seen[field.MetricID] = metric
			priorities[field.MetricID] = priority
		}
	}

	metrics := make([]domain.Metric, 0, len(seen))
	for _, metric := range seen {
		metrics = append(metrics, metric)
	}
	sort.Slice(metrics, func(i, j int) bool {
		pi, pj := priorities[metrics[i].MetricID], priorities[metrics[j].MetricID]
		if pi != pj {
			return pi < pj
		}
		return metrics[i].MetricID < metrics[j].MetricID
	})
	return metrics
}

func findEntry(m *domain.SynonymMap, metricID string) (domain.SynonymEntry, bool) {
	if m == nil {
		return domain.SynonymEntry{}, false
	}
	for _, entry := range m.Entries {
		if entry.CanonicalMetricID == metricID {
			return entry, true
		}
	}
	return domain.SynonymEntry{}, false
}

// bestCell picks the highest-confidence field a document produced for a
// metric; nil when the document never yielded it.
func bestCell(fields []domain.NormalizedField, metricID string) *domain.Cell {
	var best *domain.NormalizedField
	for i := range fields {
		if fields[i].MetricID != metricID {
			continue
		}
		if best == nil || fields[i].Confidence > best.Confidence {
			best = &fields[i]
		}
	}
	if best == nil {
		return nil
	}
	return &domain.Cell{
		Value:      best.Value,
		Unit:       best.Unit,
		Confidence: best.Confidence,
		Flags:      best.Flags,
		DocumentID: best.Provenance.DocumentID,
	}
}

// deltaAndBest computes the relative spread and the preferred vendor for
// one metric row. Fewer than two numeric values is a degenerate metric:
// no delta, no best vendor, not an error.
func deltaAndBest(metric domain.Metric, row map[string]*domain.Cell) (*float64, string) {
	type point struct {
		vendorID string
		value    float64
	}
	var points []point
	for vendorID, cell := range row {
		if cell == nil {
			continue
		}
		if v, ok := cell.Value.AsNumber(); ok {
			points = append(points, point{vendorID: vendorID, value: v})
		}
	}
	if len(points) < 2 {
		return nil, ""
	}

	minPoint, maxPoint := points[0], points[0]
	for _, p := range points[1:] {
		if p.value < minPoint.value {
			minPoint = p
		}
		if p.value > maxPoint.value {
			maxPoint = p
		}
	}

	var delta float64
	switch metric.Optimality {
	case domain.OptimalityMin:
		if maxPoint.value != 0 {
			delta = (maxPoint.value - minPoint.value) / maxPoint.value
		}
		return &delta, minPoint.vendorID
	case domain.OptimalityMax:
		if minPoint.value != 0 {
			delta = (maxPoint.value - minPoint.value) / minPoint.value
		}
		return &delta, maxPoint.vendorID
	default:
		return nil, ""
	}
}

func vendorName(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	base = strings.TrimSpace(base)
	if base == "" || base == "." {
		return "unknown vendor"
	}
	return base
}
