// Package export renders a comparison dataset into downloadable formats.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vendorlens/vendorlens/internal/core/domain"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json"
	}
}

func (f Format) Extension() string {
	return string(f)
}

// Render produces the export payload for one format.
func Render(format Format, dataset *domain.ComparisonDataset) ([]byte, error) {
	switch format {
	case FormatCSV:
		return renderCSV(dataset)
	case FormatJSON:
		return json.MarshalIndent(dataset, "", "  ")
	case FormatXLSX:
		return renderXLSX(dataset)
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

func renderCSV(dataset *domain.ComparisonDataset) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"metric", "optimality"}
	for _, vendor := range dataset.Vendors {
		header = append(header, vendor.Name)
	}
	header = append(header, "delta", "best_vendor")
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	for _, metric := range dataset.Metrics {
		row := []string{metric.Label, string(metric.Optimality)}
		for _, vendor := range dataset.Vendors {
			row = append(row, cellText(dataset.Matrix[metric.MetricID][vendor.ID]))
		}
		row = append(row, deltaText(dataset.Deltas[metric.MetricID]), bestVendorName(dataset, metric.MetricID))
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func cellText(cell *domain.Cell) string {
	if cell == nil {
		return ""
	}
	if cell.Unit != "" {
		return cell.Value.String() + " " + cell.Unit
	}
	return cell.Value.String()
}

func deltaText(delta *float64) string {
	if delta == nil {
		return ""
	}
	return fmt.Sprintf("%.4f", *delta)
}

func bestVendorName(dataset *domain.ComparisonDataset, metricID string) string {
	vendorID, ok := dataset.BestVendorByMetric[metricID]
	if !ok {
		return ""
	}
	for _, vendor := range dataset.Vendors {
		if vendor.ID == vendorID {
			return vendor.Name
		}
	}
	return vendorID
}
