package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/vendorlens/vendorlens/internal/core/domain"
)

const comparisonSheet = "Comparison"

// renderXLSX writes the matrix to a workbook with best-vendor cells
// highlighted and a summary of missing values per vendor.
func renderXLSX(dataset *domain.ComparisonDataset) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(comparisonSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	bestStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C6EFCE"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("best style: %w", err)
	}

	header := []any{"Metric", "Optimality"}
	for _, vendor := range dataset.Vendors {
		header = append(header, vendor.Name)
	}
	header = append(header, "Delta", "Best Vendor")
	if err := f.SetSheetRow(comparisonSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(header))
	if err := f.SetCellStyle(comparisonSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}

	for i, metric := range dataset.Metrics {
		rowNum := i + 2
		row := []any{metric.Label, string(metric.Optimality)}
		for _, vendor := range dataset.Vendors {
			row = append(row, cellText(dataset.Matrix[metric.MetricID][vendor.ID]))
		}
		row = append(row, deltaText(dataset.Deltas[metric.MetricID]), bestVendorName(dataset, metric.MetricID))
		anchor, _ := excelize.CoordinatesToCellName(1, rowNum)
		if err := f.SetSheetRow(comparisonSheet, anchor, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", rowNum, err)
		}

		bestID, hasBest := dataset.BestVendorByMetric[metric.MetricID]
		if !hasBest {
			continue
		}
		for v, vendor := range dataset.Vendors {
			if vendor.ID != bestID {
				continue
			}
			cellName, _ := excelize.CoordinatesToCellName(v+3, rowNum)
			if err := f.SetCellStyle(comparisonSheet, cellName, cellName, bestStyle); err != nil {
				return nil, fmt.Errorf("style best cell: %w", err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
