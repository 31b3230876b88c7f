package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"total-comp/models"
	"total-comp/services"
)

const (
	summarySheet = "Summary"
	rowsSheet    = "Rows"
)

// WriteXLSX saves a workbook at path with a describe()-style "Summary" sheet
// and a "Rows" sheet holding every row of t.
func WriteXLSX(path string, summary services.Summary, t *models.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("xlsx: create output dir: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("xlsx: rename sheet: %w", err)
	}
	if err := writeSummarySheet(f, summary); err != nil {
		return err
	}

	if _, err := f.NewSheet(rowsSheet); err != nil {
		return fmt.Errorf("xlsx: add sheet: %w", err)
	}
	if err := writeRowsSheet(f, t); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx: save %q: %w", path, err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, s services.Summary) error {
	header := []interface{}{"statistic"}
	for _, c := range s.Columns {
		header = append(header, c.Column)
	}
	if err := f.SetSheetRow(summarySheet, "A1", &header); err != nil {
		return fmt.Errorf("xlsx: write summary header: %w", err)
	}

	count := []interface{}{"count"}
	for _, c := range s.Columns {
		count = append(count, c.Count)
	}
	if err := f.SetSheetRow(summarySheet, "A2", &count); err != nil {
		return fmt.Errorf("xlsx: write summary row: %w", err)
	}

	stats := []struct {
		label string
		get   func(services.ColumnStats) *float64
	}{
		{"mean", func(c services.ColumnStats) *float64 { return c.Mean }},
		{"std", func(c services.ColumnStats) *float64 { return c.Std }},
		{"min", func(c services.ColumnStats) *float64 { return c.Min }},
		{"25%", func(c services.ColumnStats) *float64 { return c.P25 }},
		{"50%", func(c services.ColumnStats) *float64 { return c.P50 }},
		{"75%", func(c services.ColumnStats) *float64 { return c.P75 }},
		{"max", func(c services.ColumnStats) *float64 { return c.Max }},
	}
	for i, st := range stats {
		row := []interface{}{st.label}
		for _, c := range s.Columns {
			if v := st.get(c); v != nil {
				row = append(row, *v)
			} else {
				row = append(row, nil)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+3)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("xlsx: write summary row: %w", err)
		}
	}
	return nil
}

func writeRowsSheet(f *excelize.File, t *models.Table) error {
	cols := t.Columns()
	header := make([]interface{}, len(cols))
	for i, c := range cols {
		header[i] = c.Name
	}
	if err := f.SetSheetRow(rowsSheet, "A1", &header); err != nil {
		return fmt.Errorf("xlsx: write rows header: %w", err)
	}

	for i := 0; i < t.Len(); i++ {
		r := t.Row(i)
		vals := make([]interface{}, len(cols))
		for j, c := range cols {
			if c.Kind == models.Numeric {
				if v, ok := r.Number[c.Name]; ok {
					vals[j] = v
				}
				continue
			}
			vals[j] = r.Text[c.Name]
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(rowsSheet, cell, &vals); err != nil {
			return fmt.Errorf("xlsx: write row %d: %w", i+1, err)
		}
	}
	return nil
}
