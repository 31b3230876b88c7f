package services

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"

	"total-comp/models"
	"total-comp/utils"
)

// Cleaner converts raw CSV payloads into typed, validated tables.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean checks the header against columns and converts every record.
// A missing expected column is ErrColumnNotFound; any cell that cannot be
// converted, and any empty required cell, is ErrTypeCoercion; a categorical
// cell equal to the wildcard is ErrReservedValue. Columns not named in the
// schema are ignored.
func (c *Cleaner) Clean(raw *models.RawTable, columns []models.Column) (*models.Table, error) {
	idx := make(map[string]int, len(raw.Header))
	for i, h := range raw.Header {
		h = normaliseHeader(h)
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}

	positions := make([]int, len(columns))
	for i, col := range columns {
		pos, ok := idx[col.Name]
		if !ok {
			return nil, errors.Wrapf(models.MissingColumn(col.Name), "%s: header", raw.Origin)
		}
		positions[i] = pos
	}

	rows := make([]*models.Row, 0, len(raw.Records))
	skipped := 0
	for n, rec := range raw.Records {
		// Header is line 1.
		line := n + 2
		if blankRecord(rec) {
			skipped++
			continue
		}

		row := models.NewRow()
		for i, col := range columns {
			cell := ""
			if positions[i] < len(rec) {
				cell = rec[positions[i]]
			}
			if err := c.setCell(row, col, cell); err != nil {
				return nil, errors.Wrapf(err, "%s: line %d", raw.Origin, line)
			}
		}
		if err := models.CheckRow(columns, row); err != nil {
			return nil, errors.Wrapf(err, "%s: line %d", raw.Origin, line)
		}
		rows = append(rows, row)
	}

	if skipped > 0 {
		c.logger.Debug("[cleaner] Skipped %d blank records in %s", skipped, raw.Origin)
	}
	c.logger.Info("[cleaner] Cleaned %d → %d rows from %s", len(raw.Records), len(rows), raw.Origin)
	return models.NewTable(columns, rows), nil
}

func (c *Cleaner) setCell(row *models.Row, col models.Column, cell string) error {
	if col.Kind == models.Categorical {
		row.Text[col.Name] = normaliseText(cell)
		return nil
	}

	v, ok, err := parseNumber(cell)
	if err != nil {
		return errors.Wrapf(err, "column %s", col.Name)
	}
	if !ok {
		return nil
	}
	if col.Name == models.ColTotalYOE && v != float64(int64(v)) {
		return errors.Wrapf(models.ErrTypeCoercion, "column %s: %q is not a whole number of years", col.Name, cell)
	}
	row.Number[col.Name] = v
	return nil
}

// parseNumber accepts plain numbers, thousands separators, a leading "$" and a
// trailing "%". An empty or NaN cell reports ok=false; infinities are rejected.
func parseNumber(raw string) (float64, bool, error) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, "nan") {
		return 0, false, nil
	}
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false, errors.Wrapf(models.ErrTypeCoercion, "%q is not numeric", raw)
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false, errors.Wrapf(models.ErrTypeCoercion, "%q is not a finite number", raw)
	}
	return v, true, nil
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(s, unicode.IsSpace)
	return strings.Join(fields, " ")
}

func normaliseHeader(h string) string {
	return strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
}

func blankRecord(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
