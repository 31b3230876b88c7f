package services

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"total-comp/models"
)

// ApplyFilter returns the rows of t whose value for column equals selected
// exactly. The wildcard returns t itself. Numeric columns compare the parsed
// number, so "5" and "5.0" select the same rows. Rows lacking the column never
// match. The result may be empty; it is never an error.
func ApplyFilter(t *models.Table, column, selected string) *models.Table {
	if selected == models.Wildcard {
		return t
	}

	col, ok := t.Column(column)
	if !ok {
		return t.Derive(nil)
	}

	var match func(r *models.Row) bool
	if col.Kind == models.Numeric {
		want, err := strconv.ParseFloat(strings.TrimSpace(selected), 64)
		if err != nil {
			return t.Derive(nil)
		}
		match = func(r *models.Row) bool {
			v, ok := r.Number[column]
			return ok && v == want
		}
	} else {
		match = func(r *models.Row) bool {
			v, ok := r.Text[column]
			return ok && v == selected
		}
	}

	rows := make([]*models.Row, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		if r := t.Row(i); match(r) {
			rows = append(rows, r)
		}
	}
	return t.Derive(rows)
}

// ApplyRangeFilter returns the rows of t with low <= row[column] <= high.
// low > high yields an empty table.
func ApplyRangeFilter(t *models.Table, column string, low, high float64) *models.Table {
	rows := make([]*models.Row, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		r := t.Row(i)
		v, ok := r.Number[column]
		if ok && low <= v && v <= high {
			rows = append(rows, r)
		}
	}
	return t.Derive(rows)
}

// Criterion is one user selection: either equality on Value or, when Range is
// set, an inclusive numeric range.
type Criterion struct {
	Column string
	Value  string
	Range  *Range
}

// Range is an inclusive numeric interval.
type Range struct {
	Low  float64
	High float64
}

func (c Criterion) String() string {
	if c.Range != nil {
		return fmt.Sprintf("%s in [%s, %s]", c.Column, models.FormatNumber(c.Range.Low), models.FormatNumber(c.Range.High))
	}
	return fmt.Sprintf("%s = %s", c.Column, c.Value)
}

// Apply narrows t by this criterion alone.
func (c Criterion) Apply(t *models.Table) *models.Table {
	if c.Range != nil {
		return ApplyRangeFilter(t, c.Column, c.Range.Low, c.Range.High)
	}
	return ApplyFilter(t, c.Column, c.Value)
}

// Selection is an ordered list of criteria, folded left to right.
type Selection []Criterion

// Equals appends an equality criterion.
func (s Selection) Equals(column, value string) Selection {
	return append(s, Criterion{Column: column, Value: value})
}

// Between appends an inclusive range criterion.
func (s Selection) Between(column string, low, high float64) Selection {
	return append(s, Criterion{Column: column, Range: &Range{Low: low, High: high}})
}

// Apply reduces t through every criterion in order.
func (s Selection) Apply(t *models.Table) *models.Table {
	out := t
	for _, c := range s {
		out = c.Apply(out)
	}
	return out
}

// Validate reports ErrColumnNotFound for a criterion naming a column outside
// t's schema, and rejects range criteria on categorical columns.
func (s Selection) Validate(t *models.Table) error {
	for _, c := range s {
		col, ok := t.Column(c.Column)
		if !ok {
			return models.MissingColumn(c.Column)
		}
		if c.Range != nil && col.Kind != models.Numeric {
			return errors.Wrapf(models.ErrInvalidSelection, "range filter on categorical column %s", c.Column)
		}
	}
	return nil
}

// Active returns the criteria that actually narrow the table.
func (s Selection) Active() Selection {
	out := make(Selection, 0, len(s))
	for _, c := range s {
		if c.Range == nil && c.Value == models.Wildcard {
			continue
		}
		out = append(out, c)
	}
	return out
}

// YOEParam is the query parameter / flag carrying a years-of-experience range.
const YOEParam = "yoe"

// ParseSelection builds a selection from query parameters. Parameters named after
// a filter column become equality criteria in FilterColumns order; "yoe" takes
// "low-high" (or a single year) and becomes a TOTAL_YOE range criterion last.
// Any other parameter is ErrColumnNotFound.
func ParseSelection(values url.Values, columns []string) (Selection, error) {
	known := make(map[string]bool, len(columns)+1)
	known[YOEParam] = true
	for _, col := range columns {
		known[col] = true
	}
	params := make([]string, 0, len(values))
	for p := range values {
		params = append(params, p)
	}
	sort.Strings(params)
	for _, p := range params {
		if !known[p] {
			return nil, models.MissingColumn(p)
		}
	}

	var s Selection
	for _, col := range columns {
		v := values.Get(col)
		if v == "" {
			continue
		}
		s = s.Equals(col, v)
	}

	if raw := values.Get(YOEParam); raw != "" {
		low, high, err := ParseRange(raw)
		if err != nil {
			return nil, err
		}
		s = s.Between(models.ColTotalYOE, low, high)
	}
	return s, nil
}

// ParseRange parses "3-6", "3..6" or "4" into an inclusive range.
func ParseRange(raw string) (float64, float64, error) {
	raw = strings.TrimSpace(raw)
	sep := "-"
	if strings.Contains(raw, "..") {
		sep = ".."
	}
	parts := strings.SplitN(raw, sep, 2)

	low, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, errors.Wrapf(models.ErrInvalidSelection, "range %q", raw)
	}
	if len(parts) == 1 {
		return low, low, nil
	}
	high, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, errors.Wrapf(models.ErrInvalidSelection, "range %q", raw)
	}
	return low, high, nil
}
