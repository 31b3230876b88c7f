package services

import (
	"math"
	"sort"

	"total-comp/models"
)

// ColumnStats is a describe()-style summary of one numeric column. Every
// statistic except Count is nil when it is undefined for the data at hand.
type ColumnStats struct {
	Column string   `json:"column"`
	Count  int      `json:"count"`
	Mean   *float64 `json:"mean,omitempty"`
	Std    *float64 `json:"std,omitempty"`
	Min    *float64 `json:"min,omitempty"`
	P25    *float64 `json:"p25,omitempty"`
	P50    *float64 `json:"p50,omitempty"`
	P75    *float64 `json:"p75,omitempty"`
	Max    *float64 `json:"max,omitempty"`
}

// Summary holds descriptive statistics for every numeric column of a table.
type Summary struct {
	Count   int           `json:"count"`
	Columns []ColumnStats `json:"columns"`
}

// Empty reports whether the summarized table had no rows.
func (s Summary) Empty() bool { return s.Count == 0 }

// Column returns the stats for the named column.
func (s Summary) Column(name string) (ColumnStats, bool) {
	for _, c := range s.Columns {
		if c.Column == name {
			return c, true
		}
	}
	return ColumnStats{}, false
}

// Summarize computes descriptive statistics over every numeric column of t,
// in schema order.
func Summarize(t *models.Table) Summary {
	sum := Summary{Count: t.Len()}
	for _, col := range t.Columns() {
		if col.Kind != models.Numeric {
			continue
		}
		sum.Columns = append(sum.Columns, describe(col.Name, values(t, col.Name)))
	}
	return sum
}

// Distribution returns the values of a numeric column in row order, skipping
// rows where the cell is absent.
func Distribution(t *models.Table, column string) ([]float64, error) {
	col, ok := t.Column(column)
	if !ok || col.Kind != models.Numeric {
		return nil, models.MissingColumn(column)
	}
	return values(t, column), nil
}

func values(t *models.Table, column string) []float64 {
	out := make([]float64, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		if v, ok := t.Row(i).Number[column]; ok {
			out = append(out, v)
		}
	}
	return out
}

func describe(name string, vals []float64) ColumnStats {
	cs := ColumnStats{Column: name, Count: len(vals)}
	if len(vals) == 0 {
		return cs
	}

	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)

	var total float64
	for _, v := range sorted {
		total += v
	}
	mean := total / float64(len(sorted))

	cs.Mean = ptr(mean)
	cs.Min = ptr(sorted[0])
	cs.Max = ptr(sorted[len(sorted)-1])
	cs.P25 = ptr(quantile(sorted, 0.25))
	cs.P50 = ptr(quantile(sorted, 0.50))
	cs.P75 = ptr(quantile(sorted, 0.75))

	// Sample standard deviation; undefined for a single value.
	if len(sorted) > 1 {
		var sq float64
		for _, v := range sorted {
			d := v - mean
			sq += d * d
		}
		cs.Std = ptr(math.Sqrt(sq / float64(len(sorted)-1)))
	}
	return cs
}

// quantile uses linear interpolation between closest ranks over a sorted,
// non-empty slice.
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func ptr(f float64) *float64 { return &f }
