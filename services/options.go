package services

import (
	"sort"

	"total-comp/models"
)

// ExtractOptions returns the distinct values of column across t, sorted by the
// column's natural order, with the wildcard sentinel first.
func ExtractOptions(t *models.Table, column string) ([]string, error) {
	col, ok := t.Column(column)
	if !ok {
		return nil, models.MissingColumn(column)
	}

	if col.Kind == models.Numeric {
		seen := make(map[float64]struct{})
		nums := make([]float64, 0)
		for i := 0; i < t.Len(); i++ {
			v, ok := t.Row(i).Number[column]
			if !ok {
				continue
			}
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			nums = append(nums, v)
		}
		sort.Float64s(nums)

		out := make([]string, 0, len(nums)+1)
		out = append(out, models.Wildcard)
		for _, v := range nums {
			out = append(out, models.FormatNumber(v))
		}
		return out, nil
	}

	seen := make(map[string]struct{})
	vals := make([]string, 0)
	for i := 0; i < t.Len(); i++ {
		v, ok := t.Row(i).Text[column]
		if !ok {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		vals = append(vals, v)
	}
	sort.Strings(vals)

	return append([]string{models.Wildcard}, vals...), nil
}

// ExtractAllOptions builds the option list of every named column, keyed by column.
func ExtractAllOptions(t *models.Table, columns []string) (map[string][]string, error) {
	out := make(map[string][]string, len(columns))
	for _, c := range columns {
		opts, err := ExtractOptions(t, c)
		if err != nil {
			return nil, err
		}
		out[c] = opts
	}
	return out, nil
}
