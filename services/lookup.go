package services

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"total-comp/models"
)

// Lookup finds the aggregate row whose full key equals key.
//
// A query row built from key is placed in front of the table; rows that share
// its key tuple occur more than once in that concatenation and form the match
// set. The query row is dropped and the first remaining match in table order
// is returned, so duplicate keys in the source resolve to their first
// occurrence. Duplicates of any other key never match.
// No match is ErrNoMatchingAggregate.
func Lookup(t *models.Table, key models.Key) (*models.AggregateRow, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	for _, c := range models.AggregateColumns {
		if _, ok := t.Column(c.Name); !ok {
			return nil, models.MissingColumn(c.Name)
		}
	}

	query := t.Derive([]*models.Row{key.Row()})
	combined := query.Concat(t)
	want := models.KeyOf(combined.Row(0))

	counts := make(map[models.Key]int, combined.Len())
	for i := 0; i < combined.Len(); i++ {
		if r := combined.Row(i); hasYOE(r) {
			counts[models.KeyOf(r)]++
		}
	}

	// Index 0 is the query row.
	for i := 1; i < combined.Len(); i++ {
		r := combined.Row(i)
		if !hasYOE(r) {
			continue
		}
		if k := models.KeyOf(r); k == want && counts[k] > 1 {
			return models.AggregateOf(r), nil
		}
	}
	return nil, errors.Wrapf(models.ErrNoMatchingAggregate, "key %s", describeKey(key))
}

// hasYOE reports whether the row carries years of experience; KeyOf would
// otherwise read an absent cell as zero.
func hasYOE(r *models.Row) bool {
	_, ok := r.Number[models.ColTotalYOE]
	return ok
}

// ValidateKey requires every categorical part to be set and not the wildcard,
// and years of experience to be non-negative.
func ValidateKey(key models.Key) error {
	for i, v := range key.Categories() {
		col := models.FilterColumns[i]
		if v == "" {
			return errors.Wrapf(models.ErrInvalidKey, "%s is required", col)
		}
		if v == models.Wildcard {
			return errors.Wrapf(models.ErrInvalidKey, "%s cannot be %q in a lookup", col, models.Wildcard)
		}
	}
	if key.TotalYOE < 0 {
		return errors.Wrapf(models.ErrInvalidKey, "%s must be non-negative", models.ColTotalYOE)
	}
	return nil
}

func describeKey(k models.Key) string {
	parts := append(k.Categories(), models.FormatNumber(float64(k.TotalYOE)))
	return "(" + strings.Join(parts, ", ") + ")"
}

// ParseKey reads a lookup key from parameters named after the key columns.
// Missing parts are left empty and rejected later by ValidateKey.
func ParseKey(values url.Values) (models.Key, error) {
	key := models.Key{
		Level:          values.Get(models.ColLevel),
		Sector:         values.Get(models.ColSector),
		GlobalBusiness: values.Get(models.ColGlobalBusiness),
		MemberFirm:     values.Get(models.ColMemberFirm),
		Gender:         values.Get(models.ColGender),
		Education:      values.Get(models.ColEducation),
		HireSource:     values.Get(models.ColHireSource),
	}
	raw := strings.TrimSpace(values.Get(models.ColTotalYOE))
	if raw == "" {
		return key, errors.Wrapf(models.ErrInvalidKey, "%s is required", models.ColTotalYOE)
	}
	yoe, err := strconv.Atoi(raw)
	if err != nil {
		return key, errors.Wrapf(models.ErrInvalidKey, "%s: %q is not a whole number", models.ColTotalYOE, raw)
	}
	key.TotalYOE = yoe
	return key, nil
}
