package models

import "github.com/pkg/errors"

var (
	// ErrColumnNotFound means a requested or expected column is missing from the schema.
	ErrColumnNotFound = errors.New("column not found")
	// ErrNoMatchingAggregate means no aggregate row shares the full lookup key.
	ErrNoMatchingAggregate = errors.New("no matching aggregate")
	// ErrEmptyFilterResult means the selection narrowed the table to zero rows.
	ErrEmptyFilterResult = errors.New("empty filter result")

	// ErrTypeCoercion means a source cell could not be converted to its column type.
	ErrTypeCoercion = errors.New("type coercion failed")
	// ErrReservedValue means a source cell collides with the wildcard sentinel.
	ErrReservedValue = errors.New("reserved value in data")
	// ErrInvalidKey means a lookup key is incomplete or contains the wildcard.
	ErrInvalidKey = errors.New("invalid lookup key")
	// ErrInvalidSelection means a filter selection is malformed.
	ErrInvalidSelection = errors.New("invalid selection")
	// ErrSourceUnavailable means the data source could not be fetched.
	ErrSourceUnavailable = errors.New("data source unavailable")
)

// NoDataMessage is shown to users for IsNoData outcomes.
const NoDataMessage = "No data for this selection, try different filters"

// IsNoData reports whether err is an expected, user-correctable "no data for this
// selection" outcome rather than a data or programming error.
func IsNoData(err error) bool {
	return errors.Is(err, ErrEmptyFilterResult) || errors.Is(err, ErrNoMatchingAggregate)
}

// MissingColumn wraps ErrColumnNotFound with the column name.
func MissingColumn(name string) error {
	return errors.Wrapf(ErrColumnNotFound, "column %q", name)
}
