package services

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"total-comp/models"
)

func TestCleanerParseNumber(t *testing.T) {
	tests := []struct {
		raw    string
		want   float64
		wantOK bool
	}{
		{"120000", 120000, true},
		{"$1,200.50", 1200.50, true},
		{" 7.5% ", 7.5, true},
		{"", 0, false},
		{"NaN", 0, false},
		{"-3", -3, true},
	}

	for _, tt := range tests {
		got, ok, err := parseNumber(tt.raw)
		if err != nil {
			t.Errorf("parseNumber(%q) error: %v", tt.raw, err)
			continue
		}
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("parseNumber(%q) = %.2f, %v; want %.2f, %v", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}

	for _, bad := range []string{"lots", "inf", "-Inf", "+Infinity", "1e400"} {
		if _, _, err := parseNumber(bad); !errors.Is(err, models.ErrTypeCoercion) {
			t.Errorf("parseNumber(%q) error = %v; want ErrTypeCoercion", bad, err)
		}
	}
}

func TestCleanerNormalisesText(t *testing.T) {
	tbl := mustClean(t, responseHeader, models.ResponseColumns,
		[]string{"  Senior  Manager ", "Audit", "USI", "FirmA", "Female", "Masters", "Campus", "2", "1", "1", "1"},
	)
	assert.Equal(t, "Senior Manager", tbl.Row(0).Text[models.ColLevel])
}

func TestCleanerHeaderHandling(t *testing.T) {
	header := append([]string{"\ufeffLEVEL", "EXTRA"}, responseHeader[1:]...)
	raw := &models.RawTable{
		Origin: "bom.csv",
		Header: header,
		Records: [][]string{
			{"Senior", "ignored", "Audit", "USI", "FirmA", "Female", "Masters", "Campus", "2", "50000", "1000", "2"},
		},
	}
	tbl, err := NewCleaner(newTestLogger()).Clean(raw, models.ResponseColumns)
	require.NoError(t, err)
	require.Equal(t, 1, tbl.Len())
	assert.Equal(t, "Senior", tbl.Row(0).Text[models.ColLevel])
	assert.Equal(t, 50000.0, tbl.Row(0).Number[models.ColSalary])
	_, ok := tbl.Column("EXTRA")
	assert.False(t, ok)
}

func TestCleanerMissingColumn(t *testing.T) {
	raw := &models.RawTable{Origin: "short.csv", Header: responseHeader[:5]}
	_, err := NewCleaner(newTestLogger()).Clean(raw, models.ResponseColumns)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrColumnNotFound))
	assert.Contains(t, err.Error(), "EDUCATION")
}

func TestCleanerRejectsWildcardValue(t *testing.T) {
	raw := &models.RawTable{
		Origin: "bad.csv",
		Header: responseHeader,
		Records: [][]string{
			{"Senior", "Audit", "USI", "FirmA", "Female", "Masters", "Campus", "2", "1", "1", "1"},
			{"All", "Audit", "USI", "FirmA", "Female", "Masters", "Campus", "2", "1", "1", "1"},
		},
	}
	_, err := NewCleaner(newTestLogger()).Clean(raw, models.ResponseColumns)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrReservedValue))
	assert.Contains(t, err.Error(), "line 3")
}

func TestCleanerTypeCoercion(t *testing.T) {
	cases := map[string][]string{
		"non-numeric salary": {"Senior", "Audit", "USI", "FirmA", "Female", "Masters", "Campus", "2", "lots", "1", "1"},
		"fractional yoe":     {"Senior", "Audit", "USI", "FirmA", "Female", "Masters", "Campus", "2.5", "1", "1", "1"},
	}
	for name, rec := range cases {
		t.Run(name, func(t *testing.T) {
			raw := &models.RawTable{Origin: "bad.csv", Header: responseHeader, Records: [][]string{rec}}
			_, err := NewCleaner(newTestLogger()).Clean(raw, models.ResponseColumns)
			assert.True(t, errors.Is(err, models.ErrTypeCoercion), "got %v", err)
		})
	}
}

func TestCleanerBlankAndShortRecords(t *testing.T) {
	tbl := mustClean(t, responseHeader, models.ResponseColumns,
		[]string{"", " ", ""},
		[]string{"Senior", "Audit", "USI", "FirmA", "Female", "Masters", "Campus", "4", "65000"},
	)
	require.Equal(t, 1, tbl.Len())
	r := tbl.Row(0)
	assert.Equal(t, 65000.0, r.Number[models.ColSalary])
	_, ok := r.Number[models.ColAIP]
	assert.False(t, ok, "missing trailing cell is absent, not zero")
}

func TestCleanerRejectsInfiniteSalary(t *testing.T) {
	raw := &models.RawTable{
		Origin: "inf.csv",
		Header: responseHeader,
		Records: [][]string{
			{"Senior", "Audit", "USI", "FirmA", "Female", "Masters", "Campus", "2", "inf", "1", "1"},
		},
	}
	_, err := NewCleaner(newTestLogger()).Clean(raw, models.ResponseColumns)
	if !errors.Is(err, models.ErrTypeCoercion) {
		t.Fatalf("Clean error = %v; want ErrTypeCoercion", err)
	}
	assert.Contains(t, err.Error(), "SALARY")
}

func TestCleanerAggregateKeyCellsRequired(t *testing.T) {
	full := []string{"Manager", "Audit", "USI", "FirmA", "Female", "Masters", "Campus", "5", "95000", "93000", "9500", "9000"}

	cases := map[string]int{
		"empty TOTAL_YOE": 7,
		"empty LEVEL":     0,
		"empty GENDER":    4,
	}
	for name, pos := range cases {
		t.Run(name, func(t *testing.T) {
			rec := append([]string(nil), full...)
			rec[pos] = ""
			raw := &models.RawTable{Origin: "agg.csv", Header: aggregateHeader, Records: [][]string{rec}}
			_, err := NewCleaner(newTestLogger()).Clean(raw, models.AggregateColumns)
			assert.True(t, errors.Is(err, models.ErrTypeCoercion), "got %v", err)
			assert.Contains(t, err.Error(), aggregateHeader[pos])
		})
	}

	// Metric cells stay optional.
	rec := append([]string(nil), full...)
	rec[9] = ""
	tbl := mustClean(t, aggregateHeader, models.AggregateColumns, rec)
	assert.Equal(t, 1, tbl.Len())
}

func TestCleanerResponseCellsOptional(t *testing.T) {
	tbl := mustClean(t, responseHeader, models.ResponseColumns,
		[]string{"Senior", "", "USI", "FirmA", "Female", "Masters", "Campus", "", "50000", "", ""},
	)
	require.Equal(t, 1, tbl.Len())
	_, ok := tbl.Row(0).Number[models.ColTotalYOE]
	assert.False(t, ok)
}
