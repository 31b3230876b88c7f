package models

import (
	"math"
	"strconv"

	"github.com/pkg/errors"
)

// Column names as they appear in the survey CSV header. Matching is case-sensitive.
const (
	ColLevel          = "LEVEL"
	ColSector         = "SECTOR"
	ColGlobalBusiness = "GLOBAL_BUSINESS"
	ColMemberFirm     = "MEMBER_FIRM"
	ColGender         = "GENDER"
	ColEducation      = "EDUCATION"
	ColHireSource     = "HIRE_SOURCE"
	ColTotalYOE       = "TOTAL_YOE"

	ColSalary     = "SALARY"
	ColAIP        = "AIP"
	ColAIPPercent = "AIP_PERCENT"

	ColAverageSalary = "AVERAGE_SALARY"
	ColMedianSalary  = "MEDIAN_SALARY"
	ColAverageAIP    = "AVERAGE_AIP"
	ColMedianAIP     = "MEDIAN_AIP"
)

// Wildcard is the synthetic option meaning "do not filter on this column".
const Wildcard = "All"

// YOE slider bounds offered by the dashboard.
const (
	MinYOE = 0
	MaxYOE = 35
)

// ColumnKind classifies how a column's cells are stored and ordered.
type ColumnKind int

const (
	Categorical ColumnKind = iota
	Numeric
)

func (k ColumnKind) String() string {
	if k == Numeric {
		return "numeric"
	}
	return "categorical"
}

// Column describes one column of a Table. A Required cell may not be left empty.
type Column struct {
	Name     string
	Kind     ColumnKind
	Required bool
}

// FilterColumns are the categorical columns offered as sidebar dropdowns, in display order.
var FilterColumns = []string{
	ColLevel, ColSector, ColGlobalBusiness, ColMemberFirm, ColGender, ColEducation, ColHireSource,
}

// CompensationColumns are plotted as histograms for the response dataset.
var CompensationColumns = []string{ColSalary, ColAIP, ColAIPPercent}

// ResponseColumns is the schema of the per-response survey dataset.
var ResponseColumns = append(categorical(FilterColumns, false),
	Column{Name: ColTotalYOE, Kind: Numeric},
	Column{Name: ColSalary, Kind: Numeric},
	Column{Name: ColAIP, Kind: Numeric},
	Column{Name: ColAIPPercent, Kind: Numeric},
)

// AggregateColumns is the schema of the pre-grouped aggregate dataset.
// Every key column is required there.
var AggregateColumns = append(categorical(FilterColumns, true),
	Column{Name: ColTotalYOE, Kind: Numeric, Required: true},
	Column{Name: ColAverageSalary, Kind: Numeric},
	Column{Name: ColMedianSalary, Kind: Numeric},
	Column{Name: ColAverageAIP, Kind: Numeric},
	Column{Name: ColMedianAIP, Kind: Numeric},
)

func categorical(names []string, required bool) []Column {
	cols := make([]Column, 0, len(names)+5)
	for _, n := range names {
		cols = append(cols, Column{Name: n, Kind: Categorical, Required: required})
	}
	return cols
}

// Row is one record. Categorical cells live in Text, numeric cells in Number;
// a numeric cell left empty in the source is absent from Number.
type Row struct {
	Text   map[string]string
	Number map[string]float64
}

// NewRow returns an empty Row ready to be populated.
func NewRow() *Row {
	return &Row{Text: make(map[string]string), Number: make(map[string]float64)}
}

// Value returns the cell as a display string; numeric integers render without decimals.
func (r *Row) Value(col Column) (string, bool) {
	if col.Kind == Categorical {
		v, ok := r.Text[col.Name]
		return v, ok
	}
	n, ok := r.Number[col.Name]
	if !ok {
		return "", false
	}
	return FormatNumber(n), true
}

// FormatNumber renders whole numbers as integers and everything else in shortest form.
func FormatNumber(n float64) string {
	if n == float64(int64(n)) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// CheckRow validates a loaded row against its schema: a categorical cell may
// not hold the wildcard (ErrReservedValue), numbers must be finite and
// required cells present (ErrTypeCoercion).
func CheckRow(columns []Column, r *Row) error {
	for _, c := range columns {
		if c.Kind == Categorical {
			v := r.Text[c.Name]
			if v == Wildcard {
				return errors.Wrapf(ErrReservedValue, "column %s holds %q", c.Name, v)
			}
			if c.Required && v == "" {
				return errors.Wrapf(ErrTypeCoercion, "column %s: required value is empty", c.Name)
			}
			continue
		}
		v, ok := r.Number[c.Name]
		if !ok {
			if c.Required {
				return errors.Wrapf(ErrTypeCoercion, "column %s: required value is empty", c.Name)
			}
			continue
		}
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return errors.Wrapf(ErrTypeCoercion, "column %s: %v is not a finite number", c.Name, v)
		}
	}
	return nil
}

// Key identifies one aggregate row: the seven categorical attributes plus years of experience.
type Key struct {
	Level          string `json:"level"`
	Sector         string `json:"sector"`
	GlobalBusiness string `json:"global_business"`
	MemberFirm     string `json:"member_firm"`
	Gender         string `json:"gender"`
	Education      string `json:"education"`
	HireSource     string `json:"hire_source"`
	TotalYOE       int    `json:"total_yoe"`
}

// Categories returns the categorical parts of the key in FilterColumns order.
func (k Key) Categories() []string {
	return []string{k.Level, k.Sector, k.GlobalBusiness, k.MemberFirm, k.Gender, k.Education, k.HireSource}
}

// Row builds a row carrying only the key columns.
func (k Key) Row() *Row {
	r := NewRow()
	for i, v := range k.Categories() {
		r.Text[FilterColumns[i]] = v
	}
	r.Number[ColTotalYOE] = float64(k.TotalYOE)
	return r
}

// KeyOf extracts the full key tuple of a row.
func KeyOf(r *Row) Key {
	return Key{
		Level:          r.Text[ColLevel],
		Sector:         r.Text[ColSector],
		GlobalBusiness: r.Text[ColGlobalBusiness],
		MemberFirm:     r.Text[ColMemberFirm],
		Gender:         r.Text[ColGender],
		Education:      r.Text[ColEducation],
		HireSource:     r.Text[ColHireSource],
		TotalYOE:       int(r.Number[ColTotalYOE]),
	}
}

// AggregateRow is one pre-grouped summary for a unique Key.
type AggregateRow struct {
	Key           Key     `json:"key"`
	AverageSalary float64 `json:"average_salary"`
	MedianSalary  float64 `json:"median_salary"`
	AverageAIP    float64 `json:"average_aip"`
	MedianAIP     float64 `json:"median_aip"`
}

// AggregateOf reads the aggregate metrics of a row.
func AggregateOf(r *Row) *AggregateRow {
	return &AggregateRow{
		Key:           KeyOf(r),
		AverageSalary: r.Number[ColAverageSalary],
		MedianSalary:  r.Number[ColMedianSalary],
		AverageAIP:    r.Number[ColAverageAIP],
		MedianAIP:     r.Number[ColMedianAIP],
	}
}

// Dataset names the two survey variants.
type Dataset string

const (
	Responses  Dataset = "responses"
	Aggregates Dataset = "aggregates"
)

// Columns returns the schema of the dataset.
func (d Dataset) Columns() []Column {
	if d == Aggregates {
		return AggregateColumns
	}
	return ResponseColumns
}
