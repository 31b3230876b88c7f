package services

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"total-comp/models"
)

func TestReporterPrintExploration(t *testing.T) {
	exp, err := NewExplorer(newTestLogger()).Explore(sampleResponses(t), Selection{}.Equals(models.ColGender, "Male"))
	require.NoError(t, err)

	var buf bytes.Buffer
	NewReporter(&buf).PrintExploration(exp)
	out := buf.String()

	assert.Contains(t, out, "GENDER = Male")
	assert.Contains(t, out, "Matching responses")
	assert.Contains(t, out, "SALARY distribution")
	assert.Contains(t, out, "mean")
	assert.Contains(t, out, "█")
}

func TestReporterPrintSummaryUndefinedStats(t *testing.T) {
	var buf bytes.Buffer
	NewReporter(&buf).PrintSummary(Summarize(salaries(t, "50000")))
	assert.Contains(t, buf.String(), "NaN", "std of a single value is undefined")

	buf.Reset()
	NewReporter(&buf).PrintSummary(Summarize(sampleResponses(t).Derive(nil)))
	assert.Contains(t, buf.String(), models.NoDataMessage)
}

func TestReporterPrintAggregate(t *testing.T) {
	row, err := Lookup(sampleAggregates(t), managerKey(5))
	require.NoError(t, err)

	var buf bytes.Buffer
	NewReporter(&buf).PrintAggregate(row)
	out := buf.String()
	assert.Contains(t, out, "(Manager, Audit, USI, FirmA, Female, Masters, Campus, 5)")
	assert.Contains(t, out, "$95000")
	assert.Contains(t, out, "$9000")
}

func TestReporterPrintNoData(t *testing.T) {
	var buf bytes.Buffer
	NewReporter(&buf).PrintNoData(errors.Wrap(models.ErrEmptyFilterResult, "LEVEL = Partner"))
	assert.Contains(t, buf.String(), models.NoDataMessage)
	assert.Contains(t, buf.String(), "LEVEL = Partner")
}

func TestFormatStat(t *testing.T) {
	assert.Equal(t, "120000", formatStat(120000))
	assert.Equal(t, "7.50", formatStat(7.5))
	assert.Equal(t, 40, scaled(10, 10, 40))
	assert.Equal(t, 1, scaled(1, 1000, 40))
	assert.Equal(t, 0, scaled(0, 0, 40))
}
