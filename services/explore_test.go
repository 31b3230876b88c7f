package services

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"total-comp/models"
)

func TestExploreSelection(t *testing.T) {
	tbl := sampleResponses(t)
	sel := Selection{}.
		Equals(models.ColLevel, "Senior").
		Equals(models.ColSector, models.Wildcard).
		Between(models.ColTotalYOE, 0, 5)

	exp, err := NewExplorer(newTestLogger()).Explore(tbl, sel)
	require.NoError(t, err)

	assert.Equal(t, []string{"LEVEL = Senior", "TOTAL_YOE in [0, 5]"}, exp.Filters)
	assert.Equal(t, 2, exp.Summary.Count)
	assert.Equal(t, 2, exp.Table().Len())
	assert.Equal(t, []float64{60000, 70000}, exp.Distributions[models.ColSalary])
	assert.Equal(t, []float64{5, 7}, exp.Distributions[models.ColAIPPercent])
	assert.Len(t, exp.Distributions, len(models.CompensationColumns))
}

func TestExploreAllWildcards(t *testing.T) {
	tbl := sampleResponses(t)
	sel := Selection{}.Equals(models.ColLevel, models.Wildcard).Equals(models.ColGender, models.Wildcard)

	exp, err := NewExplorer(newTestLogger()).Explore(tbl, sel)
	require.NoError(t, err)
	assert.Empty(t, exp.Filters)
	assert.Equal(t, tbl.Len(), exp.Summary.Count)
}

func TestExploreEmptyResult(t *testing.T) {
	sel := Selection{}.Equals(models.ColLevel, "Director").Equals(models.ColSector, "Audit")
	_, err := NewExplorer(newTestLogger()).Explore(sampleResponses(t), sel)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrEmptyFilterResult))
	assert.True(t, models.IsNoData(err))
}

func TestExploreUnknownColumn(t *testing.T) {
	_, err := NewExplorer(newTestLogger()).Explore(sampleResponses(t), Selection{}.Equals("REGION", "EMEA"))
	assert.True(t, errors.Is(err, models.ErrColumnNotFound))
	assert.False(t, models.IsNoData(err))
}
