package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"total-comp/models"
	"total-comp/utils"
)

var responseHeader = []string{
	"LEVEL", "SECTOR", "GLOBAL_BUSINESS", "MEMBER_FIRM", "GENDER", "EDUCATION", "HIRE_SOURCE",
	"TOTAL_YOE", "SALARY", "AIP", "AIP_PERCENT",
}

var aggregateHeader = []string{
	"LEVEL", "SECTOR", "GLOBAL_BUSINESS", "MEMBER_FIRM", "GENDER", "EDUCATION", "HIRE_SOURCE",
	"TOTAL_YOE", "AVERAGE_SALARY", "MEDIAN_SALARY", "AVERAGE_AIP", "MEDIAN_AIP",
}

func newTestLogger() *utils.Logger { return utils.NewDiscardLogger() }

func mustClean(t *testing.T, header []string, columns []models.Column, records ...[]string) *models.Table {
	t.Helper()
	raw := &models.RawTable{Origin: "test.csv", Header: header, Records: records}
	tbl, err := NewCleaner(newTestLogger()).Clean(raw, columns)
	require.NoError(t, err)
	return tbl
}

// sampleResponses has six respondents with TOTAL_YOE 1, 3, 4, 5, 6 and 8.
func sampleResponses(t *testing.T) *models.Table {
	return mustClean(t, responseHeader, models.ResponseColumns,
		[]string{"Senior", "Audit", "USI", "FirmA", "Female", "Masters", "Campus", "1", "60000", "3000", "5"},
		[]string{"Senior", "Tax", "USI", "FirmA", "Male", "Bachelors", "Lateral", "3", "70000", "5000", "7"},
		[]string{"Manager", "Audit", "USI", "FirmB", "Female", "Masters", "Campus", "4", "90000", "9000", "10"},
		[]string{"Manager", "Consulting", "US", "FirmB", "Male", "Masters", "Lateral", "5", "110000", "", ""},
		[]string{"Senior", "Audit", "US", "FirmA", "Female", "Bachelors", "Campus", "6", "80000", "6000", "7.5"},
		[]string{"Director", "Tax", "US", "FirmC", "Male", "PhD", "Lateral", "8", "150000", "30000", "20"},
	)
}

func sampleAggregates(t *testing.T) *models.Table {
	return mustClean(t, aggregateHeader, models.AggregateColumns,
		[]string{"Manager", "Audit", "USI", "FirmA", "Female", "Masters", "Campus", "5", "95000", "93000", "9500", "9000"},
		[]string{"Manager", "Audit", "USI", "FirmA", "Female", "Masters", "Campus", "7", "105000", "104000", "11000", "10500"},
		[]string{"Senior", "Tax", "US", "FirmB", "Male", "Bachelors", "Lateral", "5", "70000", "69000", "5000", "4800"},
	)
}

func managerKey(yoe int) models.Key {
	return models.Key{
		Level:          "Manager",
		Sector:         "Audit",
		GlobalBusiness: "USI",
		MemberFirm:     "FirmA",
		Gender:         "Female",
		Education:      "Masters",
		HireSource:     "Campus",
		TotalYOE:       yoe,
	}
}
