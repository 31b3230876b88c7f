package services

import (
	"context"

	"total-comp/models"
)

// Fetcher retrieves an unprocessed CSV payload from wherever it lives.
type Fetcher interface {
	Fetch(ctx context.Context) (*models.RawTable, error)
}

// CSVLoader fetches a CSV payload and cleans it into a table of the given schema.
type CSVLoader struct {
	fetcher Fetcher
	cleaner *Cleaner
	columns []models.Column
}

func NewCSVLoader(fetcher Fetcher, cleaner *Cleaner, columns []models.Column) *CSVLoader {
	return &CSVLoader{fetcher: fetcher, cleaner: cleaner, columns: columns}
}

// Load fetches and cleans the dataset.
func (l *CSVLoader) Load(ctx context.Context) (*models.Table, error) {
	raw, err := l.fetcher.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return l.cleaner.Clean(raw, l.columns)
}
