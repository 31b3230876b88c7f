package storage

import (
	"context"

	"total-comp/models"
)

// Loader produces a typed, validated table.
type Loader interface {
	Load(ctx context.Context) (*models.Table, error)
}

// TableWriter is the interface any storage backend must satisfy to persist a table.
type TableWriter interface {
	Write(ctx context.Context, t *models.Table) error
	Close() error
}
