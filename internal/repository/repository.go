// Package repository defines the watermark engine's storage port (spec
// §6: insert/delete/find_by/list_active) and its PostgreSQL implementation.
package repository

import (
	"context"

	"github.com/auroraa/watermark-engine/pkg/models"
)

// Repository is the abstract store port the embed/verify flows are written
// against. The compensating-write discipline (insert active, run the
// algorithm, delete on failure) lives in the caller, not here: the store's
// transactionality is never assumed.
type Repository interface {
	Insert(ctx context.Context, record models.WatermarkRecord) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*models.WatermarkRecord, error)
	ListActive(ctx context.Context, limit int) ([]models.WatermarkRecord, error)
}
