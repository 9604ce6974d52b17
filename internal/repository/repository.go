package repository

import (
	"context"
	"time"

	"github.com/tmarks/go-relief-allocator/internal/models"
)

type Filter struct {
	Limit     int
	Offset    int
	Since     *time.Time
	Type      *models.DisasterType
	Severity  *models.Severity
	MinPeople *int64
}

type EventRepository interface {
	AddEvent(ctx context.Context, e *models.DisasterEvent) error
	EventExists(ctx context.Context, id string) (bool, error)
	ListEvents(ctx context.Context, opts Filter) ([]models.DisasterEvent, error)
}

type BatchRepository interface {
	SaveBatch(ctx context.Context, b *models.BatchResult) error
	GetBatch(ctx context.Context, id string) (*models.BatchResult, error)
	ListBatches(ctx context.Context, opts Filter) ([]models.BatchResult, error)
}

type InventoryRepository interface {
	// GetInventory returns the stored pool; ok is false when no inventory
	// has been written yet.
	GetInventory(ctx context.Context) (models.ResourcePool, bool, error)
	SetInventory(ctx context.Context, pool models.ResourcePool) error
}

// Repository is the full persistence surface the service wires up.
type Repository interface {
	EventRepository
	BatchRepository
	InventoryRepository
}
