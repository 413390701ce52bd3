package batch

import (
	"context"

	"github.com/ignite/outreach/internal/domain"
)

// Repository defines the data access contract for batches.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Create inserts a batch together with its contacts.
	Create(ctx context.Context, b *domain.Batch) error

	// Get returns one batch including its contacts. Returns ErrNotFound if
	// it doesn't exist.
	Get(ctx context.Context, id string) (*domain.Batch, error)

	// List returns all batches without contacts, newest upload first.
	List(ctx context.Context) ([]domain.Batch, error)

	// Delete removes a batch and cascades to its contacts, tracking
	// records, and events. Returns ErrNotFound if it doesn't exist.
	Delete(ctx context.Context, id string) error

	// Records returns the batch's tracking records, newest send first.
	Records(ctx context.Context, batchID string) ([]domain.TrackingRecord, error)
}
