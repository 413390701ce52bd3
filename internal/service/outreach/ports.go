package outreach

import (
	"context"

	"github.com/ignite/outreach/internal/delivery"
	"github.com/ignite/outreach/internal/domain"
	"github.com/ignite/outreach/internal/generate"
)

// BatchStore is the slice of batch persistence the pipeline needs.
type BatchStore interface {
	// Get returns one batch including its contacts.
	Get(ctx context.Context, id string) (*domain.Batch, error)

	// UpdateDelivered records how many messages of the batch went out and
	// refreshes the derived rates.
	UpdateDelivered(ctx context.Context, batchID string, delivered int) error
}

// SettingsStore loads the stored dashboard settings.
type SettingsStore interface {
	Get(ctx context.Context) (*domain.Settings, error)
}

// TrackingStore persists the tracking record created for each delivered
// message.
type TrackingStore interface {
	CreateRecord(ctx context.Context, rec *domain.TrackingRecord) error
}

// Generator produces one personalized email, or nil when generation fails.
type Generator interface {
	Generate(ctx context.Context, apiKey string, contact generate.ContactData, prompt string) *generate.Result
}

// Sender delivers rendered messages.
type Sender interface {
	Verify(ctx context.Context, creds delivery.Credentials) error
	Send(ctx context.Context, creds delivery.Credentials, msg *delivery.Message) bool
}
