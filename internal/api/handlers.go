package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ignite/outreach/internal/domain"
	"github.com/ignite/outreach/internal/service/batch"
	"github.com/ignite/outreach/internal/service/outreach"
)

// SettingsStore persists the dashboard settings.
type SettingsStore interface {
	Get(ctx context.Context) (*domain.Settings, error)
	Save(ctx context.Context, s *domain.Settings) error
}

// EventFeed reads recent tracking events for dashboard polling.
type EventFeed interface {
	RecentEvents(ctx context.Context, since time.Time, limit int) ([]domain.TrackingEvent, error)
}

// Handlers contains all HTTP handlers
type Handlers struct {
	batches  *batch.Service
	pipeline *outreach.Service
	settings SettingsStore
	events   EventFeed
}

// NewHandlers creates a new Handlers instance
func NewHandlers(batches *batch.Service, pipeline *outreach.Service, settings SettingsStore, events EventFeed) *Handlers {
	return &Handlers{
		batches:  batches,
		pipeline: pipeline,
		settings: settings,
		events:   events,
	}
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
