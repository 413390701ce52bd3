package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ignite/outreach/internal/domain"
)

// StatsOverview returns dashboard totals across all batches.
func (h *Handlers) StatsOverview(w http.ResponseWriter, r *http.Request) {
	stats, err := h.batches.Overview(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to compute overview")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// StatsMonthly returns per-month send/open buckets for the dashboard chart.
func (h *Handlers) StatsMonthly(w http.ResponseWriter, r *http.Request) {
	stats, err := h.batches.Monthly(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to compute monthly stats")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"months": stats})
}

// RecentEvents returns the newest tracking events after an optional
// "since" cursor (RFC 3339). The dashboard polls this instead of holding
// a stream open.
func (h *Handlers) RecentEvents(w http.ResponseWriter, r *http.Request) {
	since := time.Now().Add(-24 * time.Hour)
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "since must be RFC 3339")
			return
		}
		since = parsed
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	events, err := h.events.RecentEvents(r.Context(), since, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load events")
		return
	}
	if events == nil {
		events = []domain.TrackingEvent{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}
