package api

import (
	"encoding/json"
	"net/http"

	"github.com/ignite/outreach/internal/domain"
)

// GetSettings returns the stored settings with the two secrets masked.
// The dashboard only needs to know whether they are set.
func (h *Handlers) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings.Get(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"openai_api_key_set": s.OpenAIAPIKey != "",
		"email":              s.Email,
		"app_password_set":   s.AppPassword != "",
		"cc_recipients":      s.CCRecipients,
		"sender":             s.Sender,
	})
}

// SaveSettings replaces the stored settings. A blank secret in the request
// keeps the previously stored one, so the dashboard can resubmit the form
// without re-entering credentials.
func (h *Handlers) SaveSettings(w http.ResponseWriter, r *http.Request) {
	var req domain.Settings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	current, err := h.settings.Get(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	if req.OpenAIAPIKey == "" {
		req.OpenAIAPIKey = current.OpenAIAPIKey
	}
	if req.AppPassword == "" {
		req.AppPassword = current.AppPassword
	}

	if err := h.settings.Save(r.Context(), &req); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}
