package tracking

import (
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// 1x1 transparent GIF
var pixelGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00,
	0x80, 0x00, 0x00, 0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x2c,
	0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x02,
	0x02, 0x44, 0x01, 0x00, 0x3b,
}

// Handler serves the public tracking endpoints. Both endpoints complete
// their visible behavior (pixel, redirect) no matter what happens on the
// recording side; a broken tracker must never break an email client.
type Handler struct {
	collector *Collector
}

func NewHandler(collector *Collector) *Handler {
	return &Handler{collector: collector}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/track/open", h.HandleOpen)
	r.Get("/track/click/{trackingID}", h.HandleClick)
	return r
}

func (h *Handler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	defer servePixel(w)

	trackingID := r.URL.Query().Get("id")
	if trackingID == "" {
		return
	}

	hit := Hit{
		TrackingID: trackingID,
		IPAddress:  realIP(r),
		UserAgent:  r.UserAgent(),
	}
	if err := h.collector.RecordOpen(r.Context(), hit); err != nil {
		log.Printf("[tracking] record open id=%s: %v", trackingID, err)
	}
}

func (h *Handler) HandleClick(w http.ResponseWriter, r *http.Request) {
	trackingID := chi.URLParam(r, "trackingID")
	target := r.URL.Query().Get("url")

	if trackingID != "" && target != "" {
		hit := Hit{
			TrackingID: trackingID,
			IPAddress:  realIP(r),
			UserAgent:  r.UserAgent(),
			URL:        target,
		}
		if err := h.collector.RecordClick(r.Context(), hit); err != nil {
			log.Printf("[tracking] record click id=%s: %v", trackingID, err)
		}
	}

	if target == "" {
		target = "/"
	}
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

func servePixel(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.Write(pixelGIF)
}

func realIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
