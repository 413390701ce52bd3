// Package auth implements the dashboard's session authentication: a
// credential check against the configured account, an in-memory session
// store keyed by a random cookie value, and the middleware that guards the
// API routes.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ignite/outreach/internal/config"
)

// Session represents an authenticated dashboard session.
type Session struct {
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Manager handles login, logout, and session lookup.
type Manager struct {
	cfg      config.AuthConfig
	provider Provider

	sessionMu sync.RWMutex
	sessions  map[string]*Session

	now  func() time.Time
	done chan struct{}
}

// NewManager creates an authentication manager.
func NewManager(cfg config.AuthConfig, provider Provider) *Manager {
	return &Manager{
		cfg:      cfg,
		provider: provider,
		sessions: make(map[string]*Session),
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// generateSessionID creates a random session ID
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin authenticates a credential pair and sets the session cookie.
func (m *Manager) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := m.provider.Authenticate(r.Context(), req.Email, req.Password); err != nil {
		log.Printf("[auth] failed login for %s", req.Email)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": ErrInvalidCredentials.Error()})
		return
	}

	sessionID, err := generateSessionID()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "session creation failed"})
		return
	}

	now := m.now()
	session := &Session{
		Email:     req.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Duration(m.cfg.CookieMaxAge) * time.Second),
	}
	m.sessionMu.Lock()
	m.sessions[sessionID] = session
	m.sessionMu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   m.cfg.CookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	log.Printf("[auth] logged in %s", req.Email)
	writeJSON(w, http.StatusOK, map[string]any{"authenticated": true, "email": req.Email})
}

// HandleLogout destroys the current session and clears the cookie.
func (m *Manager) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(m.cfg.CookieName); err == nil {
		m.sessionMu.Lock()
		delete(m.sessions, cookie.Value)
		m.sessionMu.Unlock()
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
}

// HandleSession reports whether the request carries a live session.
func (m *Manager) HandleSession(w http.ResponseWriter, r *http.Request) {
	session := m.Session(r)
	if session == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"authenticated": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"email":         session.Email,
		"expires_at":    session.ExpiresAt,
	})
}

// Session returns the live session for the request, or nil. Expired
// sessions are evicted on sight.
func (m *Manager) Session(r *http.Request) *Session {
	cookie, err := r.Cookie(m.cfg.CookieName)
	if err != nil {
		return nil
	}

	m.sessionMu.RLock()
	session, exists := m.sessions[cookie.Value]
	m.sessionMu.RUnlock()
	if !exists {
		return nil
	}

	if m.now().After(session.ExpiresAt) {
		m.sessionMu.Lock()
		delete(m.sessions, cookie.Value)
		m.sessionMu.Unlock()
		return nil
	}
	return session
}

// RequireAuth guards everything except the login/session endpoints, the
// public tracking endpoints, and the health check. Unauthenticated API
// calls get a JSON 401.
func (m *Manager) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if strings.HasPrefix(path, "/api/auth/") ||
			strings.HasPrefix(path, "/track/") ||
			path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		if m.Session(r) == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// StartCleanup evicts expired sessions periodically until Stop is called.
func (m *Manager) StartCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-m.done:
				return
			case <-ticker.C:
				m.sessionMu.Lock()
				now := m.now()
				for id, session := range m.sessions {
					if now.After(session.ExpiresAt) {
						delete(m.sessions, id)
					}
				}
				m.sessionMu.Unlock()
			}
		}
	}()
}

// Stop halts the cleanup goroutine.
func (m *Manager) Stop() {
	close(m.done)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
