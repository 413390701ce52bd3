package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ignite/outreach/internal/config"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		Email:        "amit@foreignadmits.com",
		Password:     "secret-password",
		CookieName:   "email-outreach-session",
		CookieMaxAge: 3600,
	}
}

func newTestManager() *Manager {
	cfg := testAuthConfig()
	return NewManager(cfg, NewFixedProvider(cfg.Email, cfg.Password))
}

func TestFixedProvider(t *testing.T) {
	p := NewFixedProvider("amit@foreignadmits.com", "secret-password")

	if err := p.Authenticate(context.Background(), "amit@foreignadmits.com", "secret-password"); err != nil {
		t.Fatal(err)
	}
	if err := p.Authenticate(context.Background(), "amit@foreignadmits.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: %v", err)
	}
	if err := p.Authenticate(context.Background(), "other@x.io", "secret-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong email: %v", err)
	}
}

func TestFixedProviderUnconfigured(t *testing.T) {
	p := NewFixedProvider("", "")
	if err := p.Authenticate(context.Background(), "", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("empty credentials must never authenticate: %v", err)
	}
}

func doLogin(t *testing.T, m *Manager, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/auth/login", strings.NewReader(body))
	rr := httptest.NewRecorder()
	m.HandleLogin(rr, req)
	return rr
}

func TestLoginSetsSessionCookie(t *testing.T) {
	m := newTestManager()

	rr := doLogin(t, m, `{"email":"amit@foreignadmits.com","password":"secret-password"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body)
	}

	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "email-outreach-session" {
		t.Fatalf("cookies = %+v", cookies)
	}
	if cookies[0].Value == "" || !cookies[0].HttpOnly {
		t.Errorf("cookie = %+v", cookies[0])
	}

	req := httptest.NewRequest("GET", "/api/auth/session", nil)
	req.AddCookie(cookies[0])
	if m.Session(req) == nil {
		t.Error("session should be live after login")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	m := newTestManager()

	rr := doLogin(t, m, `{"email":"amit@foreignadmits.com","password":"nope"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rr.Code)
	}
	if len(rr.Result().Cookies()) != 0 {
		t.Error("failed login must not set a cookie")
	}
}

func TestLoginRejectsMalformedBody(t *testing.T) {
	m := newTestManager()
	if rr := doLogin(t, m, "{not json"); rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestLogoutDestroysSession(t *testing.T) {
	m := newTestManager()
	rr := doLogin(t, m, `{"email":"amit@foreignadmits.com","password":"secret-password"}`)
	cookie := rr.Result().Cookies()[0]

	req := httptest.NewRequest("POST", "/api/auth/logout", nil)
	req.AddCookie(cookie)
	out := httptest.NewRecorder()
	m.HandleLogout(out, req)

	if out.Code != http.StatusOK {
		t.Fatalf("status = %d", out.Code)
	}
	cleared := out.Result().Cookies()
	if len(cleared) != 1 || cleared[0].MaxAge != -1 {
		t.Errorf("logout should clear the cookie: %+v", cleared)
	}

	check := httptest.NewRequest("GET", "/", nil)
	check.AddCookie(cookie)
	if m.Session(check) != nil {
		t.Error("session should be gone after logout")
	}
}

func TestSessionExpiry(t *testing.T) {
	m := newTestManager()
	rr := doLogin(t, m, `{"email":"amit@foreignadmits.com","password":"secret-password"}`)
	cookie := rr.Result().Cookies()[0]

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookie)
	if m.Session(req) != nil {
		t.Error("expired session should not resolve")
	}
}

func TestRequireAuth(t *testing.T) {
	m := newTestManager()
	handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	public := []string{"/api/auth/login", "/api/auth/session", "/track/open", "/track/click/t1", "/health"}
	for _, path := range public {
		req := httptest.NewRequest("GET", path, nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("%s should be public, got %d", path, rr.Code)
		}
	}

	req := httptest.NewRequest("GET", "/api/batches", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("protected route without session = %d, want 401", rr.Code)
	}

	login := doLogin(t, m, `{"email":"amit@foreignadmits.com","password":"secret-password"}`)
	authed := httptest.NewRequest("GET", "/api/batches", nil)
	authed.AddCookie(login.Result().Cookies()[0])
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, authed)
	if rr.Code != http.StatusOK {
		t.Errorf("protected route with session = %d, want 200", rr.Code)
	}
}
