package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"staff-api/internal/auth"
	"staff-api/internal/employee"
	"staff-api/internal/maintenance"
	"staff-api/internal/observability"
)

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

type stubAdmins struct {
	admin auth.Admin
}

func (s *stubAdmins) GetByUsername(_ context.Context, username string) (auth.Admin, error) {
	if username != s.admin.Username {
		return auth.Admin{}, auth.ErrAdminNotFound
	}
	return s.admin, nil
}

func (s *stubAdmins) GetByID(_ context.Context, id string) (auth.Admin, error) {
	if id != s.admin.ID {
		return auth.Admin{}, auth.ErrAdminNotFound
	}
	return s.admin, nil
}

func (s *stubAdmins) RegisterFailedAttempt(context.Context, string, auth.LockPolicy, time.Time) (auth.LockState, error) {
	return auth.LockState{Attempts: 1}, nil
}

func (s *stubAdmins) RecordLogin(context.Context, string, time.Time) error { return nil }

func (s *stubAdmins) UpsertAdmin(context.Context, auth.Admin) error { return nil }

type stubLocks struct{}

func (stubLocks) ReleaseExpiredLocks(context.Context, time.Time, int) (int64, error) { return 0, nil }

func newTestHandler(t *testing.T, dbErr error) http.Handler {
	t.Helper()
	return newTestHandlerWithConfig(t, Config{
		APIPrefix:            "/api",
		APIRatePerMinute:     6000,
		APIRateBurst:         100,
		LoginRateLimitMax:    10,
		LoginRateLimitWindow: time.Minute,
	}, dbErr)
}

func newTestHandlerWithConfig(t *testing.T, cfg Config, dbErr error) http.Handler {
	t.Helper()
	hash, err := auth.HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	admins := &stubAdmins{admin: auth.Admin{
		ID:           "0190a8f0-0000-7000-8000-000000000001",
		Username:     "root",
		Email:        "root@example.com",
		PasswordHash: hash,
		Role:         auth.RoleAdmin,
		IsActive:     true,
	}}
	logger := observability.NewLoggerTo(&bytes.Buffer{})

	return newRouter(routerDeps{
		config:      cfg,
		logger:      logger,
		database:    stubPinger{err: dbErr},
		authService: auth.NewService(admins, "router-test-secret"),
		employees:   employee.NewService(nil, nil),
		cleanup:     maintenance.NewCleanupHandler(stubLocks{}, logger, "", 10),
	})
}

func do(t *testing.T, h http.Handler, method, path, token, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode %s %s: %v (%s)", method, path, err, rec.Body.String())
	}
	return rec, payload
}

func TestHealth(t *testing.T) {
	rec, payload := do(t, newTestHandler(t, nil), http.MethodGet, "/api/health", "", "")
	if rec.Code != http.StatusOK || payload["success"] != true {
		t.Fatalf("expected healthy, got %d: %v", rec.Code, payload)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("expected security headers on every response")
	}

	rec, _ = do(t, newTestHandler(t, errors.New("no route to host")), http.MethodGet, "/api/health", "", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when the database is down, got %d", rec.Code)
	}
}

func TestRoutingAndAuthGate(t *testing.T) {
	h := newTestHandler(t, nil)

	rec, payload := do(t, h, http.MethodGet, "/api/nope", "", "")
	if rec.Code != http.StatusNotFound || payload["success"] != false {
		t.Fatalf("expected 404 envelope, got %d: %v", rec.Code, payload)
	}

	rec, payload = do(t, h, http.MethodGet, "/api/employees", "", "")
	if rec.Code != http.StatusUnauthorized || payload["message"] != "access denied, no token provided" {
		t.Fatalf("expected missing token, got %d: %v", rec.Code, payload)
	}

	rec, _ = do(t, h, http.MethodGet, "/api/internal/maintenance/cleanup", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected cleanup hidden without a cron secret, got %d", rec.Code)
	}
}

func TestLoginThenReachEmployees(t *testing.T) {
	h := newTestHandler(t, nil)

	rec, payload := do(t, h, http.MethodPost, "/api/auth/login", "", `{"username":"root","password":"correct horse battery"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected login, got %d: %v", rec.Code, payload)
	}
	data, _ := payload["data"].(map[string]any)
	token, _ := data["token"].(string)
	if token == "" {
		t.Fatalf("expected a token, got %v", payload)
	}

	rec, payload = do(t, h, http.MethodGet, "/api/auth/profile", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected profile, got %d: %v", rec.Code, payload)
	}

	rec, payload = do(t, h, http.MethodGet, "/api/employees/not-a-uuid", token, "")
	if rec.Code != http.StatusBadRequest || payload["message"] != "invalid employee id" {
		t.Fatalf("expected invalid id from the employee handler, got %d: %v", rec.Code, payload)
	}

	rec, _ = do(t, h, http.MethodPost, "/api/auth/logout", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected logout, got %d", rec.Code)
	}
}

func TestLoginLimitIgnoresForwardedHeadersUnlessTrusted(t *testing.T) {
	login := func(h http.Handler, forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"root","password":"wrong"}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "198.51.100.20:5000"
		req.Header.Set("X-Forwarded-For", forwarded)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	cfg := Config{
		APIPrefix:            "/api",
		APIRatePerMinute:     6000,
		APIRateBurst:         100,
		LoginRateLimitMax:    2,
		LoginRateLimitWindow: time.Minute,
	}

	h := newTestHandlerWithConfig(t, cfg, nil)
	for i, forwarded := range []string{"203.0.113.1", "203.0.113.2"} {
		if code := login(h, forwarded); code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i, code)
		}
	}
	if code := login(h, "203.0.113.3"); code != http.StatusTooManyRequests {
		t.Fatalf("expected rotated X-Forwarded-For to stay limited, got %d", code)
	}

	cfg.TrustProxyHeaders = true
	h = newTestHandlerWithConfig(t, cfg, nil)
	for i := 0; i < 2; i++ {
		if code := login(h, "203.0.113.1"); code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i, code)
		}
	}
	if code := login(h, "203.0.113.1"); code != http.StatusTooManyRequests {
		t.Fatalf("expected forwarded client to be limited, got %d", code)
	}
	if code := login(h, "203.0.113.2"); code != http.StatusUnauthorized {
		t.Fatalf("expected a different forwarded client to pass behind a trusted proxy, got %d", code)
	}
}
