package maintenance

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"staff-api/internal/observability"
)

type stubReleaser struct {
	released int64
	err      error
	calls    int
	gotNow   time.Time
	gotBatch int
}

func (s *stubReleaser) ReleaseExpiredLocks(_ context.Context, now time.Time, batchSize int) (int64, error) {
	s.calls++
	s.gotNow = now
	s.gotBatch = batchSize
	return s.released, s.err
}

func TestCleanupHandler(t *testing.T) {
	now := time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC)
	tests := []struct {
		name       string
		secret     string
		method     string
		auth       string
		releaseErr error
		wantStatus int
		wantCalls  int
	}{
		{"disabled without secret", "", http.MethodPost, "Bearer s3cret", nil, http.StatusNotFound, 0},
		{"wrong method", "s3cret", http.MethodDelete, "Bearer s3cret", nil, http.StatusMethodNotAllowed, 0},
		{"missing auth", "s3cret", http.MethodPost, "", nil, http.StatusUnauthorized, 0},
		{"wrong secret", "s3cret", http.MethodGet, "Bearer nope", nil, http.StatusUnauthorized, 0},
		{"store failure", "s3cret", http.MethodPost, "Bearer s3cret", errors.New("db down"), http.StatusInternalServerError, 1},
		{"released", "s3cret", http.MethodGet, "bearer s3cret", nil, http.StatusOK, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			releaser := &stubReleaser{released: 2, err: tc.releaseErr}
			h := NewCleanupHandler(releaser, observability.NewLoggerTo(&bytes.Buffer{}), tc.secret, 250)
			h.now = func() time.Time { return now }

			req := httptest.NewRequest(tc.method, "/api/internal/maintenance/cleanup", nil)
			if tc.auth != "" {
				req.Header.Set("Authorization", tc.auth)
			}
			rec := httptest.NewRecorder()
			h.Handle(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tc.wantStatus, rec.Code, rec.Body.String())
			}
			if releaser.calls != tc.wantCalls {
				t.Fatalf("expected %d calls, got %d", tc.wantCalls, releaser.calls)
			}
			if tc.wantStatus == http.StatusOK {
				if !releaser.gotNow.Equal(now) || releaser.gotBatch != 250 {
					t.Fatalf("unexpected arguments now=%v batch=%d", releaser.gotNow, releaser.gotBatch)
				}
				if !strings.Contains(rec.Body.String(), `"releasedLocks":2`) {
					t.Fatalf("unexpected body %s", rec.Body.String())
				}
			}
		})
	}
}
