package response

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"staff-api/internal/apperr"
	"staff-api/internal/observability"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	return env
}

func TestErrorMapsTaxonomy(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"validation", apperr.Validation([]apperr.FieldError{{Field: "email", Message: "is invalid"}}), http.StatusBadRequest, "validation failed"},
		{"conflict", apperr.Conflict("personalInfo.email", "email already exists", "a@b.co"), http.StatusBadRequest, "email already exists"},
		{"not found", apperr.NotFound("employee not found"), http.StatusNotFound, "employee not found"},
		{"unauthorized", apperr.New(apperr.KindUnauthorized, "token expired"), http.StatusUnauthorized, "token expired"},
		{"internal hides cause", errors.New("pq: relation does not exist"), http.StatusInternalServerError, "internal server error"},
	}

	logger := observability.NewLoggerTo(&bytes.Buffer{})
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Error(rec, logger, tc.err)

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, rec.Code)
			}
			env := decodeEnvelope(t, rec)
			if env.Success {
				t.Fatal("expected success=false")
			}
			if env.Message != tc.wantMsg {
				t.Fatalf("expected message %q, got %q", tc.wantMsg, env.Message)
			}
		})
	}
}

func TestErrorSetsRetryAfterForLocked(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, nil, apperr.Locked("account locked", time.Now().Add(90*time.Second)))

	if rec.Code != http.StatusLocked {
		t.Fatalf("expected 423, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}

func TestDecodeJSONReportsTypeMismatchAsField(t *testing.T) {
	var dst struct {
		Compensation struct {
			Salary *float64 `json:"salary"`
		} `json:"compensation"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"compensation":{"salary":"lots"}}`))

	err := DecodeJSON(httptest.NewRecorder(), req, &dst)
	appErr := apperr.As(err)
	if appErr.Kind != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(appErr.Fields) != 1 || appErr.Fields[0].Field != "compensation.salary" {
		t.Fatalf("expected compensation.salary field error, got %+v", appErr.Fields)
	}
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var dst struct {
		Username string `json:"username"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"username":"a","admin":true}`))
	if err := DecodeJSON(httptest.NewRecorder(), req, &dst); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
