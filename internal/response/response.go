// Package response renders the JSON envelope every endpoint answers with.
package response

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"staff-api/internal/apperr"
	"staff-api/internal/observability"
	"staff-api/internal/validate"
)

const maxJSONBodyBytes = 1 << 20

type Envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	Data    any                 `json:"data,omitempty"`
	Errors  []apperr.FieldError `json:"errors,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func OK(w http.ResponseWriter, message string, data any) {
	JSON(w, http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

func Created(w http.ResponseWriter, message string, data any) {
	JSON(w, http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{Success: false, Message: message})
}

// Error maps err onto the taxonomy. Internal errors are logged and reported
// but rendered with a generic message.
func Error(w http.ResponseWriter, logger *observability.Logger, err error) {
	appErr := apperr.As(err)

	switch appErr.Kind {
	case apperr.KindInternal:
		logger.Error("request_failed", map[string]any{"error": err})
		observability.CaptureError(err, nil)
		Fail(w, http.StatusInternalServerError, "internal server error")
		return
	case apperr.KindLocked:
		retryAfter := int(time.Until(appErr.Until).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	}

	JSON(w, appErr.Kind.Status(), Envelope{
		Success: false,
		Message: appErr.Message,
		Errors:  appErr.Fields,
	})
}

// DecodeJSON reads a bounded JSON body into dst. Type mismatches come back as
// field-tagged validation errors.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return validate.DecodeError(err)
	}
	if decoder.More() {
		return apperr.New(apperr.KindValidation, "invalid json body")
	}
	return nil
}

// ReadBody returns the raw bounded body, for merge-style updates.
func ReadBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, apperr.New(apperr.KindValidation, "invalid json body")
	}
	if !json.Valid(raw) {
		return nil, apperr.New(apperr.KindValidation, "invalid json body")
	}
	return raw, nil
}
