// Package validate collects field-level issues so a request reports every
// violation at once.
package validate

import (
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"staff-api/internal/apperr"
)

var emailRegex = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

type Validator struct {
	issues []apperr.FieldError
}

func New() *Validator {
	return &Validator{issues: make([]apperr.FieldError, 0, 4)}
}

func (v *Validator) Add(field, message string, value any) {
	if v == nil || strings.TrimSpace(message) == "" {
		return
	}
	v.issues = append(v.issues, apperr.FieldError{Field: field, Message: message, Value: value})
}

// Required reports a blank value and returns whether the value is present.
func (v *Validator) Required(field, value string) bool {
	if strings.TrimSpace(value) == "" {
		v.Add(field, field+" is required", nil)
		return false
	}
	return true
}

// Length checks a trimmed rune length and treats blank as missing.
func (v *Validator) Length(field, value string, minLen, maxLen int) {
	if !v.Required(field, value) {
		return
	}
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	if n < minLen || n > maxLen {
		v.Add(field, field+" must be between "+strconv.Itoa(minLen)+" and "+strconv.Itoa(maxLen)+" characters", value)
	}
}

func (v *Validator) Email(field, value string) {
	if !v.Required(field, value) {
		return
	}
	if !emailRegex.MatchString(value) {
		v.Add(field, "please provide a valid email", value)
	}
}

func (v *Validator) Match(field, value string, pattern *regexp.Regexp, message string) {
	if !v.Required(field, value) {
		return
	}
	if !pattern.MatchString(value) {
		v.Add(field, message, value)
	}
}

// OneOf is case-sensitive; empty values are skipped so defaults can apply.
func (v *Validator) OneOf(field, value string, allowed []string) {
	if value == "" {
		return
	}
	for _, candidate := range allowed {
		if value == candidate {
			return
		}
	}
	v.Add(field, field+" must be one of: "+strings.Join(allowed, ", "), value)
}

func (v *Validator) PastDate(field string, value time.Time, now time.Time) {
	if value.IsZero() {
		v.Add(field, field+" is required", nil)
		return
	}
	if !value.Before(now) {
		v.Add(field, field+" must be in the past", value.Format(time.DateOnly))
	}
}

func (v *Validator) NotFuture(field string, value time.Time, now time.Time) {
	if value.IsZero() {
		v.Add(field, field+" is required", nil)
		return
	}
	if value.After(now) {
		v.Add(field, field+" cannot be in the future", value.Format(time.DateOnly))
	}
}

func (v *Validator) HasIssues() bool {
	return v != nil && len(v.issues) > 0
}

func (v *Validator) Issues() []apperr.FieldError {
	if v == nil || len(v.issues) == 0 {
		return nil
	}
	out := make([]apperr.FieldError, len(v.issues))
	copy(out, v.issues)
	return out
}

// Err returns nil or a validation error holding every issue.
func (v *Validator) Err() error {
	if !v.HasIssues() {
		return nil
	}
	return apperr.Validation(v.Issues())
}

// DecodeError maps a JSON decode failure onto the error taxonomy. Type
// mismatches become field errors.
func DecodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return apperr.Validation([]apperr.FieldError{{
			Field:   typeErr.Field,
			Message: typeErr.Field + " must be of type " + typeErr.Type.String(),
		}})
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperr.New(apperr.KindValidation, "invalid json body")
}
