package employee

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Date accepts RFC3339 or YYYY-MM-DD. Unparseable input is kept so the
// validator can report it against its field instead of failing the decode.
type Date struct {
	time.Time
	invalid string
}

func NewDate(t time.Time) Date {
	return Date{Time: t.UTC()}
}

func ParseDate(value string) (Date, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Date{}, true
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return NewDate(parsed), true
	}
	if parsed, err := time.Parse(time.DateOnly, value); err == nil {
		return NewDate(parsed), true
	}
	return Date{invalid: value}, false
}

func (d Date) Invalid() bool {
	return d.invalid != ""
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.UTC().Format(time.RFC3339))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = Date{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		*d = Date{invalid: string(data)}
		return nil
	}
	*d, _ = ParseDate(raw)
	return nil
}

// Ptr converts to a nullable value for the store.
func (d Date) Ptr() *time.Time {
	if d.IsZero() {
		return nil
	}
	t := d.UTC()
	return &t
}
