package employee

import (
	"bytes"
	"encoding/json"
	"strings"

	"staff-api/internal/apperr"
	"staff-api/internal/validate"
)

// Patch mutates a copy of the stored input during an update.
type Patch func(*Input) error

// inputBody accepts server-owned and derived keys so a client can send back
// a record it read. Their values are discarded.
type inputBody struct {
	*Input
	ID             json.RawMessage `json:"id"`
	EmployeeID     json.RawMessage `json:"employeeId"`
	IsActive       json.RawMessage `json:"isActive"`
	CreatedAt      json.RawMessage `json:"createdAt"`
	UpdatedAt      json.RawMessage `json:"updatedAt"`
	FullName       json.RawMessage `json:"fullName"`
	YearsOfService json.RawMessage `json:"yearsOfService"`
	ManagerInfo    json.RawMessage `json:"managerInfo"`
}

// DecodeInput decodes raw onto dst. Each top-level section present in raw
// replaces the matching section of dst whole; absent sections stay unchanged.
func DecodeInput(raw []byte, dst *Input) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return apperr.New(apperr.KindValidation, "request body is required")
	}
	var sections map[string]json.RawMessage
	if err := json.Unmarshal(raw, &sections); err != nil {
		return validate.DecodeError(err)
	}
	for key := range sections {
		resetSection(dst, key)
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&inputBody{Input: dst}); err != nil {
		return validate.DecodeError(err)
	}
	if decoder.More() {
		return apperr.New(apperr.KindValidation, "invalid json body")
	}
	return nil
}

// resetSection matches keys case-insensitively, like encoding/json does.
func resetSection(dst *Input, key string) {
	switch strings.ToLower(key) {
	case "personalinfo":
		dst.PersonalInfo = PersonalInfo{}
	case "employment":
		dst.Employment = Employment{}
	case "compensation":
		dst.Compensation = Compensation{}
	case "performance":
		dst.Performance = Performance{}
	case "documents":
		dst.Documents = nil
	}
}

func JSONPatch(raw []byte) Patch {
	return func(in *Input) error {
		return DecodeInput(raw, in)
	}
}
