package employee

import (
	"encoding/json"
	"testing"
	"time"
)

func TestYearsOfService(t *testing.T) {
	start := NewDate(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	tests := []struct {
		name  string
		start Date
		end   Date
		now   time.Time
		want  float64
	}{
		{"one year", start, Date{}, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 1.0},
		{"started today", NewDate(testNow), Date{}, testNow, 0},
		{"end date wins over now", start, NewDate(time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)), testNow, 0.49},
		{"future start clamps to zero", NewDate(testNow.AddDate(0, 1, 0)), Date{}, testNow, 0},
		{"missing start", Date{}, Date{}, testNow, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := YearsOfService(tc.start, tc.end, tc.now); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestNormalizeFillsDefaults(t *testing.T) {
	in := validInput(" Ada ", " Lovelace ", " ADA@Example.com ", "Engineering")
	in.Compensation.Currency = "eur"
	in.Performance.Goals = []Goal{{Title: " Ship v2 "}}
	Normalize(&in)

	if in.PersonalInfo.FirstName != "Ada" || in.PersonalInfo.LastName != "Lovelace" {
		t.Fatalf("expected trimmed names, got %+v", in.PersonalInfo)
	}
	if in.PersonalInfo.Email != "ada@example.com" {
		t.Fatalf("expected lowercased email, got %q", in.PersonalInfo.Email)
	}
	if in.Compensation.Currency != "EUR" {
		t.Fatalf("expected uppercased currency, got %q", in.Compensation.Currency)
	}
	if g := in.Performance.Goals[0]; g.Title != "Ship v2" || g.Status != "Not Started" {
		t.Fatalf("unexpected goal %+v", g)
	}
	if issues := in.Validate(testNow).Issues(); len(issues) != 0 {
		t.Fatalf("expected valid input, got %+v", issues)
	}
}

func TestValidateRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Input)
		field  string
	}{
		{"phone letters", func(in *Input) { in.PersonalInfo.Phone = "call-me" }, "personalInfo.phone"},
		{"phone leading zero", func(in *Input) { in.PersonalInfo.Phone = "0123456" }, "personalInfo.phone"},
		{"unparseable birth date", func(in *Input) { in.PersonalInfo.DateOfBirth, _ = ParseDate("12/04/1990") }, "personalInfo.dateOfBirth"},
		{"position too short", func(in *Input) { in.Employment.Position = "X" }, "employment.position"},
		{"unknown level", func(in *Input) { in.Employment.Level = "Intern" }, "employment.level"},
		{"end before start", func(in *Input) { in.Employment.EndDate = NewDate(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)) }, "employment.endDate"},
		{"negative salary", func(in *Input) { in.Compensation.Salary = ptr(-10.0) }, "compensation.salary"},
		{"salary with fractional cents", func(in *Input) { in.Compensation.Salary = ptr(85000.555) }, "compensation.salary"},
		{"salary beyond column range", func(in *Input) { in.Compensation.Salary = ptr(1e12) }, "compensation.salary"},
		{"short currency", func(in *Input) { in.Compensation.Currency = "US" }, "compensation.currency"},
		{"unknown pay frequency", func(in *Input) { in.Compensation.PayFrequency = "Daily" }, "compensation.payFrequency"},
		{"negative paid time off", func(in *Input) { in.Compensation.Benefits.PaidTimeOff = -1 }, "compensation.benefits.paidTimeOff"},
		{"rating above range", func(in *Input) { in.Performance.Rating = ptr(6.0) }, "performance.rating"},
		{"rating with three decimals", func(in *Input) { in.Performance.Rating = ptr(4.125) }, "performance.rating"},
		{"goal without title", func(in *Input) { in.Performance.Goals = []Goal{{Status: "Completed"}} }, "performance.goals[0].title"},
		{"unknown document type", func(in *Input) {
			in.Documents = []Document{{Name: "scan", Type: "Selfie", URL: "https://cdn.example.com/a"}}
		}, "documents[0].type"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput("Ada", "Lovelace", "ada@example.com", "Engineering")
			tc.mutate(&in)
			Normalize(&in)

			issues := in.Validate(testNow).Issues()
			if len(issues) != 1 || issues[0].Field != tc.field {
				t.Fatalf("expected a single issue on %s, got %+v", tc.field, issues)
			}
		})
	}
}

func TestDecimalPlaces(t *testing.T) {
	tests := []struct {
		value float64
		want  int
	}{
		{85000, 0},
		{0.29, 2},
		{1234.5, 1},
		{999999999999.99, 2},
		{85000.555, 3},
	}
	for _, tc := range tests {
		if got := decimalPlaces(tc.value); got != tc.want {
			t.Fatalf("%v: expected %d decimals, got %d", tc.value, tc.want, got)
		}
	}
}

func TestDateDecoding(t *testing.T) {
	var body struct {
		A Date `json:"a"`
		B Date `json:"b"`
		C Date `json:"c"`
		D Date `json:"d"`
	}
	raw := `{"a":"2024-01-01","b":"2024-01-01T09:30:00+02:00","c":"soon","d":null}`
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !body.A.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date-only value %v", body.A.Time)
	}
	if !body.B.Equal(time.Date(2024, 1, 1, 7, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected rfc3339 value %v", body.B.Time)
	}
	if !body.C.Invalid() || !body.C.IsZero() {
		t.Fatalf("expected invalid zero date, got %+v", body.C)
	}
	if !body.D.IsZero() || body.D.Invalid() {
		t.Fatalf("expected null to decode as empty, got %+v", body.D)
	}

	out, err := json.Marshal(body.A)
	if err != nil || string(out) != `"2024-01-01T00:00:00Z"` {
		t.Fatalf("unexpected marshal %s (%v)", out, err)
	}
}
