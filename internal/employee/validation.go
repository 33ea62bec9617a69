package employee

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"staff-api/internal/validate"
)

var (
	phoneRegex    = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
	currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)
	phoneNoise    = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
)

// Salary and rating are stored as NUMERIC(14,2) and NUMERIC(3,2); values the
// columns would round are rejected instead.
const (
	maxSalary   = 1e12
	maxDecimals = 2
)

// Normalize trims free text, lowercases the email and fills defaults. It runs
// before validation on both create and update.
func Normalize(in *Input) {
	p := &in.PersonalInfo
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.Phone = phoneNoise.Replace(strings.TrimSpace(p.Phone))
	p.Address.Street = strings.TrimSpace(p.Address.Street)
	p.Address.City = strings.TrimSpace(p.Address.City)
	p.Address.State = strings.TrimSpace(p.Address.State)
	p.Address.ZipCode = strings.TrimSpace(p.Address.ZipCode)
	p.Address.Country = strings.TrimSpace(p.Address.Country)

	e := &in.Employment
	e.Department = strings.TrimSpace(e.Department)
	e.Position = strings.TrimSpace(e.Position)
	e.ManagerID = strings.TrimSpace(e.ManagerID)
	e.Level = defaultString(strings.TrimSpace(e.Level), "Junior")
	e.EmploymentType = defaultString(strings.TrimSpace(e.EmploymentType), "Full-time")
	e.Status = defaultString(strings.TrimSpace(e.Status), StatusActive)

	c := &in.Compensation
	c.Currency = defaultString(strings.ToUpper(strings.TrimSpace(c.Currency)), "USD")
	c.PayFrequency = defaultString(strings.TrimSpace(c.PayFrequency), "Monthly")

	for i := range in.Performance.Goals {
		g := &in.Performance.Goals[i]
		g.Title = strings.TrimSpace(g.Title)
		g.Description = strings.TrimSpace(g.Description)
		g.Status = defaultString(strings.TrimSpace(g.Status), "Not Started")
	}
	for i := range in.Documents {
		d := &in.Documents[i]
		d.Name = strings.TrimSpace(d.Name)
		d.Type = defaultString(strings.TrimSpace(d.Type), "Other")
		d.URL = strings.TrimSpace(d.URL)
	}
}

// Validate collects every field violation; manager existence is checked by
// the service since it needs the store.
func (in Input) Validate(now time.Time) *validate.Validator {
	v := validate.New()

	p := in.PersonalInfo
	v.Length("personalInfo.firstName", p.FirstName, 2, 50)
	v.Length("personalInfo.lastName", p.LastName, 2, 50)
	v.Email("personalInfo.email", p.Email)
	v.Match("personalInfo.phone", p.Phone, phoneRegex, "please provide a valid phone number")
	if validDate(v, "personalInfo.dateOfBirth", p.DateOfBirth) {
		v.PastDate("personalInfo.dateOfBirth", p.DateOfBirth.Time, now)
	}

	e := in.Employment
	if v.Required("employment.department", e.Department) {
		v.OneOf("employment.department", e.Department, Departments)
	}
	v.Length("employment.position", e.Position, 2, 100)
	v.OneOf("employment.level", e.Level, Levels)
	v.OneOf("employment.employmentType", e.EmploymentType, EmploymentTypes)
	v.OneOf("employment.status", e.Status, Statuses)
	startOK := validDate(v, "employment.startDate", e.StartDate)
	if startOK {
		v.NotFuture("employment.startDate", e.StartDate.Time, now)
	}
	if validDate(v, "employment.endDate", e.EndDate) && !e.EndDate.IsZero() && startOK && !e.StartDate.IsZero() {
		if !e.EndDate.After(e.StartDate.Time) {
			v.Add("employment.endDate", "end date must be after start date", e.EndDate.Format(time.DateOnly))
		}
	}

	c := in.Compensation
	switch {
	case c.Salary == nil:
		v.Add("compensation.salary", "compensation.salary is required", nil)
	case math.IsNaN(*c.Salary) || math.IsInf(*c.Salary, 0) || *c.Salary < 0:
		v.Add("compensation.salary", "salary must be a positive number", *c.Salary)
	case *c.Salary >= maxSalary:
		v.Add("compensation.salary", "salary must be less than 1000000000000", *c.Salary)
	case decimalPlaces(*c.Salary) > maxDecimals:
		v.Add("compensation.salary", "salary supports at most 2 decimal places", *c.Salary)
	}
	if !currencyRegex.MatchString(c.Currency) {
		v.Add("compensation.currency", "currency must be a 3-letter ISO code", c.Currency)
	}
	v.OneOf("compensation.payFrequency", c.PayFrequency, PayFrequencies)
	if c.Benefits.PaidTimeOff < 0 {
		v.Add("compensation.benefits.paidTimeOff", "paid time off cannot be negative", c.Benefits.PaidTimeOff)
	}

	perf := in.Performance
	if perf.Rating != nil {
		switch {
		case *perf.Rating < 1 || *perf.Rating > 5:
			v.Add("performance.rating", "rating must be between 1 and 5", *perf.Rating)
		case decimalPlaces(*perf.Rating) > maxDecimals:
			v.Add("performance.rating", "rating supports at most 2 decimal places", *perf.Rating)
		}
	}
	validDate(v, "performance.lastReviewDate", perf.LastReviewDate)
	for i, g := range perf.Goals {
		prefix := "performance.goals[" + strconv.Itoa(i) + "]"
		v.Required(prefix+".title", g.Title)
		v.OneOf(prefix+".status", g.Status, GoalStatuses)
		validDate(v, prefix+".targetDate", g.TargetDate)
	}

	for i, d := range in.Documents {
		prefix := "documents[" + strconv.Itoa(i) + "]"
		v.Required(prefix+".name", d.Name)
		v.OneOf(prefix+".type", d.Type, DocumentTypes)
		v.Required(prefix+".url", d.URL)
	}

	return v
}

func validDate(v *validate.Validator, field string, d Date) bool {
	if d.Invalid() {
		v.Add(field, field+" must be a valid date", d.invalid)
		return false
	}
	return true
}

// decimalPlaces counts digits after the point in the shortest decimal form
// that round-trips x, which is what a JSON client sent.
func decimalPlaces(x float64) int {
	text := strconv.FormatFloat(x, 'f', -1, 64)
	if i := strings.IndexByte(text, '.'); i >= 0 {
		return len(text) - i - 1
	}
	return 0
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
