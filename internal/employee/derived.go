package employee

import (
	"math"
	"strings"
	"time"
)

const daysPerYear = 365.25

func FullName(p PersonalInfo) string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// YearsOfService measures from start to end (or now), floored to two
// decimals and clamped at zero.
func YearsOfService(start, end Date, now time.Time) float64 {
	if start.IsZero() {
		return 0
	}
	to := now
	if !end.IsZero() {
		to = end.Time
	}

	years := to.Sub(start.Time).Hours() / 24 / daysPerYear
	if years <= 0 {
		return 0
	}
	return math.Floor(years*100) / 100
}
