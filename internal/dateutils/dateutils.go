// Package dateutils provides the strict date handling used for statement rows.
package dateutils

import (
	"fmt"
	"strings"
	"time"
)

// Date layouts seen in statement exports
const (
	DateLayoutISO = "2006-01-02"
	DateLayoutUS  = "01/02/2006"
	DateLayoutEU  = "02.01.2006"
)

// DefaultLayouts is tried in order when no layouts are configured.
var DefaultLayouts = []string{
	DateLayoutUS,
	DateLayoutISO,
}

// ParseStrict parses value with the first layout that consumes it entirely.
// Surrounding whitespace is ignored; anything else that does not match fails.
func ParseStrict(value string, layouts []string) (time.Time, error) {
	if len(layouts) == 0 {
		layouts = DefaultLayouts
	}

	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%q matches none of the layouts %s", value, strings.Join(layouts, ", "))
}

// ParseOptional is ParseStrict for columns that may be blank; blank yields nil.
func ParseOptional(value string, layouts []string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	t, err := ParseStrict(value, layouts)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// StartOfDay drops the clock component of date, keeping its location.
func StartOfDay(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
}

// DaysApart returns the absolute number of calendar days between two dates.
func DaysApart(a, b time.Time) int {
	a = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return int(diff.Hours() / 24)
}

// ToISODate formats a time.Time value as an ISO date (YYYY-MM-DD)
func ToISODate(date time.Time) string {
	if date.IsZero() {
		return ""
	}
	return date.Format(DateLayoutISO)
}
