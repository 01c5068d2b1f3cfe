package calendar

import (
	"errors"
	"fmt"
	"time"
)

const (
	// CanonicalLayout is the YYYY-MM-DD form used for holiday keys and display.
	CanonicalLayout = "2006-01-02"
	// CompactLayout is the YYYYMMDD form used on the CMS wire.
	CompactLayout = "20060102"
)

// ErrMalformedDate is returned when a date string does not match the
// expected layout or names a day that does not exist.
var ErrMalformedDate = errors.New("malformed date")

// Date returns the calendar date y-m-d as midnight UTC.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// truncate drops the time of day, keeping the date as seen in t's location.
func truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// FormatCanonical renders d as YYYY-MM-DD.
func FormatCanonical(d time.Time) string {
	return d.Format(CanonicalLayout)
}

// FormatCompact renders d as YYYYMMDD.
func FormatCompact(d time.Time) string {
	return d.Format(CompactLayout)
}

// ParseCompact parses an 8-digit YYYYMMDD string.
func ParseCompact(s string) (time.Time, error) {
	if len(s) != len(CompactLayout) || !allDigits(s) {
		return time.Time{}, fmt.Errorf("%w: %q is not YYYYMMDD", ErrMalformedDate, s)
	}
	return parseStrict(s, CompactLayout)
}

// ParseCanonical parses a YYYY-MM-DD string.
func ParseCanonical(s string) (time.Time, error) {
	if len(s) != len(CanonicalLayout) || !allDigits(s[0:4]+s[5:7]+s[8:10]) || s[4] != '-' || s[7] != '-' {
		return time.Time{}, fmt.Errorf("%w: %q is not YYYY-MM-DD", ErrMalformedDate, s)
	}
	return parseStrict(s, CanonicalLayout)
}

// ParseDate accepts either the compact or the canonical form.
func ParseDate(s string) (time.Time, error) {
	if len(s) == len(CompactLayout) {
		return ParseCompact(s)
	}
	return ParseCanonical(s)
}

func parseStrict(s, layout string) (time.Time, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrMalformedDate, err)
	}
	return t, nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
