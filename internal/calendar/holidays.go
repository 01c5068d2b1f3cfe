package calendar

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed holidays.yaml
var defaultHolidaysYAML []byte

// Holiday is one non-business date of the table.
type Holiday struct {
	Date string `yaml:"date" json:"date"`
	Name string `yaml:"name" json:"name,omitempty"`
}

type holidayFile struct {
	Holidays []Holiday `yaml:"holidays"`
}

// HolidaySet is an immutable set of non-business dates keyed by their
// canonical YYYY-MM-DD string. The zero value is an empty set.
type HolidaySet struct {
	names     map[string]string
	firstYear int
	lastYear  int
}

// NewHolidaySet builds a set from the given holidays. Every date must be in
// canonical form; duplicates collapse to a single entry.
func NewHolidaySet(holidays ...Holiday) (HolidaySet, error) {
	hs := HolidaySet{names: make(map[string]string, len(holidays))}
	for _, h := range holidays {
		d, err := ParseCanonical(h.Date)
		if err != nil {
			return HolidaySet{}, fmt.Errorf("holiday %q: %w", h.Name, err)
		}
		hs.names[h.Date] = h.Name
		if hs.firstYear == 0 || d.Year() < hs.firstYear {
			hs.firstYear = d.Year()
		}
		if d.Year() > hs.lastYear {
			hs.lastYear = d.Year()
		}
	}
	return hs, nil
}

// LoadHolidays decodes a YAML holiday table.
func LoadHolidays(r io.Reader) (HolidaySet, error) {
	var f holidayFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return HolidaySet{}, fmt.Errorf("decode holidays: %w", err)
	}
	return NewHolidaySet(f.Holidays...)
}

// LoadHolidaysFile reads a YAML holiday table from path.
func LoadHolidaysFile(path string) (HolidaySet, error) {
	f, err := os.Open(path)
	if err != nil {
		return HolidaySet{}, fmt.Errorf("open holidays: %w", err)
	}
	defer f.Close()
	return LoadHolidays(f)
}

// DefaultHolidays returns the built-in table covering 2024 and 2025.
func DefaultHolidays() HolidaySet {
	var f holidayFile
	if err := yaml.Unmarshal(defaultHolidaysYAML, &f); err != nil {
		panic(fmt.Sprintf("calendar: embedded holiday table: %v", err))
	}
	hs, err := NewHolidaySet(f.Holidays...)
	if err != nil {
		panic(fmt.Sprintf("calendar: embedded holiday table: %v", err))
	}
	return hs
}

// Contains reports whether d is a listed holiday.
func (hs HolidaySet) Contains(d time.Time) bool {
	_, ok := hs.names[FormatCanonical(d)]
	return ok
}

// Name returns the name of the holiday on d.
func (hs HolidaySet) Name(d time.Time) (string, bool) {
	name, ok := hs.names[FormatCanonical(d)]
	return name, ok
}

// Len returns the number of listed dates.
func (hs HolidaySet) Len() int { return len(hs.names) }

// Horizon returns the first and last year with at least one listed date.
// Both are zero for an empty set.
func (hs HolidaySet) Horizon() (first, last int) {
	return hs.firstYear, hs.lastYear
}

// Covers reports whether year falls inside the horizon. Lookups outside it
// fall back to weekend-only classification.
func (hs HolidaySet) Covers(year int) bool {
	return hs.Len() > 0 && year >= hs.firstYear && year <= hs.lastYear
}

// Holidays returns the table sorted by date.
func (hs HolidaySet) Holidays() []Holiday {
	out := make([]Holiday, 0, len(hs.names))
	for date, name := range hs.names {
		out = append(out, Holiday{Date: date, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
