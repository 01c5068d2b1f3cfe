// Package calendar implements business-day and settlement-date arithmetic for
// the CMS withdrawal cycle: weekend and holiday classification, business-day
// walks, registration cut-offs and per-service settlement offsets.
//
// All dates are calendar days represented as midnight UTC; the time of day
// of an input is dropped. A Calendar is immutable once built and may be
// shared between goroutines.
package calendar

import (
	"time"

	"github.com/rickar/cal/v2"
)

// Calendar answers business-day questions against a fixed holiday table.
type Calendar struct {
	holidays HolidaySet
	rules    Rules
	workdays *cal.BusinessCalendar
}

// New builds a Calendar over holidays using rules for the cut-off checks.
func New(holidays HolidaySet, rules Rules) *Calendar {
	bc := cal.NewBusinessCalendar()
	for _, h := range holidays.Holidays() {
		d, _ := ParseCanonical(h.Date) // validated by NewHolidaySet
		bc.AddHoliday(&cal.Holiday{
			Name:      h.Name,
			Type:      cal.ObservanceBank,
			Month:     d.Month(),
			Day:       d.Day(),
			StartYear: d.Year(),
			EndYear:   d.Year(),
			Func:      cal.CalcDayOfMonth,
		})
	}
	return &Calendar{
		holidays: holidays,
		rules:    rules,
		workdays: bc,
	}
}

// Default returns a Calendar over the built-in holiday table and rules.
func Default() *Calendar {
	return New(DefaultHolidays(), DefaultRules())
}

// Holidays returns the table the calendar was built with.
func (c *Calendar) Holidays() HolidaySet { return c.holidays }

// Rules returns the cut-off rules the calendar was built with.
func (c *Calendar) Rules() Rules { return c.rules }

// IsBusinessDay reports whether d is a Monday to Friday that is not a listed
// holiday.
func (c *Calendar) IsBusinessDay(d time.Time) bool {
	return c.workdays.IsWorkday(truncate(d))
}

// NextBusinessDay returns the first business day strictly after d.
func (c *Calendar) NextBusinessDay(d time.Time) time.Time {
	return c.step(truncate(d), 1)
}

// PreviousBusinessDay returns the last business day strictly before d.
func (c *Calendar) PreviousBusinessDay(d time.Time) time.Time {
	return c.step(truncate(d), -1)
}

// AddBusinessDays walks forward from d one day at a time and returns the day
// on which the n-th business day is reached. For n <= 0 it returns d
// unchanged, whether or not d is itself a business day.
func (c *Calendar) AddBusinessDays(d time.Time, n int) time.Time {
	d = truncate(d)
	for added := 0; added < n; added++ {
		d = c.step(d, 1)
	}
	return d
}

func (c *Calendar) step(d time.Time, dir int) time.Time {
	d = d.AddDate(0, 0, dir)
	for !c.workdays.IsWorkday(d) {
		d = d.AddDate(0, 0, dir)
	}
	return d
}
