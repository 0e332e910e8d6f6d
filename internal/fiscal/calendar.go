// Package fiscal maps calendar dates onto a company fiscal calendar whose
// year closes on a configured (month, day).
package fiscal

import (
	"fmt"
	"strconv"
	"time"

	"salesledger/internal/core"
)

// Calendar is immutable and safe for concurrent use.
type Calendar struct {
	end core.FiscalYearEnd
}

// New validates the fiscal year end once. The day must exist in every year,
// so February 29 is rejected.
func New(end core.FiscalYearEnd) (Calendar, error) {
	if end.Month < time.January || end.Month > time.December {
		return Calendar{}, &core.ConfigurationError{
			Field:  "fiscal year end month",
			Reason: fmt.Sprintf("%d is not between 1 and 12", end.Month),
		}
	}
	// 2001 is not a leap year
	maxDay := daysIn(2001, end.Month)
	if end.Day < 1 || end.Day > maxDay {
		return Calendar{}, &core.ConfigurationError{
			Field:  "fiscal year end day",
			Reason: fmt.Sprintf("%s has no day %d in every year (max %d)", end.Month, end.Day, maxDay),
		}
	}
	return Calendar{end: end}, nil
}

// MustNew is New for static configuration in tests and examples.
func MustNew(month time.Month, day int) Calendar {
	c, err := New(core.FiscalYearEnd{Month: month, Day: day})
	if err != nil {
		panic(err)
	}
	return c
}

// YearEnd returns the configured fiscal year end.
func (c Calendar) YearEnd() core.FiscalYearEnd {
	return c.end
}

// EndOf returns the closing date of fiscal year fy.
func (c Calendar) EndOf(fy int) core.Date {
	return core.NewDate(fy, c.end.Month, c.end.Day)
}

// StartOf returns the opening date of fiscal year fy, the day after the
// previous fiscal year closed.
func (c Calendar) StartOf(fy int) core.Date {
	return c.EndOf(fy - 1).AddDays(1)
}

// FiscalYear returns the calendar year in which d's fiscal year ends.
func (c Calendar) FiscalYear(d core.Date) int {
	day := core.DateOf(d.Time)
	if day.After(c.EndOf(day.Year()).Time) {
		return day.Year() + 1
	}
	return day.Year()
}

// Label returns the fiscal label of d, e.g. "F2024".
func (c Calendar) Label(d core.Date) string {
	return LabelFor(c.FiscalYear(d))
}

// LabelFor formats a fiscal year as its label.
func LabelFor(fy int) string {
	return "F" + strconv.Itoa(fy)
}

func daysIn(year int, m time.Month) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
