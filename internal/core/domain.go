package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type (
	Date struct {
		time.Time
	}

	// Transaction is a single ledger row. Rows are immutable once loaded.
	Transaction struct {
		Date     Date
		Amount   decimal.Decimal
		Product  string // Account name
		Customer string
		Location string
		Company  string
		Currency string // Original currency
	}

	// FiscalYearEnd is the (month, day) on which every fiscal year closes.
	FiscalYearEnd struct {
		Month time.Month
		Day   int
	}
)

var (
	ErrZeroDate     = errors.New("date cannot be zero")
	ErrEmptyProduct = errors.New("empty product name")
)

// NewDate creates a new Date from year, month, day
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to a calendar day in UTC, keeping t's wall clock date.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// MonthStart returns the first day of the date's month.
func (d Date) MonthStart() Date {
	return NewDate(d.Year(), d.Month(), 1)
}

// AddDays shifts the date by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.AddDate(0, 0, n)}
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	return nil
}

// Validate reports rows that cannot be placed in a product group.
func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Product) == "" {
		return ErrEmptyProduct
	}
	return nil
}
