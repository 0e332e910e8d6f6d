// Package core provides amount and date parsing for ledger rows.
//
// Ledger exports come from spreadsheets, so amounts may carry a currency
// symbol, thousands separators or accounting-style parentheses.
package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
)

// dateLayouts are tried in order by ParseDate.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
}

// ParseAmount converts a ledger amount string to a decimal without rounding.
//
// Examples:
//
//	ParseAmount("1234.5")     -> 1234.5
//	ParseAmount("$1,234.50")  -> 1234.5
//	ParseAmount("(12.00)")    -> -12
//	ParseAmount("-3")         -> -3
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case ',', ' ', '$', '€', '£':
			return -1
		}
		return r
	}, s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

// ParseDate parses a calendar date, accepting ISO dates and timestamps.
// Time-of-day is discarded.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, ErrInvalidDate
}
