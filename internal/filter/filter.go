// Package filter applies conjunctive record predicates to a ledger snapshot.
package filter

import (
	"strings"

	"salesledger/internal/core"
	"salesledger/internal/fiscal"
	"salesledger/internal/period"
)

// Parameter names reported by InvalidDateError.
const (
	ParamDateFrom = "dateFrom"
	ParamDateTo   = "dateTo"
)

// Predicates holds raw, optional filter inputs. A nil or empty value imposes
// no constraint.
type Predicates struct {
	Currency    *string // exact match
	Customer    *string // case-insensitive substring
	Location    *string // case-insensitive substring, trimmed
	Company     *string // case-insensitive substring
	DateFrom    *string // inclusive lower bound
	DateTo      *string // inclusive upper bound
	FiscalLabel *string // exact match on the record's fiscal label
}

// Criteria is a validated, ready to evaluate set of predicates.
type Criteria struct {
	currency    string
	customer    string
	location    string
	company     string
	from        *core.Date
	to          *core.Date
	fiscalLabel string
}

// Compile validates p. Both date bounds are parsed before anything is
// filtered, so a bad bound never yields a partial result.
func Compile(p Predicates) (Criteria, error) {
	c := Criteria{
		currency:    value(p.Currency),
		customer:    strings.ToLower(value(p.Customer)),
		location:    strings.ToLower(strings.TrimSpace(value(p.Location))),
		company:     strings.ToLower(value(p.Company)),
		fiscalLabel: value(p.FiscalLabel),
	}
	var err error
	if c.from, err = parseBound(ParamDateFrom, p.DateFrom); err != nil {
		return Criteria{}, err
	}
	if c.to, err = parseBound(ParamDateTo, p.DateTo); err != nil {
		return Criteria{}, err
	}
	return c, nil
}

// Apply compiles p and filters records in one step.
func Apply(records []core.Transaction, p Predicates, w period.Window, cal fiscal.Calendar) ([]core.Transaction, error) {
	c, err := Compile(p)
	if err != nil {
		return nil, err
	}
	return c.Apply(records, w, cal), nil
}

// Apply returns the records matching every predicate and, when w is not nil,
// falling inside w. The input slice is never modified and the result never
// aliases it.
func (c Criteria) Apply(records []core.Transaction, w period.Window, cal fiscal.Calendar) []core.Transaction {
	out := make([]core.Transaction, 0, len(records))
	for _, t := range records {
		if !c.Matches(t, cal) {
			continue
		}
		if w != nil && !w.Contains(t.Date, cal) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Matches evaluates the predicates against a single record.
func (c Criteria) Matches(t core.Transaction, cal fiscal.Calendar) bool {
	if c.currency != "" && t.Currency != c.currency {
		return false
	}
	if !containsFold(t.Customer, c.customer) {
		return false
	}
	if !containsFold(t.Location, c.location) {
		return false
	}
	if !containsFold(t.Company, c.company) {
		return false
	}
	if c.from != nil && t.Date.Before(c.from.Time) {
		return false
	}
	if c.to != nil && t.Date.After(c.to.Time) {
		return false
	}
	if c.fiscalLabel != "" && cal.Label(t.Date) != c.fiscalLabel {
		return false
	}
	return true
}

// containsFold expects needle already lower-cased. An empty field never
// matches a non-empty needle.
func containsFold(field, needle string) bool {
	if needle == "" {
		return true
	}
	if field == "" {
		return false
	}
	return strings.Contains(strings.ToLower(field), needle)
}

func parseBound(param string, raw *string) (*core.Date, error) {
	s := value(raw)
	if s == "" {
		return nil, nil
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return nil, &core.InvalidDateError{Param: param, Value: s, Err: err}
	}
	return &d, nil
}

func value(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
