// Package http exposes the sales ledger over a JSON API.
//
// This file turns query strings into service queries.

package http

import (
	"net/url"
	"strings"

	"salesledger/internal/core"
	"salesledger/internal/filter"
	"salesledger/internal/services"
)

// Query parameter names
const (
	ParamPeriod    = "period"
	ParamCurrency  = "currency"
	ParamCustomer  = "customer"
	ParamLocation  = "location"
	ParamCompany   = "company"
	ParamAsOf      = "asOf"
	ParamStartDate = "startDate"
	ParamEndDate   = "endDate"
)

// ParseSalesQuery maps query parameters onto a SalesQuery.
//
// An absent currency parameter falls back to defaultCurrency; a present but
// empty one disables the currency filter. dateFrom/dateTo take precedence
// over the legacy startDate/endDate names. Malformed dates are reported by
// the query itself, except asOf which is validated here.
func ParseSalesQuery(query url.Values, defaultCurrency string) (services.SalesQuery, error) {
	q := services.SalesQuery{
		Period: sanitizeInput(query.Get(ParamPeriod)),
	}

	if query.Has(ParamCurrency) {
		currency := sanitizeInput(query.Get(ParamCurrency))
		q.Predicates.Currency = &currency
	} else if defaultCurrency != "" {
		currency := defaultCurrency
		q.Predicates.Currency = &currency
	}

	q.Predicates.Customer = optional(query, ParamCustomer)
	q.Predicates.Location = optional(query, ParamLocation)
	q.Predicates.Company = optional(query, ParamCompany)
	q.Predicates.DateFrom = optional(query, filter.ParamDateFrom, ParamStartDate)
	q.Predicates.DateTo = optional(query, filter.ParamDateTo, ParamEndDate)

	if raw := sanitizeInput(query.Get(ParamAsOf)); raw != "" {
		asOf, err := core.ParseDate(raw)
		if err != nil {
			return services.SalesQuery{}, &core.InvalidDateError{Param: ParamAsOf, Value: raw, Err: err}
		}
		q.AsOf = &asOf
	}

	return q, nil
}

// optional returns the first non-empty value among names.
func optional(query url.Values, names ...string) *string {
	for _, name := range names {
		if v := sanitizeInput(query.Get(name)); v != "" {
			return &v
		}
	}
	return nil
}

// RequireMethod checks if the request method matches the expected method(s).
func RequireMethod(method string, allowed ...string) *JSONResponseBuilder {
	for _, m := range allowed {
		if method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(allowed, ", "))
}
