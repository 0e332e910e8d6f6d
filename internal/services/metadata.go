package services

import (
	"fmt"
	"hash/fnv"
	"slices"
	"strings"

	"salesledger/internal/core"
	"salesledger/internal/fiscal"
)

// Metadata lists the distinct filter values present in a snapshot.
type Metadata struct {
	Customers     []string `json:"customers"`
	Currencies    []string `json:"currencies"`
	Locations     []string `json:"locations"`
	Companies     []string `json:"companies"`
	FiscalPeriods []string `json:"fiscal_periods"`
}

// BuildMetadata collects trimmed, non-empty, distinct, sorted values for each
// filterable column plus the fiscal years that have data in all twelve months.
func BuildMetadata(records []core.Transaction, cal fiscal.Calendar) Metadata {
	customers := map[string]struct{}{}
	currencies := map[string]struct{}{}
	locations := map[string]struct{}{}
	companies := map[string]struct{}{}
	months := map[int]map[core.Date]struct{}{}

	add := func(set map[string]struct{}, v string) {
		if v = strings.TrimSpace(v); v != "" {
			set[v] = struct{}{}
		}
	}

	for _, t := range records {
		add(customers, t.Customer)
		add(currencies, t.Currency)
		add(locations, t.Location)
		add(companies, t.Company)

		fy := cal.FiscalYear(t.Date)
		if months[fy] == nil {
			months[fy] = map[core.Date]struct{}{}
		}
		months[fy][t.Date.MonthStart()] = struct{}{}
	}

	var years []int
	for fy, seen := range months {
		if len(seen) == 12 {
			years = append(years, fy)
		}
	}
	slices.Sort(years)
	periods := make([]string, 0, len(years))
	for _, fy := range years {
		periods = append(periods, fiscal.LabelFor(fy))
	}

	return Metadata{
		Customers:     sortedKeys(customers),
		Currencies:    sortedKeys(currencies),
		Locations:     sortedKeys(locations),
		Companies:     sortedKeys(companies),
		FiscalPeriods: periods,
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// ProductColor derives a stable "#rrggbb" colour from the FNV-1a hash of the
// product name.
func ProductColor(product string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(product))
	return fmt.Sprintf("#%06x", h.Sum32()&0xFFFFFF)
}
