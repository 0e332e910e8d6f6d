package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"salesledger/internal/aggregate"
	"salesledger/internal/cache"
	"salesledger/internal/core"
	"salesledger/internal/filter"
	"salesledger/internal/fiscal"
	"salesledger/internal/ledger"
	"salesledger/internal/log"
	"salesledger/internal/period"
)

const ChartTitle = "Monthly Sales by Product"

// DefaultColors is the fixed chart palette.
var DefaultColors = map[string]string{
	"primary":   "#104861",
	"secondary": "#DDDDDD",
	"tertiary":  "#83CCEB",
}

// SnapshotProvider hands out the current ledger snapshot.
type SnapshotProvider interface {
	Snapshot() (*ledger.Snapshot, error)
}

// Settings are the reporting values that do not depend on the request.
type Settings struct {
	CompanyName     string
	DefaultCurrency string
	Denomination    string
}

// SalesQuery is one request against the current snapshot. A nil AsOf uses the
// service's reference date; an empty Period means YTD.
type SalesQuery struct {
	Period     string
	AsOf       *core.Date
	Predicates filter.Predicates
}

// PeriodInfo describes the resolved window.
type PeriodInfo struct {
	Label string `json:"label"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// SalesResponse is the payload served for a sales query.
type SalesResponse struct {
	CompanyName    string            `json:"company_name"`
	Currency       string            `json:"currency"`
	Denomination   string            `json:"denomination"`
	ChartTitle     string            `json:"chart_title"`
	DefaultColors  map[string]string `json:"default_colors"`
	ProductColors  map[string]string `json:"product_colors"`
	Meta           Metadata          `json:"meta"`
	Period         PeriodInfo        `json:"period"`
	SkippedRecords int               `json:"skipped_records"`
	Periods        aggregate.Result  `json:"periods"`
}

// QueryService runs resolve, filter and aggregate against immutable snapshots.
type QueryService struct {
	snapshots SnapshotProvider
	cal       fiscal.Calendar
	resolver  *period.Resolver
	settings  Settings
	asOf      func() core.Date
	meta      *cache.LRUCache[Metadata]
	logger    *log.StructuredLogger
}

func NewQueryService(snapshots SnapshotProvider, cal fiscal.Calendar, settings Settings, asOf func() core.Date, logger *log.Logger) *QueryService {
	if asOf == nil {
		asOf = func() core.Date { return core.DateOf(time.Now().UTC()) }
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &QueryService{
		snapshots: snapshots,
		cal:       cal,
		resolver:  period.NewResolver(cal),
		settings:  settings,
		asOf:      asOf,
		meta:      cache.NewLRUCache[Metadata](4, time.Hour),
		logger:    log.NewStructuredLogger(logger),
	}
}

// MetadataCache exposes the per-snapshot metadata cache for lifecycle management.
func (s *QueryService) MetadataCache() *cache.LRUCache[Metadata] {
	return s.meta
}

// Query answers q. Failures are *core.InvalidPeriodError,
// *core.InvalidDateError or a wrapped ledger.ErrNotLoaded.
func (s *QueryService) Query(ctx context.Context, q SalesQuery) (SalesResponse, error) {
	snap, err := s.snapshots.Snapshot()
	if err != nil {
		return SalesResponse{}, fmt.Errorf("sales query: %w", err)
	}

	asOf := s.asOf()
	if q.AsOf != nil {
		asOf = *q.AsOf
	}
	token := strings.TrimSpace(q.Period)
	if token == "" {
		token = period.TokenYTD
	}

	w, err := s.resolver.Resolve(token, asOf)
	if err != nil {
		return SalesResponse{}, err
	}

	records := snap.Records()
	filtered, err := filter.Apply(records, q.Predicates, w, s.cal)
	if err != nil {
		return SalesResponse{}, err
	}

	result := aggregate.Aggregate(filtered, w.Label())

	meta, _ := s.meta.GetOrCompute(strconv.FormatUint(snap.Version(), 10), func() (Metadata, error) {
		return BuildMetadata(records, s.cal), nil
	})

	start, end := w.Bounds(s.cal)
	resp := SalesResponse{
		CompanyName:    s.companyName(q.Predicates, snap),
		Currency:       deref(q.Predicates.Currency),
		Denomination:   s.settings.Denomination,
		ChartTitle:     ChartTitle,
		DefaultColors:  DefaultColors,
		ProductColors:  productColors(result),
		Meta:           meta,
		Period:         PeriodInfo{Label: w.Label(), Start: start.String(), End: end.String()},
		SkippedRecords: result.Skipped,
		Periods:        result,
	}

	s.logger.LogQueryServed(ctx, w.Label(), asOf.String(), resp.Currency,
		len(records), len(filtered), result.Skipped, len(result.Months), snap.Version())
	return resp, nil
}

// DefaultCurrency is applied by callers when the currency filter is absent.
func (s *QueryService) DefaultCurrency() string {
	return s.settings.DefaultCurrency
}

// IsClientError reports whether err stems from bad query input.
func IsClientError(err error) bool {
	var perr *core.InvalidPeriodError
	var derr *core.InvalidDateError
	return errors.As(err, &perr) || errors.As(err, &derr)
}

func (s *QueryService) companyName(p filter.Predicates, snap *ledger.Snapshot) string {
	if c := strings.TrimSpace(deref(p.Company)); c != "" {
		return c
	}
	if first, ok := snap.First(); ok && strings.TrimSpace(first.Company) != "" {
		return strings.TrimSpace(first.Company)
	}
	return s.settings.CompanyName
}

func productColors(r aggregate.Result) map[string]string {
	colors := map[string]string{}
	for _, m := range r.Months {
		for _, g := range m.Products {
			if _, ok := colors[g.Product]; !ok {
				colors[g.Product] = ProductColor(g.Product)
			}
		}
	}
	return colors
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
