// Package aggregate folds filtered ledger rows into a month → product →
// transactions structure whose key order survives JSON encoding.
package aggregate

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"salesledger/internal/core"
)

// MonthLabelLayout renders bucket months, e.g. "December 2022".
const MonthLabelLayout = "January 2006"

// Summary is the per-record projection emitted inside a product group.
type Summary struct {
	Amount   decimal.Decimal
	Customer string
	Location string
	Currency string
}

// ProductGroup holds the summaries of one product within one month, in
// filter-result order.
type ProductGroup struct {
	Product      string
	Transactions []Summary
}

// MonthBucket is one calendar month of the result.
type MonthBucket struct {
	Month    core.Date // first day of the month
	Label    string
	Products []ProductGroup
}

// Result is the aggregation of one period. Months are in chronological
// order and every product group is non-empty.
type Result struct {
	Period string
	Months []MonthBucket
	// Skipped counts rows left out of grouping because their product name
	// is blank.
	Skipped int
}

// Aggregate groups records by (calendar month, product). Rows with a blank
// product name are skipped and counted in Result.Skipped rather than failing
// the aggregation.
func Aggregate(records []core.Transaction, periodLabel string) Result {
	res := Result{Period: periodLabel, Months: []MonthBucket{}}

	monthIdx := make(map[core.Date]int)
	productIdx := make(map[core.Date]map[string]int)

	for _, t := range records {
		if strings.TrimSpace(t.Product) == "" {
			res.Skipped++
			continue
		}
		month := core.DateOf(t.Date.Time).MonthStart()

		mi, ok := monthIdx[month]
		if !ok {
			mi = len(res.Months)
			monthIdx[month] = mi
			productIdx[month] = make(map[string]int)
			res.Months = append(res.Months, MonthBucket{
				Month: month,
				Label: month.Format(MonthLabelLayout),
			})
		}
		bucket := &res.Months[mi]

		pi, ok := productIdx[month][t.Product]
		if !ok {
			pi = len(bucket.Products)
			productIdx[month][t.Product] = pi
			bucket.Products = append(bucket.Products, ProductGroup{Product: t.Product})
		}
		group := &bucket.Products[pi]
		group.Transactions = append(group.Transactions, Summary{
			Amount:   t.Amount,
			Customer: t.Customer,
			Location: t.Location,
			Currency: t.Currency,
		})
	}

	sort.SliceStable(res.Months, func(i, j int) bool {
		return res.Months[i].Month.Before(res.Months[j].Month.Time)
	})
	return res
}

// Len returns the number of summaries across all months and products.
func (r Result) Len() int {
	n := 0
	for _, m := range r.Months {
		for _, p := range m.Products {
			n += len(p.Transactions)
		}
	}
	return n
}

// MonthLabels returns the month labels in iteration order.
func (r Result) MonthLabels() []string {
	labels := make([]string, len(r.Months))
	for i, m := range r.Months {
		labels[i] = m.Label
	}
	return labels
}

type summaryJSON struct {
	Amount   json.Number `json:"Amount"`
	Customer string      `json:"Customer"`
	Location string      `json:"Location"`
	Currency string      `json:"Currency"`
}

// MarshalJSON encodes the amount as a JSON number with full precision.
func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(summaryJSON{
		Amount:   json.Number(s.Amount.String()),
		Customer: s.Customer,
		Location: s.Location,
		Currency: s.Currency,
	})
}

// MarshalJSON writes {period: {month: {product: [...]}}} keeping month and
// product order.
func (r Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := writeKey(&buf, r.Period); err != nil {
		return nil, err
	}
	buf.WriteByte('{')
	for i, m := range r.Months {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeKey(&buf, m.Label); err != nil {
			return nil, err
		}
		buf.WriteByte('{')
		for j, p := range m.Products {
			if j > 0 {
				buf.WriteByte(',')
			}
			if err := writeKey(&buf, p.Product); err != nil {
				return nil, err
			}
			list, err := json.Marshal(p.Transactions)
			if err != nil {
				return nil, err
			}
			buf.Write(list)
		}
		buf.WriteByte('}')
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

func writeKey(buf *bytes.Buffer, key string) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	return nil
}
