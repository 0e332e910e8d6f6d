package aggregate

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"salesledger/internal/core"
)

func row(y int, m time.Month, d int, product, customer, amount string) core.Transaction {
	return core.Transaction{
		Date:     core.NewDate(y, m, d),
		Amount:   decimal.RequireFromString(amount),
		Product:  product,
		Customer: customer,
		Location: "Toronto",
		Currency: "CAD",
	}
}

func TestAggregateChronologicalAcrossYearBoundary(t *testing.T) {
	records := []core.Transaction{
		row(2023, time.January, 5, "Widgets", "a", "10"),
		row(2022, time.December, 20, "Widgets", "b", "20"),
		row(2023, time.February, 1, "Gadgets", "c", "30"),
	}
	res := Aggregate(records, "LTM Dec 2023")

	got := res.MonthLabels()
	want := []string{"December 2022", "January 2023", "February 2023"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("months = %v, want %v", got, want)
	}

	raw, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(raw)
	dec, jan := strings.Index(s, "December 2022"), strings.Index(s, "January 2023")
	if dec < 0 || jan < 0 || dec > jan {
		t.Fatalf("December must precede January in encoded output: %s", s)
	}
}

func TestAggregatePreservesOrder(t *testing.T) {
	records := []core.Transaction{
		row(2023, time.March, 3, "Zeta", "first", "1"),
		row(2023, time.March, 1, "Alpha", "second", "2"),
		row(2023, time.March, 2, "Zeta", "third", "3"),
	}
	res := Aggregate(records, "F2023")
	if len(res.Months) != 1 {
		t.Fatalf("months = %d", len(res.Months))
	}
	products := res.Months[0].Products
	if products[0].Product != "Zeta" || products[1].Product != "Alpha" {
		t.Fatalf("products must keep first-seen order: %+v", products)
	}
	zeta := products[0].Transactions
	if len(zeta) != 2 || zeta[0].Customer != "first" || zeta[1].Customer != "third" {
		t.Fatalf("summaries must keep filter order: %+v", zeta)
	}
}

func TestAggregateEmpty(t *testing.T) {
	res := Aggregate(nil, "YTD F2024")
	raw, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"YTD F2024":{}}` {
		t.Fatalf("got %s", raw)
	}
	if res.Len() != 0 || res.Skipped != 0 {
		t.Fatalf("unexpected counts %+v", res)
	}
}

func TestAggregateSkipsBlankProducts(t *testing.T) {
	records := []core.Transaction{
		row(2023, time.May, 1, "", "x", "1"),
		row(2023, time.May, 2, "   ", "y", "2"),
		row(2023, time.June, 1, "Widgets", "z", "3"),
	}
	res := Aggregate(records, "F2024")
	if res.Skipped != 2 {
		t.Fatalf("skipped = %d, want 2", res.Skipped)
	}
	if len(res.Months) != 1 || res.Months[0].Label != "June 2023" {
		t.Fatalf("months with only skipped rows must be omitted: %v", res.MonthLabels())
	}
	if res.Len() != 1 {
		t.Fatalf("len = %d", res.Len())
	}
}

func TestAggregateIdempotent(t *testing.T) {
	records := []core.Transaction{
		row(2023, time.April, 1, "Widgets", "a", "10.10"),
		row(2023, time.May, 1, "Gadgets", "b", "20.20"),
		row(2023, time.April, 9, "Gadgets", "c", "30.30"),
	}
	first, _ := json.Marshal(Aggregate(records, "F2024"))
	second, _ := json.Marshal(Aggregate(records, "F2024"))
	if !bytes.Equal(first, second) {
		t.Fatalf("aggregation not idempotent:\n%s\n%s", first, second)
	}
}

func TestAggregateJSONShape(t *testing.T) {
	records := []core.Transaction{
		row(2023, time.April, 1, "Widgets", "Acme", "1234.5678"),
	}
	raw, err := json.Marshal(Aggregate(records, "F2024"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"F2024":{"April 2023":{"Widgets":[{"Amount":1234.5678,"Customer":"Acme","Location":"Toronto","Currency":"CAD"}]}}}`
	if string(raw) != want {
		t.Fatalf("got  %s\nwant %s", raw, want)
	}

	var decoded map[string]map[string]map[string][]map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("outer mapping must have exactly one key")
	}
}
