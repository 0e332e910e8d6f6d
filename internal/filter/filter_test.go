package filter

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"salesledger/internal/core"
	"salesledger/internal/fiscal"
	"salesledger/internal/period"
)

func str(s string) *string { return &s }

func tx(date core.Date, product, customer, location, company, currency string) core.Transaction {
	return core.Transaction{
		Date:     date,
		Amount:   decimal.NewFromInt(100),
		Product:  product,
		Customer: customer,
		Location: location,
		Company:  company,
		Currency: currency,
	}
}

var cal = fiscal.MustNew(time.March, 31)

func ledger() []core.Transaction {
	return []core.Transaction{
		tx(core.NewDate(2023, time.January, 15), "Widgets", "Acme Corp", "Toronto, ON", "Fangtooth Technologies Inc.", "CAD"),
		tx(core.NewDate(2023, time.March, 31), "Gadgets", "Other", "Vancouver", "Fangtooth Technologies Inc.", "USD"),
		tx(core.NewDate(2023, time.April, 1), "Widgets", "ACME Subsidiary", "", "Sister Co", "CAD"),
		tx(core.NewDate(2023, time.December, 31), "Gizmos", "", "toronto", "Fangtooth Technologies Inc.", "CAD"),
	}
}

func TestCustomerSubstring(t *testing.T) {
	records := []core.Transaction{
		tx(core.NewDate(2023, 1, 1), "P", "Acme Corp", "", "", "CAD"),
		tx(core.NewDate(2023, 1, 1), "P", "Other", "", "", "CAD"),
	}
	got, err := Apply(records, Predicates{Customer: str("acme")}, nil, cal)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(got) != 1 || got[0].Customer != "Acme Corp" {
		t.Fatalf("got %+v", got)
	}
}

func TestPredicates(t *testing.T) {
	cases := []struct {
		name string
		p    Predicates
		want int
	}{
		{"no predicates", Predicates{}, 4},
		{"empty strings are absent", Predicates{Currency: str(""), Customer: str(""), DateFrom: str("")}, 4},
		{"currency exact", Predicates{Currency: str("CAD")}, 3},
		{"currency is case sensitive", Predicates{Currency: str("cad")}, 0},
		{"customer case-insensitive", Predicates{Customer: str("ACME")}, 2},
		{"location trimmed", Predicates{Location: str("  Toronto  ")}, 2},
		{"empty location never matches", Predicates{Location: str("o")}, 3},
		{"company substring", Predicates{Company: str("fangtooth")}, 3},
		{"date from inclusive", Predicates{DateFrom: str("2023-03-31")}, 3},
		{"date to inclusive", Predicates{DateTo: str("2023-03-31")}, 2},
		{"date range", Predicates{DateFrom: str("2023-03-31"), DateTo: str("2023-04-01")}, 2},
		{"fiscal label", Predicates{FiscalLabel: str("F2024")}, 2},
		{"conjunction", Predicates{Currency: str("CAD"), Customer: str("acme"), DateTo: str("2023-03-31")}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Apply(ledger(), tc.p, nil, cal)
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if len(got) != tc.want {
				t.Fatalf("got %d records, want %d: %+v", len(got), tc.want, got)
			}
		})
	}
}

func TestInvalidDateBounds(t *testing.T) {
	cases := []struct {
		p     Predicates
		param string
	}{
		{Predicates{DateFrom: str("not-a-date")}, ParamDateFrom},
		{Predicates{DateTo: str("2023-02-30")}, ParamDateTo},
		{Predicates{Customer: str("acme"), DateFrom: str("2023-01-01"), DateTo: str("soon")}, ParamDateTo},
	}
	for _, tc := range cases {
		got, err := Apply(ledger(), tc.p, nil, cal)
		var derr *core.InvalidDateError
		if !errors.As(err, &derr) {
			t.Fatalf("expected InvalidDateError, got %v", err)
		}
		if derr.Param != tc.param {
			t.Fatalf("param = %q, want %q", derr.Param, tc.param)
		}
		if got != nil {
			t.Fatalf("no records may be returned alongside an error, got %d", len(got))
		}
	}
}

func TestWindowDispatch(t *testing.T) {
	r := period.NewResolver(cal)
	asOf := core.NewDate(2023, time.December, 31)

	ytd, _ := r.Resolve("YTD", asOf)
	c, _ := Compile(Predicates{})
	if got := c.Apply(ledger(), ytd, cal); len(got) != 2 {
		t.Fatalf("YTD got %d records, want 2", len(got))
	}

	fy, _ := r.Resolve("F2023", asOf)
	got := c.Apply(ledger(), fy, cal)
	if len(got) != 2 {
		t.Fatalf("F2023 got %d records, want 2", len(got))
	}
	for _, t2 := range got {
		if cal.Label(t2.Date) != "F2023" {
			t.Fatalf("record %s has label %s", t2.Date, cal.Label(t2.Date))
		}
	}
}

func TestFiscalTokenMatchesLabelEquality(t *testing.T) {
	var records []core.Transaction
	d := core.NewDate(2021, time.January, 1)
	for i := 0; i < 3*365; i += 5 {
		records = append(records, tx(d.AddDays(i), "P", "c", "l", "co", "CAD"))
	}
	r := period.NewResolver(cal)
	c, _ := Compile(Predicates{})
	for _, token := range []string{"F2021", "F2022", "F2023", "F2024"} {
		w, err := r.Resolve(token, core.NewDate(2023, time.December, 31))
		if err != nil {
			t.Fatalf("Resolve(%s): %v", token, err)
		}
		got := c.Apply(records, w, cal)
		want := 0
		for _, rec := range records {
			if cal.Label(rec.Date) == token {
				want++
			}
		}
		if len(got) != want {
			t.Fatalf("%s: got %d records, want %d", token, len(got), want)
		}
	}
}

func TestApplyDoesNotMutateSource(t *testing.T) {
	src := ledger()
	before := append([]core.Transaction(nil), src...)
	got, _ := Apply(src, Predicates{Currency: str("CAD")}, nil, cal)
	if len(got) > 0 {
		got[0].Customer = "changed"
	}
	for i := range src {
		if src[i].Customer != before[i].Customer || !src[i].Date.Equal(before[i].Date.Time) {
			t.Fatalf("source record %d mutated", i)
		}
	}
}
