// Package period resolves reporting period tokens (YTD, F<year>, LTM) into
// windows over the ledger.
//
// Two kinds of window exist. YTD and LTM resolve to an inclusive date range.
// A fiscal-year token resolves to a label-equality predicate that the filter
// evaluates through the fiscal calendar, so its boundaries are exactly the
// ones fiscal.Calendar uses for YTD.
package period

import (
	"salesledger/internal/core"
	"salesledger/internal/fiscal"
)

// Kind tags the window variant.
type Kind int

const (
	KindDateRange Kind = iota + 1
	KindLabel
)

func (k Kind) String() string {
	switch k {
	case KindDateRange:
		return "date_range"
	case KindLabel:
		return "fiscal_label"
	default:
		return "unknown"
	}
}

// Window is either a DateRangeWindow or a LabelWindow.
type Window interface {
	Kind() Kind
	Label() string
	// Contains reports whether d falls inside the window.
	Contains(d core.Date, cal fiscal.Calendar) bool
	// Bounds returns the inclusive first and last day covered by the window.
	Bounds(cal fiscal.Calendar) (start, end core.Date)
}

// DateRangeWindow covers Start..End inclusive.
type DateRangeWindow struct {
	Start core.Date
	End   core.Date
	Name  string
}

func (w DateRangeWindow) Kind() Kind    { return KindDateRange }
func (w DateRangeWindow) Label() string { return w.Name }

func (w DateRangeWindow) Contains(d core.Date, _ fiscal.Calendar) bool {
	return !d.Before(w.Start.Time) && !d.After(w.End.Time)
}

func (w DateRangeWindow) Bounds(_ fiscal.Calendar) (core.Date, core.Date) {
	return w.Start, w.End
}

// LabelWindow selects records whose fiscal label equals FiscalLabel.
type LabelWindow struct {
	FiscalLabel string
	FiscalYear  int
}

func (w LabelWindow) Kind() Kind    { return KindLabel }
func (w LabelWindow) Label() string { return w.FiscalLabel }

func (w LabelWindow) Contains(d core.Date, cal fiscal.Calendar) bool {
	return cal.Label(d) == w.FiscalLabel
}

func (w LabelWindow) Bounds(cal fiscal.Calendar) (core.Date, core.Date) {
	return cal.StartOf(w.FiscalYear), cal.EndOf(w.FiscalYear)
}
