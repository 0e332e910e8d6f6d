package period

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"salesledger/internal/core"
	"salesledger/internal/fiscal"
)

const (
	TokenYTD       = "YTD"
	TokenLTMPrefix = "LTM"
)

var fiscalToken = regexp.MustCompile(`^F[0-9]+$`)

// Resolver turns period tokens into windows relative to an as-of date.
type Resolver struct {
	cal fiscal.Calendar
}

func NewResolver(cal fiscal.Calendar) *Resolver {
	return &Resolver{cal: cal}
}

// Resolve returns the window for token. Unknown tokens fail with
// *core.InvalidPeriodError.
func (r *Resolver) Resolve(token string, asOf core.Date) (Window, error) {
	asOf = core.DateOf(asOf.Time)
	switch {
	case token == TokenYTD:
		fy := r.cal.FiscalYear(asOf)
		return DateRangeWindow{
			Start: r.cal.StartOf(fy),
			End:   asOf,
			Name:  "YTD " + fiscal.LabelFor(fy),
		}, nil

	case fiscalToken.MatchString(token):
		fy, err := strconv.Atoi(token[1:])
		if err != nil {
			return nil, &core.InvalidPeriodError{Token: token}
		}
		return LabelWindow{FiscalLabel: token, FiscalYear: fy}, nil

	case strings.HasPrefix(token, TokenLTMPrefix):
		return DateRangeWindow{
			Start: yearBefore(asOf),
			End:   asOf,
			Name:  "LTM " + asOf.Format("Jan 2006"),
		}, nil
	}
	return nil, &core.InvalidPeriodError{Token: token}
}

// yearBefore steps back one calendar year, clamping February 29 to the 28th.
func yearBefore(d core.Date) core.Date {
	y, m, day := d.Date()
	if last := time.Date(y-1, m+1, 0, 0, 0, 0, 0, time.UTC).Day(); day > last {
		day = last
	}
	return core.NewDate(y-1, m, day)
}
