// Package period handles "YYYY-MM" rating period identifiers and their UTC
// month boundaries.
package period

import (
	"errors"
	"fmt"
	"time"
)

// ErrBadPeriod reports a malformed period string. Callers treat it as a
// validation failure: no partial work is attempted.
var ErrBadPeriod = errors.New("invalid period, want YYYY-MM")

// Period is one calendar month in UTC.
type Period struct {
	Year  int
	Month time.Month
}

// Parse converts a "YYYY-MM" string into a Period.
func Parse(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrBadPeriod, s)
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

// Of returns the period containing t.
func Of(t time.Time) Period {
	t = t.UTC()
	return Period{Year: t.Year(), Month: t.Month()}
}

// Previous returns the calendar month before the one containing now.
func Previous(now time.Time) Period {
	return Of(now).Add(-1)
}

// Add returns the period n months after p. n may be negative.
func (p Period) Add(n int) Period {
	t := p.Start().AddDate(0, n, 0)
	return Period{Year: t.Year(), Month: t.Month()}
}

// Start returns the period's inclusive start: the first instant of the month
// in UTC.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the period's exclusive end: the first instant of the next
// month in UTC.
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, 0)
}

// Before reports whether p is strictly earlier than q.
func (p Period) Before(q Period) bool {
	if p.Year != q.Year {
		return p.Year < q.Year
	}
	return p.Month < q.Month
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// MonthsBetween returns the number of whole calendar months from `from` to
// `to`, never negative. A span of less than one month yields zero; the
// inactivity floor of one period is applied by the caller.
func MonthsBetween(from, to time.Time) int {
	from, to = from.UTC(), to.UTC()
	n := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if n < 0 {
		return 0
	}
	return n
}
