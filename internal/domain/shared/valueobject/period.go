package valueobject

import (
	"fmt"
	"time"
)

// Period is a billing month.
type Period struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// NewPeriod validates and builds a Period.
func NewPeriod(month, year int) (Period, error) {
	if month < 1 || month > 12 {
		return Period{}, fmt.Errorf("month must be between 1 and 12, got %d", month)
	}
	if year < 1900 || year > 9999 {
		return Period{}, fmt.Errorf("year out of range: %d", year)
	}
	return Period{Month: month, Year: year}, nil
}

// PeriodOf returns the billing period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Month: int(t.Month()), Year: t.Year()}
}

// Next returns the following calendar month.
func (p Period) Next() Period {
	if p.Month == 12 {
		return Period{Month: 1, Year: p.Year + 1}
	}
	return Period{Month: p.Month + 1, Year: p.Year}
}

// Before reports whether p is strictly earlier than other.
func (p Period) Before(other Period) bool {
	return p.index() < other.index()
}

// After reports whether p is strictly later than other.
func (p Period) After(other Period) bool {
	return p.index() > other.index()
}

func (p Period) index() int {
	return p.Year*12 + p.Month - 1
}

// DayIn returns the given day of this month at midnight in loc, clamped to the
// last day of the month.
func (p Period) DayIn(day int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	last := time.Date(p.Year, time.Month(p.Month)+1, 0, 0, 0, 0, 0, loc).Day()
	if day < 1 {
		day = 1
	}
	if day > last {
		day = last
	}
	return time.Date(p.Year, time.Month(p.Month), day, 0, 0, 0, 0, loc)
}

// Range returns every period from p through end, inclusive. It is empty when
// end is before p.
func (p Period) Range(end Period) []Period {
	var out []Period
	for cur := p; !cur.After(end); cur = cur.Next() {
		out = append(out, cur)
	}
	return out
}

// String formats as YYYY-MM
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}
