package calendar

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar date without time of day or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate reads the calendar date at the start of s. A time-of-day or zone suffix
// separated by 'T' or a space is ignored, so "2025-03-14T23:30:00-05:00" is 2025-03-14.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) < len(dateLayout) {
		return Date{}, fmt.Errorf("invalid date %q", s)
	}
	if len(s) > len(dateLayout) {
		if sep := s[len(dateLayout)]; sep != 'T' && sep != ' ' {
			return Date{}, fmt.Errorf("invalid date %q", s)
		}
	}
	t, err := time.Parse(dateLayout, s[:len(dateLayout)])
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// DateOf returns t's calendar date in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Month is a year and month pair used for navigation.
type Month struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

func (m Month) Valid() bool {
	return m.Month >= time.January && m.Month <= time.December
}

// Range returns the first and last calendar date of the month.
func (m Month) Range() (Date, Date) {
	return Date{Year: m.Year, Month: m.Month, Day: 1},
		Date{Year: m.Year, Month: m.Month, Day: DaysInMonth(m.Year, m.Month)}
}

func (m Month) Contains(d Date) bool {
	return d.Year == m.Year && d.Month == m.Month
}
