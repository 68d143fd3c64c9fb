// Package calendar places prenatal visit records onto a month grid.
package calendar

import (
	"time"

	"github.com/jwalitptl/birthcare-portal/internal/model"
)

// DaysInMonth returns the Gregorian day count of month, or 0 for an invalid month.
func DaysInMonth(year int, month time.Month) int {
	if month < time.January || month > time.December {
		return 0
	}
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FirstWeekdayOffset returns the weekday of day 1 with Sunday as 0.
func FirstWeekdayOffset(year int, month time.Month) int {
	return int(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Weekday())
}

// NavigateMonth moves current by delta months, carrying into the year.
func NavigateMonth(current Month, delta int) Month {
	total := current.Year*12 + int(current.Month-1) + delta
	year := total / 12
	if total%12 < 0 {
		year--
	}
	return Month{Year: year, Month: time.Month(total-year*12) + 1}
}

// VisitsForDay keeps the visits scheduled on the given calendar date, in input order.
// Visits whose date cannot be parsed never match.
func VisitsForDay(visits []model.VisitRecord, year int, month time.Month, day int) []model.VisitRecord {
	target := Date{Year: year, Month: month, Day: day}
	out := make([]model.VisitRecord, 0)
	for _, v := range visits {
		d, err := ParseDate(v.ScheduledDate)
		if err != nil {
			continue
		}
		if d == target {
			out = append(out, v)
		}
	}
	return out
}

// IsToday reports whether year/month/day is now's local calendar date.
func IsToday(year int, month time.Month, day int, now time.Time) bool {
	y, m, d := now.Date()
	return y == year && m == month && d == day
}

// TodaysVisits is VisitsForDay for now's calendar date, whatever month is displayed.
func TodaysVisits(visits []model.VisitRecord, now time.Time) []model.VisitRecord {
	y, m, d := now.Date()
	return VisitsForDay(visits, y, m, d)
}
