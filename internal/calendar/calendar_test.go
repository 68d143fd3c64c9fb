package calendar

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/birthcare-portal/internal/model"
)

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2024, time.February, 29},
		{2023, time.February, 28},
		{2000, time.February, 29},
		{1900, time.February, 28},
		{2025, time.January, 31},
		{2025, time.April, 30},
		{2025, time.December, 31},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d-%02d", tt.year, tt.month), func(t *testing.T) {
			assert.Equal(t, tt.want, DaysInMonth(tt.year, tt.month))
		})
	}

	assert.Zero(t, DaysInMonth(2025, 0))
	assert.Zero(t, DaysInMonth(2025, 13))
}

func TestDaysInMonthMatchesGregorianRule(t *testing.T) {
	lengths := map[time.Month]int{
		time.January: 31, time.March: 31, time.April: 30, time.May: 31, time.June: 30,
		time.July: 31, time.August: 31, time.September: 30, time.October: 31,
		time.November: 30, time.December: 31,
	}
	for year := 1600; year <= 2400; year++ {
		for m := time.January; m <= time.December; m++ {
			want := lengths[m]
			if m == time.February {
				want = 28
				if isLeap(year) {
					want = 29
				}
			}
			if got := DaysInMonth(year, m); got != want {
				t.Fatalf("DaysInMonth(%d, %d) = %d, want %d", year, m, got, want)
			}
		}
	}
}

func TestFirstWeekdayOffset(t *testing.T) {
	// 2025-06-01 is a Sunday, 2025-10-01 a Wednesday, 2024-02-01 a Thursday.
	assert.Equal(t, 0, FirstWeekdayOffset(2025, time.June))
	assert.Equal(t, 3, FirstWeekdayOffset(2025, time.October))
	assert.Equal(t, 4, FirstWeekdayOffset(2024, time.February))
}

func TestNavigateMonth(t *testing.T) {
	tests := []struct {
		from  Month
		delta int
		want  Month
	}{
		{Month{2025, time.December}, 1, Month{2026, time.January}},
		{Month{2025, time.January}, -1, Month{2024, time.December}},
		{Month{2025, time.March}, 0, Month{2025, time.March}},
		{Month{2025, time.March}, 25, Month{2027, time.April}},
		{Month{2025, time.March}, -27, Month{2022, time.December}},
		{Month{2025, time.March}, -14, Month{2024, time.January}},
		{Month{0, time.January}, -1, Month{-1, time.December}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s%+d", tt.from, tt.delta), func(t *testing.T) {
			assert.Equal(t, tt.want, NavigateMonth(tt.from, tt.delta))
		})
	}
}

func TestNavigateMonthRoundTrip(t *testing.T) {
	start := Month{2025, time.July}
	for delta := -40; delta <= 40; delta++ {
		got := NavigateMonth(NavigateMonth(start, delta), -delta)
		require.Equal(t, start, got, "delta %d", delta)
		require.True(t, NavigateMonth(start, delta).Valid())
	}
}

func TestParseDate(t *testing.T) {
	valid := map[string]Date{
		"2025-03-14":                {2025, time.March, 14},
		"2025-03-14T23:30:00Z":      {2025, time.March, 14},
		"2025-03-14T23:30:00-05:00": {2025, time.March, 14},
		"2025-03-14 08:00:00":       {2025, time.March, 14},
		" 2025-03-14 ":              {2025, time.March, 14},
	}
	for in, want := range valid {
		got, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "yesterday", "2025-02-30", "2025-3-14", "2025-03-145", "14/03/2025"} {
		_, err := ParseDate(in)
		assert.Error(t, err, in)
	}
}

func visit(id int64, date string) model.VisitRecord {
	return model.VisitRecord{ID: id, PatientID: 7, VisitNumber: int(id), VisitName: "Visit", ScheduledDate: date, Status: model.VisitStatusScheduled}
}

func ids(visits []model.VisitRecord) []int64 {
	out := make([]int64, 0, len(visits))
	for _, v := range visits {
		out = append(out, v.ID)
	}
	return out
}

func TestVisitsForDayIgnoresTimeOfDayAndKeepsOrder(t *testing.T) {
	visits := []model.VisitRecord{
		visit(1, "2025-03-14T16:00:00Z"),
		visit(2, "2025-03-15"),
		visit(3, "not a date"),
		visit(4, "2025-03-14 08:00:00"),
		visit(5, "2025-03-14"),
	}

	got := VisitsForDay(visits, 2025, time.March, 14)
	assert.Equal(t, []int64{1, 4, 5}, ids(got))
	assert.Empty(t, VisitsForDay(visits, 2025, time.March, 16))
}

func TestIsToday(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	now := time.Date(2025, time.March, 15, 1, 0, 0, 0, loc)

	assert.True(t, IsToday(2025, time.March, 15, now))
	assert.False(t, IsToday(2025, time.March, 14, now))
	assert.False(t, IsToday(2024, time.March, 15, now))
}

func TestBuildGridLayout(t *testing.T) {
	now := time.Date(2025, time.October, 14, 10, 0, 0, 0, time.UTC)
	g := BuildGrid(Month{2025, time.October}, nil, now)

	assert.Equal(t, 3, g.Leading)
	assert.Equal(t, 31, g.Days)
	require.Len(t, g.Cells, 34)
	for i := 0; i < 3; i++ {
		assert.True(t, g.Cells[i].Blank())
	}
	assert.Equal(t, 1, g.Cells[3].Day)
	assert.Equal(t, 31, g.Cells[33].Day)

	c, ok := g.Cell(14)
	require.True(t, ok)
	assert.True(t, c.IsToday)
	c, _ = g.Cell(13)
	assert.False(t, c.IsToday)

	_, ok = g.Cell(32)
	assert.False(t, ok)
}

func TestBuildGridPlacesEveryVisitOnce(t *testing.T) {
	m := Month{2024, time.February}
	visits := []model.VisitRecord{
		visit(1, "2024-02-01"),
		visit(2, "2024-02-29T09:00:00+07:00"),
		visit(3, "2024-01-31"),
		visit(4, "2024-03-01"),
		visit(5, "garbage"),
		visit(6, "2024-02-29"),
		visit(7, "2024-02-10 10:00:00"),
		visit(8, "2024-02-10 11:00:00"),
		visit(9, "2024-02-10"),
		visit(10, ""),
	}

	g := BuildGrid(m, visits, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, 2, g.Skipped)
	assert.Equal(t, []int64{1, 7, 8, 9, 2, 6}, ids(g.Visits()))
	assert.Equal(t, 3, g.VisitCount(10), "more than a display cap are still all returned")
	assert.Equal(t, 2, g.VisitCount(29))

	seen := map[int64]int{}
	for _, c := range g.Cells {
		for _, v := range c.Visits {
			seen[v.ID]++
			d, err := ParseDate(v.ScheduledDate)
			require.NoError(t, err)
			assert.Equal(t, c.Day, d.Day)
		}
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "visit %d", id)
	}
}

func TestTodaysVisitsIndependentOfDisplayedMonth(t *testing.T) {
	now := time.Date(2025, time.March, 14, 12, 0, 0, 0, time.UTC)
	visits := []model.VisitRecord{visit(1, "2025-03-14"), visit(2, "2025-04-14"), visit(3, "2025-03-14T07:00:00Z")}

	want := TodaysVisits(visits, now)
	assert.Equal(t, []int64{1, 3}, ids(want))

	m := MonthOf(now)
	for delta := -3; delta <= 3; delta++ {
		_ = BuildGrid(NavigateMonth(m, delta), visits, now)
		assert.Equal(t, want, TodaysVisits(visits, now))
	}
}
