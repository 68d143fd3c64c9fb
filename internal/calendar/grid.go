package calendar

import (
	"time"

	"github.com/jwalitptl/birthcare-portal/internal/model"
)

// Cell is one square of the month grid. Leading blanks have Day 0.
type Cell struct {
	Day     int                 `json:"day"`
	IsToday bool                `json:"is_today"`
	Visits  []model.VisitRecord `json:"visits"`
}

func (c Cell) Blank() bool {
	return c.Day == 0
}

// Grid is the derived view of one month. It is rebuilt from scratch on every change.
type Grid struct {
	Month   Month  `json:"month"`
	Leading int    `json:"leading"`
	Days    int    `json:"days"`
	Cells   []Cell `json:"cells"`
	// Skipped counts visits dropped because their date could not be parsed.
	Skipped int `json:"skipped"`
}

// BuildGrid buckets visits into the cells of m. Every visit dated inside m lands in exactly
// one cell, in input order. Per-day lists are never truncated.
func BuildGrid(m Month, visits []model.VisitRecord, now time.Time) Grid {
	days := DaysInMonth(m.Year, m.Month)
	leading := FirstWeekdayOffset(m.Year, m.Month)

	g := Grid{
		Month:   m,
		Leading: leading,
		Days:    days,
		Cells:   make([]Cell, leading+days),
	}
	for i := 0; i < leading; i++ {
		g.Cells[i] = Cell{Visits: []model.VisitRecord{}}
	}
	for day := 1; day <= days; day++ {
		g.Cells[leading+day-1] = Cell{
			Day:     day,
			IsToday: IsToday(m.Year, m.Month, day, now),
			Visits:  []model.VisitRecord{},
		}
	}

	for _, v := range visits {
		d, err := ParseDate(v.ScheduledDate)
		if err != nil {
			g.Skipped++
			continue
		}
		if !m.Contains(d) {
			continue
		}
		idx := leading + d.Day - 1
		g.Cells[idx].Visits = append(g.Cells[idx].Visits, v)
	}
	return g
}

// Cell returns the cell for a day of the month.
func (g Grid) Cell(day int) (Cell, bool) {
	if day < 1 || day > g.Days {
		return Cell{}, false
	}
	return g.Cells[g.Leading+day-1], true
}

// Visits returns the union of all cells in grid order.
func (g Grid) Visits() []model.VisitRecord {
	var out []model.VisitRecord
	for _, c := range g.Cells {
		out = append(out, c.Visits...)
	}
	return out
}

// VisitCount returns the number of visits placed on day.
func (g Grid) VisitCount(day int) int {
	c, ok := g.Cell(day)
	if !ok {
		return 0
	}
	return len(c.Visits)
}
