package calendar

import (
	"time"

	"fitcal/coach-planner/internal/domain"
)

// Cell is one day slot in a rendered month view. Cells are ephemeral: they
// are rebuilt on every month navigation or entry change and never persisted.
type Cell struct {
	Date       time.Time          `json:"-"`
	DateString string             `json:"date"`
	Day        int                `json:"day"`
	InMonth    bool               `json:"inMonth"`
	IsToday    bool               `json:"isToday"`
	Entries    []domain.PlanEntry `json:"entries"`
}

// MonthRange returns the first and last day of the grid for the given month:
// the month extended backward to the configured first weekday and forward to
// the end of its final week. Both bounds are inclusive.
func MonthRange(year int, month time.Month, firstWeekday time.Weekday) (time.Time, time.Time) {
	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)

	lead := (int(monthStart.Weekday()) - int(firstWeekday) + 7) % 7
	trail := 6 - (int(monthEnd.Weekday())-int(firstWeekday)+7)%7

	return monthStart.AddDate(0, 0, -lead), monthEnd.AddDate(0, 0, trail)
}

// MonthGrid generates the ordered cell sequence for one month: whole weeks
// only, starting on firstWeekday, with leading/trailing days of the adjacent
// months included and marked InMonth=false. Entries are looked up in the
// index by canonical date string; days without entries get an empty list.
// Pure function of its inputs: same month, index and now yield the same grid.
func MonthGrid(year int, month time.Month, firstWeekday time.Weekday, index Index, now time.Time) []Cell {
	gridStart, gridEnd := MonthRange(year, month, firstWeekday)
	todayKey := DateString(now)

	cells := make([]Cell, 0, 42)
	for day := gridStart; !day.After(gridEnd); day = day.AddDate(0, 0, 1) {
		key := DateString(day)
		cells = append(cells, Cell{
			Date:       day,
			DateString: key,
			Day:        day.Day(),
			InMonth:    day.Month() == month,
			IsToday:    key == todayKey,
			Entries:    index.Entries(key),
		})
	}
	return cells
}
