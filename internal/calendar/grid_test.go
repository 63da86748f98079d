package calendar

import (
	"reflect"
	"testing"
	"time"

	"fitcal/coach-planner/internal/domain"
)

func TestMonthGrid_WholeWeeks(t *testing.T) {
	tests := []struct {
		name         string
		year         int
		month        time.Month
		firstWeekday time.Weekday
		wantCells    int
	}{
		{"feb 2021 starts on monday, no overflow", 2021, time.February, time.Monday, 28},
		{"sep 2025 starts on monday", 2025, time.September, time.Monday, 35},
		{"mar 2025 sunday-first needs six weeks", 2025, time.March, time.Sunday, 42},
		{"aug 2026 monday-first needs six weeks", 2026, time.August, time.Monday, 42},
		{"leap february 2024", 2024, time.February, time.Monday, 35},
	}

	now := time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cells := MonthGrid(tt.year, tt.month, tt.firstWeekday, Index{}, now)
			if len(cells) != tt.wantCells {
				t.Fatalf("len(cells) = %d, want %d", len(cells), tt.wantCells)
			}
			if len(cells)%7 != 0 {
				t.Errorf("len(cells) = %d, not a multiple of 7", len(cells))
			}
			if got := cells[0].Date.Weekday(); got != tt.firstWeekday {
				t.Errorf("first cell weekday = %v, want %v", got, tt.firstWeekday)
			}
		})
	}
}

func TestMonthGrid_ContainsEveryMonthDayOnce(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	cells := MonthGrid(2025, time.March, time.Monday, Index{}, now)

	seen := make(map[int]int)
	for _, cell := range cells {
		if cell.InMonth {
			if cell.Date.Month() != time.March {
				t.Errorf("cell %s marked InMonth but is %v", cell.DateString, cell.Date.Month())
			}
			seen[cell.Day]++
		}
	}
	for day := 1; day <= 31; day++ {
		if seen[day] != 1 {
			t.Errorf("day %d appears %d times, want 1", day, seen[day])
		}
	}
}

func TestMonthGrid_Deterministic(t *testing.T) {
	index := BuildIndex([]domain.PlanEntry{
		{ScheduledDate: "2025-03-10", Name: "Push Day", Kind: domain.KindStrength},
		{ScheduledDate: "2025-03-10", Name: "Oatmeal", Kind: domain.KindBreakfast},
	})
	now := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)

	first := MonthGrid(2025, time.March, time.Monday, index, now)
	second := MonthGrid(2025, time.March, time.Monday, index, now)
	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs produced different grids")
	}
}

func TestMonthGrid_TodayMarking(t *testing.T) {
	now := time.Date(2025, time.March, 10, 23, 30, 0, 0, time.UTC)
	cells := MonthGrid(2025, time.March, time.Monday, Index{}, now)

	var todays []string
	for _, cell := range cells {
		if cell.IsToday {
			todays = append(todays, cell.DateString)
		}
	}
	if len(todays) != 1 || todays[0] != "2025-03-10" {
		t.Errorf("IsToday cells = %v, want exactly [2025-03-10]", todays)
	}
}

func TestMonthGrid_OverflowCellsCarryEntries(t *testing.T) {
	// The April 2025 sunday-first grid leads with 2025-03-30 and 2025-03-31.
	index := BuildIndex([]domain.PlanEntry{
		{ScheduledDate: "2025-03-30", Name: "Long Run", Kind: domain.KindCardio},
	})
	now := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	cells := MonthGrid(2025, time.April, time.Sunday, index, now)

	if cells[0].DateString != "2025-03-30" {
		t.Fatalf("grid start = %s, want 2025-03-30", cells[0].DateString)
	}
	if cells[0].InMonth {
		t.Error("leading cell marked InMonth")
	}
	if len(cells[0].Entries) != 1 || cells[0].Entries[0].Name != "Long Run" {
		t.Errorf("leading cell entries = %+v, want the Long Run entry", cells[0].Entries)
	}
}

func TestMonthRange_Inclusive(t *testing.T) {
	start, end := MonthRange(2025, time.March, time.Monday)
	if got := DateString(start); got != "2025-02-24" {
		t.Errorf("grid start = %s, want 2025-02-24", got)
	}
	// 2025-03-31 is a Monday, so the final week runs into April.
	if got := DateString(end); got != "2025-04-06" {
		t.Errorf("grid end = %s, want 2025-04-06", got)
	}
}
