package calendar

import (
	"sort"

	"fitcal/coach-planner/internal/domain"
)

// Index maps canonical date strings to the entries scheduled on that day.
// It is rebuilt wholesale from the current entry collection after every
// change rather than patched in place; entry counts per visible month are
// small, so correctness wins over incremental updates.
type Index map[string][]domain.PlanEntry

// BuildIndex groups entries by their scheduled date string. Input order is
// preserved within a date group (stable grouping); a group is re-sorted by
// the explicit order field, ascending, only when some entry in it carries
// a non-zero order.
func BuildIndex(entries []domain.PlanEntry) Index {
	index := make(Index, len(entries))
	for _, entry := range entries {
		index[entry.ScheduledDate] = append(index[entry.ScheduledDate], entry)
	}
	for key, group := range index {
		if hasExplicitOrder(group) {
			sort.SliceStable(group, func(i, j int) bool {
				return group[i].Order < group[j].Order
			})
			index[key] = group
		}
	}
	return index
}

// Entries returns the entries scheduled on the given date string.
// A date with no entries yields an empty slice, never nil or an error.
func (ix Index) Entries(dateKey string) []domain.PlanEntry {
	if group, ok := ix[dateKey]; ok {
		return group
	}
	return []domain.PlanEntry{}
}

func hasExplicitOrder(group []domain.PlanEntry) bool {
	for _, entry := range group {
		if entry.Order != 0 {
			return true
		}
	}
	return false
}
