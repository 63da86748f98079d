package calendar

import (
	"math"

	"fitcal/coach-planner/internal/domain"
)

// DaySummary is the per-day (or per-kind-group) completion badge data.
type DaySummary struct {
	Count           int     `json:"count"`
	CompletedCount  int     `json:"completedCount"`
	CompletionRatio float64 `json:"completionRatio"`
}

// Summarize computes the completion summary for one day's entries.
// Zero entries yield a ratio of 0, never NaN.
func Summarize(entries []domain.PlanEntry) DaySummary {
	summary := DaySummary{Count: len(entries)}
	for _, entry := range entries {
		if entry.Status == domain.StatusCompleted {
			summary.CompletedCount++
		}
	}
	if summary.Count > 0 {
		summary.CompletionRatio = float64(summary.CompletedCount) / float64(summary.Count)
	}
	return summary
}

// SummarizeByKind groups one day's entries by kind and summarizes each group.
func SummarizeByKind(entries []domain.PlanEntry) map[domain.EntryKind]DaySummary {
	groups := make(map[domain.EntryKind][]domain.PlanEntry)
	for _, entry := range entries {
		groups[entry.Kind] = append(groups[entry.Kind], entry)
	}
	summaries := make(map[domain.EntryKind]DaySummary, len(groups))
	for kind, group := range groups {
		summaries[kind] = Summarize(group)
	}
	return summaries
}

// SumMacros totals calories and macros across a day's entries. Entries
// without a meal payload contribute zero to every field; a missing payload
// never propagates into the sum.
func SumMacros(entries []domain.PlanEntry) domain.MealPayload {
	var total domain.MealPayload
	for _, entry := range entries {
		if entry.Meal == nil {
			continue
		}
		total.Calories += entry.Meal.Calories
		total.ProteinG += entry.Meal.ProteinG
		total.CarbsG += entry.Meal.CarbsG
		total.FatG += entry.Meal.FatG
	}
	return roundMacros(total)
}

// ScalePer100g scales a per-100g nutrition base to the selected quantity:
// value * grams / 100, rounded per field (whole calories, one decimal for
// macro grams). Pure, so manual quantity inputs and preset quantity buttons
// share the exact same arithmetic.
func ScalePer100g(base domain.MealPayload, grams float64) domain.MealPayload {
	factor := grams / 100
	return roundMacros(domain.MealPayload{
		Calories: base.Calories * factor,
		ProteinG: base.ProteinG * factor,
		CarbsG:   base.CarbsG * factor,
		FatG:     base.FatG * factor,
	})
}

// ScaleServings scales a per-serving nutrition base by a serving count.
func ScaleServings(base domain.MealPayload, servings float64) domain.MealPayload {
	return roundMacros(domain.MealPayload{
		Calories: base.Calories * servings,
		ProteinG: base.ProteinG * servings,
		CarbsG:   base.CarbsG * servings,
		FatG:     base.FatG * servings,
	})
}

func roundMacros(p domain.MealPayload) domain.MealPayload {
	p.Calories = math.Round(p.Calories)
	p.ProteinG = round1(p.ProteinG)
	p.CarbsG = round1(p.CarbsG)
	p.FatG = round1(p.FatG)
	return p
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
