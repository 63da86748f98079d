package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EntryKind is the closed set of plan entry kinds. Workout kinds and meal
// kinds share the same calendar; the kind decides which payload is populated.
type EntryKind string

const (
	KindStrength       EntryKind = "strength"
	KindCardio         EntryKind = "cardio"
	KindFlexibility    EntryKind = "flexibility"
	KindRest           EntryKind = "rest"
	KindActiveRecovery EntryKind = "active_recovery"

	KindBreakfast      EntryKind = "breakfast"
	KindMorningSnack   EntryKind = "morning_snack"
	KindLunch          EntryKind = "lunch"
	KindAfternoonSnack EntryKind = "afternoon_snack"
	KindDinner         EntryKind = "dinner"
	KindEveningSnack   EntryKind = "evening_snack"
)

// IsWorkout reports whether the kind belongs to the workout calendar.
func (k EntryKind) IsWorkout() bool {
	switch k {
	case KindStrength, KindCardio, KindFlexibility, KindRest, KindActiveRecovery:
		return true
	}
	return false
}

// IsMeal reports whether the kind belongs to the nutrition calendar.
func (k EntryKind) IsMeal() bool {
	switch k {
	case KindBreakfast, KindMorningSnack, KindLunch, KindAfternoonSnack, KindDinner, KindEveningSnack:
		return true
	}
	return false
}

// IsValid reports whether the kind is part of the closed set.
func (k EntryKind) IsValid() bool {
	return k.IsWorkout() || k.IsMeal()
}

// EntryStatus tracks the entry lifecycle.
// planned -> completed and planned -> skipped are the only transitions;
// completed and skipped are final (an entry leaves them only by deletion).
type EntryStatus string

const (
	StatusPlanned   EntryStatus = "planned"
	StatusCompleted EntryStatus = "completed"
	StatusSkipped   EntryStatus = "skipped"
)

// IsFinal reports whether no further status transition is allowed.
func (s EntryStatus) IsFinal() bool {
	return s == StatusCompleted || s == StatusSkipped
}

// ExerciseSet is one prescribed exercise line within a workout payload.
type ExerciseSet struct {
	ExerciseName string  `bson:"exerciseName" json:"exerciseName"`
	Sets         int     `bson:"sets" json:"sets"`
	Reps         int     `bson:"reps" json:"reps"`
	WeightKg     float64 `bson:"weightKg,omitempty" json:"weightKg,omitempty"`
	RestSeconds  int     `bson:"restSeconds,omitempty" json:"restSeconds,omitempty"`
}

// WorkoutPayload holds the exercise prescription for workout-kind entries.
type WorkoutPayload struct {
	Exercises       []ExerciseSet `bson:"exercises" json:"exercises"`
	DurationMinutes int           `bson:"durationMinutes,omitempty" json:"durationMinutes,omitempty"`
}

// MealPayload holds the nutrition snapshot for meal-kind entries.
// Values are totals for the logged quantity, not per-100g bases.
type MealPayload struct {
	Calories float64 `bson:"calories" json:"calories"`
	ProteinG float64 `bson:"proteinG" json:"proteinG"`
	CarbsG   float64 `bson:"carbsG" json:"carbsG"`
	FatG     float64 `bson:"fatG" json:"fatG"`
}

// PlanEntry is a single scheduled workout or meal on a client's calendar.
// ScheduledDate is the canonical YYYY-MM-DD local-date string and is the only
// key ever used for date comparison and grouping; storing a timestamp here
// reintroduces cross-timezone off-by-one-day bugs.
type PlanEntry struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID       primitive.ObjectID `bson:"ownerId" json:"ownerId"`     // the client whose plan this is
	TrainerID     primitive.ObjectID `bson:"trainerId" json:"trainerId"` // denormalized for ownership checks
	ScheduledDate string             `bson:"scheduledDate" json:"scheduledDate"`
	Kind          EntryKind          `bson:"kind" json:"kind"`
	Name          string             `bson:"name" json:"name"`
	Status        EntryStatus        `bson:"status" json:"status"`
	Order         int                `bson:"order,omitempty" json:"order,omitempty"` // 0 means no explicit order
	Notes         string             `bson:"notes,omitempty" json:"notes,omitempty"`

	Workout *WorkoutPayload `bson:"workout,omitempty" json:"workout,omitempty"`
	Meal    *MealPayload    `bson:"meal,omitempty" json:"meal,omitempty"`

	AttachmentKey  string     `bson:"attachmentKey,omitempty" json:"-"` // S3 object key, internal use
	AttachmentName string     `bson:"attachmentName,omitempty" json:"attachmentName,omitempty"`
	CompletedAt    *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CreatedAt      time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time  `bson:"updatedAt" json:"updatedAt"`
}
