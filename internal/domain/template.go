package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Template is a reusable, undated entry payload owned by a trainer.
// Instantiating a template onto a date produces a fresh planned PlanEntry
// with the template's kind, name and payload copied over.
type Template struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TrainerID primitive.ObjectID `bson:"trainerId" json:"trainerId"`
	Name      string             `bson:"name" json:"name"`
	Kind      EntryKind          `bson:"kind" json:"kind"`
	Notes     string             `bson:"notes,omitempty" json:"notes,omitempty"`

	Workout *WorkoutPayload `bson:"workout,omitempty" json:"workout,omitempty"`
	Meal    *MealPayload    `bson:"meal,omitempty" json:"meal,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
