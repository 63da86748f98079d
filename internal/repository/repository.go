package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"fitcal/coach-planner/internal/domain"
)

// Sentinel errors shared by all repository implementations.
var (
	ErrNotFound       = RepositoryError("not found")
	ErrDuplicateEmail = RepositoryError("email already registered")
	ErrUpdateFailed   = RepositoryError("update failed")
	ErrDeleteFailed   = RepositoryError("delete failed")
)

// RepositoryError distinguishes storage-layer errors from service errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository provides access to trainer and client accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	AddClientToRoster(ctx context.Context, trainerID, clientID primitive.ObjectID) error
	GetClientsByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.User, error)
	SetTrainerForClient(ctx context.Context, clientID, trainerID primitive.ObjectID) error
}

// PlanEntryRepository provides access to scheduled plan entries.
//
// Date parameters are canonical YYYY-MM-DD strings. The form sorts
// lexicographically in chronological order, so range queries compare the
// strings directly. GetByOwnerAndRange is inclusive on both bounds and is
// expected to be called with grid-aligned bounds (see calendar.MonthRange).
type PlanEntryRepository interface {
	Create(ctx context.Context, entry *domain.PlanEntry) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.PlanEntry, error)
	GetByOwnerAndDate(ctx context.Context, ownerID primitive.ObjectID, date string) ([]domain.PlanEntry, error)
	GetByOwnerAndRange(ctx context.Context, ownerID primitive.ObjectID, startDate, endDate string) ([]domain.PlanEntry, error)
	Update(ctx context.Context, entry *domain.PlanEntry) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// TemplateRepository provides access to trainer-owned entry templates.
type TemplateRepository interface {
	Create(ctx context.Context, template *domain.Template) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Template, error)
	GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Template, error)
	Delete(ctx context.Context, id primitive.ObjectID, trainerID primitive.ObjectID) error
}
