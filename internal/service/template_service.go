package service

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"fitcal/coach-planner/internal/domain"
	"fitcal/coach-planner/internal/repository"
)

// TemplateService manages a trainer's reusable entry templates.
type TemplateService interface {
	CreateTemplate(ctx context.Context, trainerID primitive.ObjectID, name string, kind domain.EntryKind, notes string, workout *domain.WorkoutPayload, meal *domain.MealPayload) (*domain.Template, error)
	GetTemplates(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Template, error)
	DeleteTemplate(ctx context.Context, trainerID, templateID primitive.ObjectID) error
}

type templateService struct {
	templateRepo repository.TemplateRepository
}

// NewTemplateService creates a new instance of templateService.
func NewTemplateService(templateRepo repository.TemplateRepository) TemplateService {
	return &templateService{templateRepo: templateRepo}
}

// CreateTemplate saves a reusable payload under the trainer's library.
func (s *templateService) CreateTemplate(ctx context.Context, trainerID primitive.ObjectID, name string, kind domain.EntryKind, notes string, workout *domain.WorkoutPayload, meal *domain.MealPayload) (*domain.Template, error) {
	if trainerID == primitive.NilObjectID {
		return nil, errors.New("trainer ID is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrValidation
	}
	if !kind.IsValid() {
		return nil, ErrInvalidKind
	}
	workout, meal = normalizePayload(kind, workout, meal)

	template := &domain.Template{
		TrainerID: trainerID,
		Name:      strings.TrimSpace(name),
		Kind:      kind,
		Notes:     notes,
		Workout:   workout,
		Meal:      meal,
	}

	templateID, err := s.templateRepo.Create(ctx, template)
	if err != nil {
		return nil, err
	}
	return s.templateRepo.GetByID(ctx, templateID)
}

// GetTemplates lists the trainer's template library.
func (s *templateService) GetTemplates(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Template, error) {
	if trainerID == primitive.NilObjectID {
		return nil, errors.New("trainer ID is required")
	}
	return s.templateRepo.GetByTrainerID(ctx, trainerID)
}

// DeleteTemplate removes a template from the trainer's library.
func (s *templateService) DeleteTemplate(ctx context.Context, trainerID, templateID primitive.ObjectID) error {
	if trainerID == primitive.NilObjectID || templateID == primitive.NilObjectID {
		return errors.New("trainer ID and template ID are required")
	}
	err := s.templateRepo.Delete(ctx, templateID, trainerID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTemplateNotFound
	}
	return err
}
