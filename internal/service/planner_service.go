package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"fitcal/coach-planner/internal/calendar"
	"fitcal/coach-planner/internal/domain"
	"fitcal/coach-planner/internal/repository"
	"fitcal/coach-planner/internal/storage"
)

// --- Error Definitions ---
var (
	ErrValidation        = errors.New("entry name is required")
	ErrInvalidDate       = errors.New("date must be a YYYY-MM-DD string")
	ErrInvalidKind       = errors.New("unknown entry kind")
	ErrInvalidMonth      = errors.New("month must be between 1 and 12")
	ErrEntryNotFound     = errors.New("plan entry not found")
	ErrEntryAccessDenied = errors.New("access denied to this plan entry")
	ErrInvalidTransition = errors.New("entry status is final and cannot change")
	ErrEmptySourceDay    = errors.New("source day has no entries to copy")
	ErrTemplateNotFound  = errors.New("template not found")
	ErrAttachmentMissing = errors.New("entry has no attachment")
	ErrAttachmentBadType = errors.New("attachment content type must be image or video")
)

// AttachmentUploadResponse carries the presigned PUT URL and the object key
// the client reports back on confirm.
type AttachmentUploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

// EntryPatch is a partial update; nil fields are left untouched.
type EntryPatch struct {
	Name          *string
	ScheduledDate *string
	Order         *int
	Notes         *string
	Workout       *domain.WorkoutPayload
	Meal          *domain.MealPayload
}

// PlannerService is the plan calendar mutator and view builder. Every
// mutation writes to storage before returning; views always re-fetch and
// re-index rather than patching cached state, so edits from another device
// show up on the next view build.
type PlannerService interface {
	// Views
	MonthView(ctx context.Context, ownerID primitive.ObjectID, year int, month time.Month, firstWeekday time.Weekday, now time.Time) ([]calendar.Cell, error)
	DayEntries(ctx context.Context, ownerID primitive.ObjectID, date string) ([]domain.PlanEntry, error)
	EnsureManagesClient(ctx context.Context, trainerID, clientID primitive.ObjectID) error

	// Mutations (trainer)
	CreateEntry(ctx context.Context, trainerID, ownerID primitive.ObjectID, date string, kind domain.EntryKind, name, notes string, workout *domain.WorkoutPayload, meal *domain.MealPayload) (*domain.PlanEntry, error)
	UpdateEntry(ctx context.Context, trainerID, entryID primitive.ObjectID, patch EntryPatch) (*domain.PlanEntry, error)
	DeleteEntry(ctx context.Context, trainerID, entryID primitive.ObjectID) error
	DuplicateDay(ctx context.Context, trainerID, ownerID primitive.ObjectID, sourceDate, targetDate string) ([]domain.PlanEntry, error)
	DuplicateEntry(ctx context.Context, trainerID, entryID primitive.ObjectID, targetDate string) (*domain.PlanEntry, error)
	InstantiateTemplate(ctx context.Context, trainerID, templateID, ownerID primitive.ObjectID, date string) (*domain.PlanEntry, error)

	// Mutations (client)
	MarkComplete(ctx context.Context, ownerID, entryID primitive.ObjectID) (*domain.PlanEntry, error)
	MarkSkipped(ctx context.Context, ownerID, entryID primitive.ObjectID) (*domain.PlanEntry, error)

	// Attachments
	RequestAttachmentUpload(ctx context.Context, ownerID, entryID primitive.ObjectID, contentType string) (*AttachmentUploadResponse, error)
	ConfirmAttachment(ctx context.Context, ownerID, entryID primitive.ObjectID, objectKey, fileName string) (*domain.PlanEntry, error)
	AttachmentDownloadURL(ctx context.Context, userID, entryID primitive.ObjectID) (string, error)
}

type plannerService struct {
	entryRepo    repository.PlanEntryRepository
	templateRepo repository.TemplateRepository
	userRepo     repository.UserRepository
	fileStorage  storage.FileStorage
	log          *logrus.Logger
}

// NewPlannerService creates a new instance of plannerService.
func NewPlannerService(
	entryRepo repository.PlanEntryRepository,
	templateRepo repository.TemplateRepository,
	userRepo repository.UserRepository,
	fileStorage storage.FileStorage,
	log *logrus.Logger,
) PlannerService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &plannerService{
		entryRepo:    entryRepo,
		templateRepo: templateRepo,
		userRepo:     userRepo,
		fileStorage:  fileStorage,
		log:          log,
	}
}

// === Views ===

// MonthView builds the calendar grid for one month of a client's plan.
// Entries are fetched for the full grid range (leading/trailing days
// included), indexed by date string, and merged into the month skeleton.
func (s *plannerService) MonthView(ctx context.Context, ownerID primitive.ObjectID, year int, month time.Month, firstWeekday time.Weekday, now time.Time) ([]calendar.Cell, error) {
	if ownerID == primitive.NilObjectID {
		return nil, errors.New("owner ID is required")
	}
	if month < time.January || month > time.December {
		return nil, ErrInvalidMonth
	}

	gridStart, gridEnd := calendar.MonthRange(year, month, firstWeekday)
	entries, err := s.entryRepo.GetByOwnerAndRange(ctx, ownerID, calendar.DateString(gridStart), calendar.DateString(gridEnd))
	if err != nil {
		return nil, err
	}

	index := calendar.BuildIndex(entries)
	return calendar.MonthGrid(year, month, firstWeekday, index, now), nil
}

// DayEntries returns one day's entries in display order.
func (s *plannerService) DayEntries(ctx context.Context, ownerID primitive.ObjectID, date string) ([]domain.PlanEntry, error) {
	if !calendar.ValidDate(date) {
		return nil, ErrInvalidDate
	}
	entries, err := s.entryRepo.GetByOwnerAndDate(ctx, ownerID, date)
	if err != nil {
		return nil, err
	}
	return calendar.BuildIndex(entries).Entries(date), nil
}

// EnsureManagesClient verifies that the client belongs to the trainer's roster.
func (s *plannerService) EnsureManagesClient(ctx context.Context, trainerID, clientID primitive.ObjectID) error {
	client, err := s.userRepo.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrClientNotFound
		}
		return err
	}
	if client.TrainerID == nil || *client.TrainerID != trainerID {
		return ErrClientNotManaged
	}
	return nil
}

// === Mutations (trainer) ===

// CreateEntry schedules a new plan entry on a client's calendar.
func (s *plannerService) CreateEntry(ctx context.Context, trainerID, ownerID primitive.ObjectID, date string, kind domain.EntryKind, name, notes string, workout *domain.WorkoutPayload, meal *domain.MealPayload) (*domain.PlanEntry, error) {
	// 1. Validate inputs.
	if trainerID == primitive.NilObjectID || ownerID == primitive.NilObjectID {
		return nil, errors.New("trainer ID and owner ID are required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrValidation
	}
	if !calendar.ValidDate(date) {
		return nil, ErrInvalidDate
	}
	if !kind.IsValid() {
		return nil, ErrInvalidKind
	}

	// 2. Verify the client is on this trainer's roster.
	if err := s.EnsureManagesClient(ctx, trainerID, ownerID); err != nil {
		return nil, err
	}

	// 3. Normalize the payload to the kind. Rest days ignore user payload
	// input and get a zeroed prescription.
	workout, meal = normalizePayload(kind, workout, meal)

	entry := &domain.PlanEntry{
		OwnerID:       ownerID,
		TrainerID:     trainerID,
		ScheduledDate: date,
		Kind:          kind,
		Name:          strings.TrimSpace(name),
		Status:        domain.StatusPlanned,
		Notes:         notes,
		Workout:       workout,
		Meal:          meal,
	}

	// 4. Persist; the view layer re-fetches after this resolves.
	entryID, err := s.entryRepo.Create(ctx, entry)
	if err != nil {
		return nil, err
	}
	return s.entryRepo.GetByID(ctx, entryID)
}

// UpdateEntry applies a partial update to an existing entry.
func (s *plannerService) UpdateEntry(ctx context.Context, trainerID, entryID primitive.ObjectID, patch EntryPatch) (*domain.PlanEntry, error) {
	entry, err := s.getOwnedByTrainer(ctx, trainerID, entryID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return nil, ErrValidation
		}
		entry.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.ScheduledDate != nil {
		if !calendar.ValidDate(*patch.ScheduledDate) {
			return nil, ErrInvalidDate
		}
		entry.ScheduledDate = *patch.ScheduledDate
	}
	if patch.Order != nil {
		entry.Order = *patch.Order
	}
	if patch.Notes != nil {
		entry.Notes = *patch.Notes
	}
	if patch.Workout != nil {
		entry.Workout = patch.Workout
	}
	if patch.Meal != nil {
		entry.Meal = patch.Meal
	}
	entry.Workout, entry.Meal = normalizePayload(entry.Kind, entry.Workout, entry.Meal)

	if err := s.entryRepo.Update(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return s.entryRepo.GetByID(ctx, entry.ID)
}

// DeleteEntry removes an entry permanently. Confirmation is the caller's
// concern; by the time this runs the user has already said yes, so there is
// no soft delete and no second check.
func (s *plannerService) DeleteEntry(ctx context.Context, trainerID, entryID primitive.ObjectID) error {
	entry, err := s.getOwnedByTrainer(ctx, trainerID, entryID)
	if err != nil {
		return err
	}

	if entry.AttachmentKey != "" && s.fileStorage != nil {
		if err := s.fileStorage.DeleteObject(ctx, entry.AttachmentKey); err != nil {
			// Orphaned object, not a reason to keep the entry.
			s.log.WithError(err).WithField("objectKey", entry.AttachmentKey).
				Warn("failed to delete entry attachment object")
		}
	}

	if err := s.entryRepo.Delete(ctx, entry.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrEntryNotFound
		}
		return err
	}
	return nil
}

// DuplicateDay copies every entry on sourceDate to targetDate with fresh IDs
// and a planned status. The copies keep kind, payload and relative order.
func (s *plannerService) DuplicateDay(ctx context.Context, trainerID, ownerID primitive.ObjectID, sourceDate, targetDate string) ([]domain.PlanEntry, error) {
	if !calendar.ValidDate(sourceDate) || !calendar.ValidDate(targetDate) {
		return nil, ErrInvalidDate
	}
	if err := s.EnsureManagesClient(ctx, trainerID, ownerID); err != nil {
		return nil, err
	}

	sourceEntries, err := s.entryRepo.GetByOwnerAndDate(ctx, ownerID, sourceDate)
	if err != nil {
		return nil, err
	}
	if len(sourceEntries) == 0 {
		return nil, ErrEmptySourceDay
	}

	copies := make([]domain.PlanEntry, 0, len(sourceEntries))
	for _, source := range sourceEntries {
		entryCopy := copyForDate(&source, targetDate)
		entryID, err := s.entryRepo.Create(ctx, entryCopy)
		if err != nil {
			return nil, err
		}
		entryCopy.ID = entryID
		copies = append(copies, *entryCopy)
	}
	return copies, nil
}

// DuplicateEntry copies a single entry to another date, same reset semantics
// as DuplicateDay.
func (s *plannerService) DuplicateEntry(ctx context.Context, trainerID, entryID primitive.ObjectID, targetDate string) (*domain.PlanEntry, error) {
	if !calendar.ValidDate(targetDate) {
		return nil, ErrInvalidDate
	}
	source, err := s.getOwnedByTrainer(ctx, trainerID, entryID)
	if err != nil {
		return nil, err
	}

	entryCopy := copyForDate(source, targetDate)
	copyID, err := s.entryRepo.Create(ctx, entryCopy)
	if err != nil {
		return nil, err
	}
	entryCopy.ID = copyID
	return entryCopy, nil
}

// InstantiateTemplate creates a dated entry from a reusable template.
func (s *plannerService) InstantiateTemplate(ctx context.Context, trainerID, templateID, ownerID primitive.ObjectID, date string) (*domain.PlanEntry, error) {
	if !calendar.ValidDate(date) {
		return nil, ErrInvalidDate
	}

	template, err := s.templateRepo.GetByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	if template.TrainerID != trainerID {
		return nil, ErrEntryAccessDenied
	}
	if err := s.EnsureManagesClient(ctx, trainerID, ownerID); err != nil {
		return nil, err
	}

	workout, meal := clonePayloads(template.Workout, template.Meal)
	entry := &domain.PlanEntry{
		OwnerID:       ownerID,
		TrainerID:     trainerID,
		ScheduledDate: date,
		Kind:          template.Kind,
		Name:          template.Name,
		Status:        domain.StatusPlanned,
		Notes:         template.Notes,
		Workout:       workout,
		Meal:          meal,
	}

	entryID, err := s.entryRepo.Create(ctx, entry)
	if err != nil {
		return nil, err
	}
	return s.entryRepo.GetByID(ctx, entryID)
}

// === Mutations (client) ===

// MarkComplete transitions a planned entry to completed and stamps the
// completion time. A stale ID (entry deleted meanwhile, possibly from
// another device) is logged and tolerated: nil entry, nil error, nothing
// created or resurrected.
func (s *plannerService) MarkComplete(ctx context.Context, ownerID, entryID primitive.ObjectID) (*domain.PlanEntry, error) {
	entry, err := s.entryRepo.GetByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.WithField("entryId", entryID.Hex()).Warn("markComplete on deleted entry, ignoring")
			return nil, nil
		}
		return nil, err
	}
	if entry.OwnerID != ownerID {
		return nil, ErrEntryAccessDenied
	}
	if entry.Status.IsFinal() {
		return nil, ErrInvalidTransition
	}

	now := time.Now().UTC()
	entry.Status = domain.StatusCompleted
	entry.CompletedAt = &now

	if err := s.entryRepo.Update(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.WithField("entryId", entryID.Hex()).Warn("entry deleted during markComplete, ignoring")
			return nil, nil
		}
		return nil, err
	}
	return entry, nil
}

// MarkSkipped transitions a planned entry to skipped.
func (s *plannerService) MarkSkipped(ctx context.Context, ownerID, entryID primitive.ObjectID) (*domain.PlanEntry, error) {
	entry, err := s.entryRepo.GetByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	if entry.OwnerID != ownerID {
		return nil, ErrEntryAccessDenied
	}
	if entry.Status.IsFinal() {
		return nil, ErrInvalidTransition
	}

	entry.Status = domain.StatusSkipped
	if err := s.entryRepo.Update(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return entry, nil
}

// === Attachments ===

// RequestAttachmentUpload generates a presigned PUT URL for a progress photo
// or form-check video on the client's own entry.
func (s *plannerService) RequestAttachmentUpload(ctx context.Context, ownerID, entryID primitive.ObjectID, contentType string) (*AttachmentUploadResponse, error) {
	lowered := strings.ToLower(contentType)
	if !strings.HasPrefix(lowered, "image/") && !strings.HasPrefix(lowered, "video/") {
		return nil, ErrAttachmentBadType
	}

	entry, err := s.entryRepo.GetByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	if entry.OwnerID != ownerID {
		return nil, ErrEntryAccessDenied
	}

	objectKey := path.Join("attachments", ownerID.Hex(), fmt.Sprintf("%s-%s", entryID.Hex(), uuid.NewString()))
	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, err
	}
	return &AttachmentUploadResponse{UploadURL: uploadURL, ObjectKey: objectKey}, nil
}

// ConfirmAttachment records the uploaded object on the entry. A previous
// attachment is replaced and its object deleted.
func (s *plannerService) ConfirmAttachment(ctx context.Context, ownerID, entryID primitive.ObjectID, objectKey, fileName string) (*domain.PlanEntry, error) {
	if objectKey == "" {
		return nil, errors.New("object key is required")
	}

	entry, err := s.entryRepo.GetByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	if entry.OwnerID != ownerID {
		return nil, ErrEntryAccessDenied
	}

	if entry.AttachmentKey != "" && entry.AttachmentKey != objectKey {
		if err := s.fileStorage.DeleteObject(ctx, entry.AttachmentKey); err != nil {
			s.log.WithError(err).WithField("objectKey", entry.AttachmentKey).
				Warn("failed to delete replaced attachment object")
		}
	}

	entry.AttachmentKey = objectKey
	entry.AttachmentName = fileName
	if err := s.entryRepo.Update(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return entry, nil
}

// AttachmentDownloadURL returns a presigned GET URL for the entry's
// attachment. Both the owning client and the scheduling trainer may view it.
func (s *plannerService) AttachmentDownloadURL(ctx context.Context, userID, entryID primitive.ObjectID) (string, error) {
	entry, err := s.entryRepo.GetByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrEntryNotFound
		}
		return "", err
	}
	if entry.OwnerID != userID && entry.TrainerID != userID {
		return "", ErrEntryAccessDenied
	}
	if entry.AttachmentKey == "" {
		return "", ErrAttachmentMissing
	}
	return s.fileStorage.GeneratePresignedDownloadURL(ctx, entry.AttachmentKey, storage.DefaultPresignedURLExpiry)
}

// === Helpers ===

func (s *plannerService) getOwnedByTrainer(ctx context.Context, trainerID, entryID primitive.ObjectID) (*domain.PlanEntry, error) {
	if trainerID == primitive.NilObjectID || entryID == primitive.NilObjectID {
		return nil, errors.New("trainer ID and entry ID are required")
	}
	entry, err := s.entryRepo.GetByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	if entry.TrainerID != trainerID {
		return nil, ErrEntryAccessDenied
	}
	return entry, nil
}

// normalizePayload drops the payload that does not match the kind and forces
// rest-day entries to a zeroed prescription.
func normalizePayload(kind domain.EntryKind, workout *domain.WorkoutPayload, meal *domain.MealPayload) (*domain.WorkoutPayload, *domain.MealPayload) {
	if kind == domain.KindRest {
		return &domain.WorkoutPayload{}, nil
	}
	if kind.IsWorkout() {
		return workout, nil
	}
	return nil, meal
}

// copyForDate deep-copies an entry onto another date: fresh identity,
// planned status, no completion stamp, no attachment.
func copyForDate(source *domain.PlanEntry, targetDate string) *domain.PlanEntry {
	workout, meal := clonePayloads(source.Workout, source.Meal)
	return &domain.PlanEntry{
		OwnerID:       source.OwnerID,
		TrainerID:     source.TrainerID,
		ScheduledDate: targetDate,
		Kind:          source.Kind,
		Name:          source.Name,
		Status:        domain.StatusPlanned,
		Order:         source.Order,
		Notes:         source.Notes,
		Workout:       workout,
		Meal:          meal,
	}
}

// clonePayloads copies payload structs so the copy never aliases the source.
func clonePayloads(workout *domain.WorkoutPayload, meal *domain.MealPayload) (*domain.WorkoutPayload, *domain.MealPayload) {
	var workoutCopy *domain.WorkoutPayload
	if workout != nil {
		w := *workout
		w.Exercises = append([]domain.ExerciseSet(nil), workout.Exercises...)
		workoutCopy = &w
	}
	var mealCopy *domain.MealPayload
	if meal != nil {
		m := *meal
		mealCopy = &m
	}
	return workoutCopy, mealCopy
}
