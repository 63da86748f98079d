package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"fitcal/coach-planner/internal/domain"
	"fitcal/coach-planner/internal/repository"
)

// --- Fakes satisfying the repository interfaces (no real backend) ---

type fakeEntryRepo struct {
	entries    map[primitive.ObjectID]domain.PlanEntry
	order      []primitive.ObjectID
	lastRange  [2]string
	failUpdate error
	seq        int
}

func newFakeEntryRepo() *fakeEntryRepo {
	return &fakeEntryRepo{entries: map[primitive.ObjectID]domain.PlanEntry{}}
}

func (r *fakeEntryRepo) Create(_ context.Context, entry *domain.PlanEntry) (primitive.ObjectID, error) {
	entry.ID = primitive.NewObjectID()
	r.seq++
	now := time.Date(2025, time.March, 1, 0, 0, 0, r.seq, time.UTC)
	entry.CreatedAt = now
	entry.UpdatedAt = now
	r.entries[entry.ID] = *entry
	r.order = append(r.order, entry.ID)
	return entry.ID, nil
}

func (r *fakeEntryRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.PlanEntry, error) {
	entry, ok := r.entries[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &entry, nil
}

func (r *fakeEntryRepo) GetByOwnerAndDate(_ context.Context, ownerID primitive.ObjectID, date string) ([]domain.PlanEntry, error) {
	result := []domain.PlanEntry{}
	for _, id := range r.order {
		entry := r.entries[id]
		if entry.OwnerID == ownerID && entry.ScheduledDate == date {
			result = append(result, entry)
		}
	}
	return result, nil
}

func (r *fakeEntryRepo) GetByOwnerAndRange(_ context.Context, ownerID primitive.ObjectID, startDate, endDate string) ([]domain.PlanEntry, error) {
	r.lastRange = [2]string{startDate, endDate}
	result := []domain.PlanEntry{}
	for _, id := range r.order {
		entry := r.entries[id]
		if entry.OwnerID == ownerID && entry.ScheduledDate >= startDate && entry.ScheduledDate <= endDate {
			result = append(result, entry)
		}
	}
	return result, nil
}

func (r *fakeEntryRepo) Update(_ context.Context, entry *domain.PlanEntry) error {
	if r.failUpdate != nil {
		return r.failUpdate
	}
	if _, ok := r.entries[entry.ID]; !ok {
		return repository.ErrNotFound
	}
	r.entries[entry.ID] = *entry
	return nil
}

func (r *fakeEntryRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := r.entries[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.entries, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

type fakeTemplateRepo struct {
	templates map[primitive.ObjectID]domain.Template
}

func (r *fakeTemplateRepo) Create(_ context.Context, template *domain.Template) (primitive.ObjectID, error) {
	template.ID = primitive.NewObjectID()
	r.templates[template.ID] = *template
	return template.ID, nil
}

func (r *fakeTemplateRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Template, error) {
	template, ok := r.templates[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &template, nil
}

func (r *fakeTemplateRepo) GetByTrainerID(_ context.Context, trainerID primitive.ObjectID) ([]domain.Template, error) {
	result := []domain.Template{}
	for _, template := range r.templates {
		if template.TrainerID == trainerID {
			result = append(result, template)
		}
	}
	return result, nil
}

func (r *fakeTemplateRepo) Delete(_ context.Context, id, trainerID primitive.ObjectID) error {
	template, ok := r.templates[id]
	if !ok || template.TrainerID != trainerID {
		return repository.ErrNotFound
	}
	delete(r.templates, id)
	return nil
}

type fakeUserRepo struct {
	users map[primitive.ObjectID]domain.User
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	user.ID = primitive.NewObjectID()
	r.users[user.ID] = *user
	return user.ID, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r *fakeUserRepo) AddClientToRoster(_ context.Context, trainerID, clientID primitive.ObjectID) error {
	trainer, ok := r.users[trainerID]
	if !ok {
		return repository.ErrNotFound
	}
	trainer.ClientIDs = append(trainer.ClientIDs, clientID)
	r.users[trainerID] = trainer
	return nil
}

func (r *fakeUserRepo) GetClientsByTrainerID(_ context.Context, trainerID primitive.ObjectID) ([]domain.User, error) {
	trainer, ok := r.users[trainerID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	result := []domain.User{}
	for _, id := range trainer.ClientIDs {
		if client, ok := r.users[id]; ok {
			result = append(result, client)
		}
	}
	return result, nil
}

func (r *fakeUserRepo) SetTrainerForClient(_ context.Context, clientID, trainerID primitive.ObjectID) error {
	client, ok := r.users[clientID]
	if !ok {
		return repository.ErrNotFound
	}
	client.TrainerID = &trainerID
	r.users[clientID] = client
	return nil
}

type fakeStorage struct {
	deleted []string
}

func (s *fakeStorage) GeneratePresignedUploadURL(_ context.Context, objectKey, _ string, _ time.Duration) (string, error) {
	return "https://storage.test/upload/" + objectKey, nil
}

func (s *fakeStorage) GeneratePresignedDownloadURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://storage.test/download/" + objectKey, nil
}

func (s *fakeStorage) DeleteObject(_ context.Context, objectKey string) error {
	s.deleted = append(s.deleted, objectKey)
	return nil
}

// --- Test harness ---

type plannerFixture struct {
	svc       PlannerService
	entries   *fakeEntryRepo
	templates *fakeTemplateRepo
	users     *fakeUserRepo
	storage   *fakeStorage
	trainerID primitive.ObjectID
	clientID  primitive.ObjectID
}

func newPlannerFixture(t *testing.T) *plannerFixture {
	t.Helper()

	trainerID := primitive.NewObjectID()
	clientID := primitive.NewObjectID()

	users := &fakeUserRepo{users: map[primitive.ObjectID]domain.User{
		trainerID: {ID: trainerID, Role: domain.RoleTrainer, ClientIDs: []primitive.ObjectID{clientID}},
		clientID:  {ID: clientID, Role: domain.RoleClient, TrainerID: &trainerID},
	}}
	entries := newFakeEntryRepo()
	templates := &fakeTemplateRepo{templates: map[primitive.ObjectID]domain.Template{}}
	fs := &fakeStorage{}

	return &plannerFixture{
		svc:       NewPlannerService(entries, templates, users, fs, nil),
		entries:   entries,
		templates: templates,
		users:     users,
		storage:   fs,
		trainerID: trainerID,
		clientID:  clientID,
	}
}

func (f *plannerFixture) mustCreate(t *testing.T, date string, kind domain.EntryKind, name string, workout *domain.WorkoutPayload, meal *domain.MealPayload) *domain.PlanEntry {
	t.Helper()
	entry, err := f.svc.CreateEntry(context.Background(), f.trainerID, f.clientID, date, kind, name, "", workout, meal)
	require.NoError(t, err)
	return entry
}

// --- Tests ---

func TestCreateEntry_BlankNameRejected(t *testing.T) {
	f := newPlannerFixture(t)

	for _, name := range []string{"", "   ", "\t"} {
		_, err := f.svc.CreateEntry(context.Background(), f.trainerID, f.clientID, "2025-03-10", domain.KindStrength, name, "", nil, nil)
		require.ErrorIs(t, err, ErrValidation)
	}
	require.Empty(t, f.entries.entries, "no entry may be created on validation failure")
}

func TestCreateEntry_BadDateRejected(t *testing.T) {
	f := newPlannerFixture(t)

	_, err := f.svc.CreateEntry(context.Background(), f.trainerID, f.clientID, "03/10/2025", domain.KindStrength, "Push Day", "", nil, nil)
	require.ErrorIs(t, err, ErrInvalidDate)
	require.Empty(t, f.entries.entries)
}

func TestCreateEntry_RestDayZeroesPayload(t *testing.T) {
	f := newPlannerFixture(t)

	userPayload := &domain.WorkoutPayload{
		Exercises:       []domain.ExerciseSet{{ExerciseName: "Squat", Sets: 5, Reps: 5}},
		DurationMinutes: 60,
	}
	entry := f.mustCreate(t, "2025-03-16", domain.KindRest, "Rest Day", userPayload, nil)

	require.NotNil(t, entry.Workout)
	require.Empty(t, entry.Workout.Exercises)
	require.Zero(t, entry.Workout.DurationMinutes)
	require.Nil(t, entry.Meal)
}

func TestCreateEntry_UnmanagedClientRejected(t *testing.T) {
	f := newPlannerFixture(t)
	stranger := primitive.NewObjectID()
	f.users.users[stranger] = domain.User{ID: stranger, Role: domain.RoleClient}

	_, err := f.svc.CreateEntry(context.Background(), f.trainerID, stranger, "2025-03-10", domain.KindStrength, "Push Day", "", nil, nil)
	require.ErrorIs(t, err, ErrClientNotManaged)
}

func TestDuplicateDay(t *testing.T) {
	f := newPlannerFixture(t)

	push := f.mustCreate(t, "2025-03-10", domain.KindStrength, "Push Day",
		&domain.WorkoutPayload{Exercises: []domain.ExerciseSet{{ExerciseName: "Bench Press", Sets: 4, Reps: 8, WeightKg: 80}}}, nil)
	oatmeal := f.mustCreate(t, "2025-03-10", domain.KindBreakfast, "Oatmeal",
		nil, &domain.MealPayload{Calories: 389, ProteinG: 16.9, CarbsG: 66.3, FatG: 6.9})

	// Complete one source entry so the reset-to-planned rule is visible.
	_, err := f.svc.MarkComplete(context.Background(), f.clientID, push.ID)
	require.NoError(t, err)

	copies, err := f.svc.DuplicateDay(context.Background(), f.trainerID, f.clientID, "2025-03-10", "2025-03-17")
	require.NoError(t, err)
	require.Len(t, copies, 2)

	target, err := f.svc.DayEntries(context.Background(), f.clientID, "2025-03-17")
	require.NoError(t, err)
	require.Len(t, target, 2)

	byName := map[string]domain.PlanEntry{}
	for _, entry := range target {
		byName[entry.Name] = entry
	}

	pushCopy := byName["Push Day"]
	require.NotEqual(t, push.ID, pushCopy.ID, "copy must get a fresh id")
	require.Equal(t, domain.StatusPlanned, pushCopy.Status)
	require.Nil(t, pushCopy.CompletedAt)
	require.Equal(t, push.Kind, pushCopy.Kind)
	require.Equal(t, push.Workout.Exercises, pushCopy.Workout.Exercises)

	oatmealCopy := byName["Oatmeal"]
	require.NotEqual(t, oatmeal.ID, oatmealCopy.ID)
	require.Equal(t, *oatmeal.Meal, *oatmealCopy.Meal)

	// Source day is untouched.
	source, err := f.svc.DayEntries(context.Background(), f.clientID, "2025-03-10")
	require.NoError(t, err)
	require.Len(t, source, 2)
}

func TestDuplicateDay_EmptySource(t *testing.T) {
	f := newPlannerFixture(t)

	_, err := f.svc.DuplicateDay(context.Background(), f.trainerID, f.clientID, "2025-03-10", "2025-03-17")
	require.ErrorIs(t, err, ErrEmptySourceDay)
	require.Empty(t, f.entries.entries)
}

func TestDuplicateEntry_DoesNotAliasPayload(t *testing.T) {
	f := newPlannerFixture(t)

	source := f.mustCreate(t, "2025-03-10", domain.KindStrength, "Push Day",
		&domain.WorkoutPayload{Exercises: []domain.ExerciseSet{{ExerciseName: "Bench Press", Sets: 4, Reps: 8}}}, nil)

	entryCopy, err := f.svc.DuplicateEntry(context.Background(), f.trainerID, source.ID, "2025-03-12")
	require.NoError(t, err)

	entryCopy.Workout.Exercises[0].Sets = 99
	fresh, err := f.entries.GetByID(context.Background(), source.ID)
	require.NoError(t, err)
	require.Equal(t, 4, fresh.Workout.Exercises[0].Sets, "mutating the copy must not touch the source")
}

func TestMarkComplete(t *testing.T) {
	f := newPlannerFixture(t)
	entry := f.mustCreate(t, "2025-03-10", domain.KindStrength, "Push Day", nil, nil)

	done, err := f.svc.MarkComplete(context.Background(), f.clientID, entry.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)
}

func TestMarkComplete_StaleIDTolerated(t *testing.T) {
	f := newPlannerFixture(t)

	done, err := f.svc.MarkComplete(context.Background(), f.clientID, primitive.NewObjectID())
	require.NoError(t, err, "stale markComplete must not surface an error")
	require.Nil(t, done)
	require.Empty(t, f.entries.entries, "stale markComplete must not create an entry")
}

func TestMarkComplete_FinalStatusRejected(t *testing.T) {
	f := newPlannerFixture(t)
	entry := f.mustCreate(t, "2025-03-10", domain.KindStrength, "Push Day", nil, nil)

	_, err := f.svc.MarkSkipped(context.Background(), f.clientID, entry.ID)
	require.NoError(t, err)

	_, err = f.svc.MarkComplete(context.Background(), f.clientID, entry.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestMarkComplete_WrongOwnerRejected(t *testing.T) {
	f := newPlannerFixture(t)
	entry := f.mustCreate(t, "2025-03-10", domain.KindStrength, "Push Day", nil, nil)

	_, err := f.svc.MarkComplete(context.Background(), primitive.NewObjectID(), entry.ID)
	require.ErrorIs(t, err, ErrEntryAccessDenied)
}

func TestMarkComplete_StorageFailureLeavesEntryUntouched(t *testing.T) {
	f := newPlannerFixture(t)
	entry := f.mustCreate(t, "2025-03-10", domain.KindStrength, "Push Day", nil, nil)

	f.entries.failUpdate = errors.New("connection reset")
	_, err := f.svc.MarkComplete(context.Background(), f.clientID, entry.ID)
	require.Error(t, err)

	f.entries.failUpdate = nil
	fresh, err := f.entries.GetByID(context.Background(), entry.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPlanned, fresh.Status, "failed write must not partially apply")
}

func TestUpdateEntry_BlankNameRejected(t *testing.T) {
	f := newPlannerFixture(t)
	entry := f.mustCreate(t, "2025-03-10", domain.KindStrength, "Push Day", nil, nil)

	blank := "  "
	_, err := f.svc.UpdateEntry(context.Background(), f.trainerID, entry.ID, EntryPatch{Name: &blank})
	require.ErrorIs(t, err, ErrValidation)
}

func TestUpdateEntry_MovesDate(t *testing.T) {
	f := newPlannerFixture(t)
	entry := f.mustCreate(t, "2025-03-10", domain.KindStrength, "Push Day", nil, nil)

	newDate := "2025-03-11"
	updated, err := f.svc.UpdateEntry(context.Background(), f.trainerID, entry.ID, EntryPatch{ScheduledDate: &newDate})
	require.NoError(t, err)
	require.Equal(t, newDate, updated.ScheduledDate)

	source, err := f.svc.DayEntries(context.Background(), f.clientID, "2025-03-10")
	require.NoError(t, err)
	require.Empty(t, source)
}

func TestDeleteEntry_RemovesAttachmentObject(t *testing.T) {
	f := newPlannerFixture(t)
	entry := f.mustCreate(t, "2025-03-10", domain.KindStrength, "Push Day", nil, nil)

	upload, err := f.svc.RequestAttachmentUpload(context.Background(), f.clientID, entry.ID, "video/mp4")
	require.NoError(t, err)
	_, err = f.svc.ConfirmAttachment(context.Background(), f.clientID, entry.ID, upload.ObjectKey, "squat.mp4")
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteEntry(context.Background(), f.trainerID, entry.ID))
	require.Contains(t, f.storage.deleted, upload.ObjectKey)

	_, err = f.entries.GetByID(context.Background(), entry.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestInstantiateTemplate(t *testing.T) {
	f := newPlannerFixture(t)

	templateID, err := f.templates.Create(context.Background(), &domain.Template{
		TrainerID: f.trainerID,
		Name:      "Leg Day",
		Kind:      domain.KindStrength,
		Workout:   &domain.WorkoutPayload{Exercises: []domain.ExerciseSet{{ExerciseName: "Squat", Sets: 5, Reps: 5}}},
	})
	require.NoError(t, err)

	entry, err := f.svc.InstantiateTemplate(context.Background(), f.trainerID, templateID, f.clientID, "2025-03-14")
	require.NoError(t, err)
	require.Equal(t, "Leg Day", entry.Name)
	require.Equal(t, "2025-03-14", entry.ScheduledDate)
	require.Equal(t, domain.StatusPlanned, entry.Status)
	require.Len(t, entry.Workout.Exercises, 1)
}

func TestInstantiateTemplate_UnknownID(t *testing.T) {
	f := newPlannerFixture(t)

	_, err := f.svc.InstantiateTemplate(context.Background(), f.trainerID, primitive.NewObjectID(), f.clientID, "2025-03-14")
	require.ErrorIs(t, err, ErrTemplateNotFound)
	require.Empty(t, f.entries.entries)
}

func TestMonthView_FetchAlignedToGrid(t *testing.T) {
	f := newPlannerFixture(t)

	// Sits on the leading overflow row of the March 2025 monday-first grid.
	f.mustCreate(t, "2025-02-25", domain.KindCardio, "Tempo Run", nil, nil)

	now := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	cells, err := f.svc.MonthView(context.Background(), f.clientID, 2025, time.March, time.Monday, now)
	require.NoError(t, err)

	require.Equal(t, [2]string{"2025-02-24", "2025-04-06"}, f.entries.lastRange,
		"fetch must cover the whole visible grid, not just the month")
	require.Len(t, cells, 42)

	var found bool
	for _, cell := range cells {
		if cell.DateString == "2025-02-25" {
			found = true
			require.False(t, cell.InMonth)
			require.Len(t, cell.Entries, 1)
		}
	}
	require.True(t, found)
}

func TestMonthView_ReflectsMutationsOnRefetch(t *testing.T) {
	f := newPlannerFixture(t)
	now := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

	cells, err := f.svc.MonthView(context.Background(), f.clientID, 2025, time.March, time.Monday, now)
	require.NoError(t, err)
	for _, cell := range cells {
		require.Empty(t, cell.Entries)
	}

	f.mustCreate(t, "2025-03-10", domain.KindStrength, "Push Day", nil, nil)

	cells, err = f.svc.MonthView(context.Background(), f.clientID, 2025, time.March, time.Monday, now)
	require.NoError(t, err)
	for _, cell := range cells {
		if cell.DateString == "2025-03-10" {
			require.Len(t, cell.Entries, 1)
		}
	}
}
