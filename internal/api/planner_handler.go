package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"fitcal/coach-planner/internal/calendar"
	"fitcal/coach-planner/internal/domain"
	"fitcal/coach-planner/internal/service"
)

// PlannerHandler serves the calendar views and plan entry mutations.
type PlannerHandler struct {
	plannerService service.PlannerService
	defaultWeekday time.Weekday
}

// NewPlannerHandler creates a new PlannerHandler. defaultWeekday is the grid
// start used when a request does not pass ?weekStart.
func NewPlannerHandler(plannerService service.PlannerService, defaultWeekday time.Weekday) *PlannerHandler {
	return &PlannerHandler{
		plannerService: plannerService,
		defaultWeekday: defaultWeekday,
	}
}

// --- Request/Response Structs ---

type EntryResponse struct {
	ID             string                 `json:"id"`
	OwnerID        string                 `json:"ownerId"`
	ScheduledDate  string                 `json:"scheduledDate"`
	Kind           domain.EntryKind       `json:"kind"`
	Name           string                 `json:"name"`
	Status         domain.EntryStatus     `json:"status"`
	Order          int                    `json:"order,omitempty"`
	Notes          string                 `json:"notes,omitempty"`
	Workout        *domain.WorkoutPayload `json:"workout,omitempty"`
	Meal           *domain.MealPayload    `json:"meal,omitempty"`
	HasAttachment  bool                   `json:"hasAttachment"`
	AttachmentName string                 `json:"attachmentName,omitempty"`
	CompletedAt    *time.Time             `json:"completedAt,omitempty"`
	CreatedAt      time.Time              `json:"createdAt"`
	UpdatedAt      time.Time              `json:"updatedAt"`
}

// CellResponse is one rendered day of the month view, with the per-day
// completion badge and macro totals precomputed for the client.
type CellResponse struct {
	Date    string              `json:"date"`
	Day     int                 `json:"day"`
	InMonth bool                `json:"inMonth"`
	IsToday bool                `json:"isToday"`
	Entries []EntryResponse     `json:"entries"`
	Summary calendar.DaySummary `json:"summary"`
	Macros  domain.MealPayload  `json:"macros"`
}

type MonthViewResponse struct {
	Year      int            `json:"year"`
	Month     int            `json:"month"`
	WeekStart string         `json:"weekStart"`
	Cells     []CellResponse `json:"cells"`
}

type DayViewResponse struct {
	Date    string                                   `json:"date"`
	Entries []EntryResponse                          `json:"entries"`
	Summary calendar.DaySummary                      `json:"summary"`
	ByKind  map[domain.EntryKind]calendar.DaySummary `json:"byKind"`
	Macros  domain.MealPayload                       `json:"macros"`
}

type CreateEntryRequest struct {
	ScheduledDate string                 `json:"scheduledDate" binding:"required"`
	Kind          domain.EntryKind       `json:"kind" binding:"required"`
	Name          string                 `json:"name" binding:"required"`
	Notes         string                 `json:"notes"`
	Workout       *domain.WorkoutPayload `json:"workout"`
	Meal          *domain.MealPayload    `json:"meal"`
}

type UpdateEntryRequest struct {
	Name          *string                `json:"name"`
	ScheduledDate *string                `json:"scheduledDate"`
	Order         *int                   `json:"order"`
	Notes         *string                `json:"notes"`
	Workout       *domain.WorkoutPayload `json:"workout"`
	Meal          *domain.MealPayload    `json:"meal"`
}

type DuplicateRequest struct {
	TargetDate string `json:"targetDate" binding:"required"`
}

type DuplicateDayRequest struct {
	SourceDate string `json:"sourceDate" binding:"required"`
	TargetDate string `json:"targetDate" binding:"required"`
}

type InstantiateTemplateRequest struct {
	ClientID string `json:"clientId" binding:"required"`
	Date     string `json:"date" binding:"required"`
}

type AttachmentUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type AttachmentConfirmRequest struct {
	ObjectKey string `json:"objectKey" binding:"required"`
	FileName  string `json:"fileName"`
}

type ScaleMacrosRequest struct {
	Base     domain.MealPayload `json:"base"`
	Grams    *float64           `json:"grams"`
	Servings *float64           `json:"servings"`
}

// --- Views ---

// GetMyCalendar renders the authenticated client's own month view.
// GET /client/calendar?year=2025&month=3&weekStart=monday
func (h *PlannerHandler) GetMyCalendar(c *gin.Context) {
	ownerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	h.renderCalendar(c, ownerID)
}

// GetClientCalendar renders a managed client's month view for the trainer.
// GET /trainer/clients/:clientId/calendar
func (h *PlannerHandler) GetClientCalendar(c *gin.Context) {
	trainerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	clientID, err := primitive.ObjectIDFromHex(c.Param("clientId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid client ID format")
		return
	}
	if err := h.plannerService.EnsureManagesClient(c.Request.Context(), trainerID, clientID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.renderCalendar(c, clientID)
}

func (h *PlannerHandler) renderCalendar(c *gin.Context, ownerID primitive.ObjectID) {
	now := time.Now()

	year, err := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(now.Year())))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid year")
		return
	}
	monthNum, err := strconv.Atoi(c.DefaultQuery("month", strconv.Itoa(int(now.Month()))))
	if err != nil || monthNum < 1 || monthNum > 12 {
		abortWithError(c, http.StatusBadRequest, "Month must be between 1 and 12")
		return
	}

	weekStart := h.defaultWeekday
	weekStartName := c.Query("weekStart")
	if weekStartName != "" {
		weekStart, err = calendar.ParseWeekday(weekStartName)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "weekStart must be monday or sunday")
			return
		}
	}

	cells, err := h.plannerService.MonthView(c.Request.Context(), ownerID, year, time.Month(monthNum), weekStart, now)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	cellResponses := make([]CellResponse, len(cells))
	for i, cell := range cells {
		cellResponses[i] = mapCellToResponse(cell)
	}

	name := "monday"
	if weekStart == time.Sunday {
		name = "sunday"
	}
	c.JSON(http.StatusOK, MonthViewResponse{
		Year:      year,
		Month:     monthNum,
		WeekStart: name,
		Cells:     cellResponses,
	})
}

// GetMyDay returns one day of the authenticated client's plan.
// GET /client/days/:date
func (h *PlannerHandler) GetMyDay(c *gin.Context) {
	ownerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	h.renderDay(c, ownerID)
}

// GetClientDay returns one day of a managed client's plan for the trainer.
// GET /trainer/clients/:clientId/days/:date
func (h *PlannerHandler) GetClientDay(c *gin.Context) {
	trainerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	clientID, err := primitive.ObjectIDFromHex(c.Param("clientId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid client ID format")
		return
	}
	if err := h.plannerService.EnsureManagesClient(c.Request.Context(), trainerID, clientID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.renderDay(c, clientID)
}

func (h *PlannerHandler) renderDay(c *gin.Context, ownerID primitive.ObjectID) {
	date := c.Param("date")
	entries, err := h.plannerService.DayEntries(c.Request.Context(), ownerID, date)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	entryResponses := make([]EntryResponse, len(entries))
	for i, entry := range entries {
		entryResponses[i] = MapEntryToResponse(&entry)
	}
	c.JSON(http.StatusOK, DayViewResponse{
		Date:    date,
		Entries: entryResponses,
		Summary: calendar.Summarize(entries),
		ByKind:  calendar.SummarizeByKind(entries),
		Macros:  calendar.SumMacros(entries),
	})
}

// --- Trainer Mutations ---

// CreateEntry schedules a new entry on a managed client's calendar.
// POST /trainer/clients/:clientId/entries
func (h *PlannerHandler) CreateEntry(c *gin.Context) {
	trainerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	clientID, err := primitive.ObjectIDFromHex(c.Param("clientId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid client ID format")
		return
	}

	var req CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	entry, err := h.plannerService.CreateEntry(c.Request.Context(), trainerID, clientID,
		req.ScheduledDate, req.Kind, req.Name, req.Notes, req.Workout, req.Meal)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapEntryToResponse(entry))
}

// UpdateEntry applies a partial update to an entry.
// PUT /trainer/entries/:entryId
func (h *PlannerHandler) UpdateEntry(c *gin.Context) {
	trainerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	entryID, err := primitive.ObjectIDFromHex(c.Param("entryId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid entry ID format")
		return
	}

	var req UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	entry, err := h.plannerService.UpdateEntry(c.Request.Context(), trainerID, entryID, service.EntryPatch{
		Name:          req.Name,
		ScheduledDate: req.ScheduledDate,
		Order:         req.Order,
		Notes:         req.Notes,
		Workout:       req.Workout,
		Meal:          req.Meal,
	})
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapEntryToResponse(entry))
}

// DeleteEntry removes an entry permanently.
// DELETE /trainer/entries/:entryId
func (h *PlannerHandler) DeleteEntry(c *gin.Context) {
	trainerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	entryID, err := primitive.ObjectIDFromHex(c.Param("entryId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid entry ID format")
		return
	}

	if err := h.plannerService.DeleteEntry(c.Request.Context(), trainerID, entryID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DuplicateDay copies a full day of a client's plan to another date.
// POST /trainer/clients/:clientId/duplicate-day
func (h *PlannerHandler) DuplicateDay(c *gin.Context) {
	trainerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	clientID, err := primitive.ObjectIDFromHex(c.Param("clientId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid client ID format")
		return
	}

	var req DuplicateDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	copies, err := h.plannerService.DuplicateDay(c.Request.Context(), trainerID, clientID, req.SourceDate, req.TargetDate)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	responses := make([]EntryResponse, len(copies))
	for i, entry := range copies {
		responses[i] = MapEntryToResponse(&entry)
	}
	c.JSON(http.StatusCreated, responses)
}

// DuplicateEntry copies one entry to another date.
// POST /trainer/entries/:entryId/duplicate
func (h *PlannerHandler) DuplicateEntry(c *gin.Context) {
	trainerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	entryID, err := primitive.ObjectIDFromHex(c.Param("entryId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid entry ID format")
		return
	}

	var req DuplicateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	entry, err := h.plannerService.DuplicateEntry(c.Request.Context(), trainerID, entryID, req.TargetDate)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapEntryToResponse(entry))
}

// --- Client Mutations ---

// MarkComplete marks the caller's own entry completed. A stale entry ID is
// not an error; the response is 204 and the next calendar fetch tells the
// client the entry is gone.
// POST /client/entries/:entryId/complete
func (h *PlannerHandler) MarkComplete(c *gin.Context) {
	ownerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	entryID, err := primitive.ObjectIDFromHex(c.Param("entryId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid entry ID format")
		return
	}

	entry, err := h.plannerService.MarkComplete(c.Request.Context(), ownerID, entryID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if entry == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, MapEntryToResponse(entry))
}

// MarkSkipped marks the caller's own entry skipped.
// POST /client/entries/:entryId/skip
func (h *PlannerHandler) MarkSkipped(c *gin.Context) {
	ownerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	entryID, err := primitive.ObjectIDFromHex(c.Param("entryId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid entry ID format")
		return
	}

	entry, err := h.plannerService.MarkSkipped(c.Request.Context(), ownerID, entryID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapEntryToResponse(entry))
}

// --- Attachments ---

// RequestAttachmentUpload returns a presigned PUT URL for an entry attachment.
// POST /client/entries/:entryId/attachment/upload-url
func (h *PlannerHandler) RequestAttachmentUpload(c *gin.Context) {
	ownerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	entryID, err := primitive.ObjectIDFromHex(c.Param("entryId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid entry ID format")
		return
	}

	var req AttachmentUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	resp, err := h.plannerService.RequestAttachmentUpload(c.Request.Context(), ownerID, entryID, req.ContentType)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConfirmAttachment records a finished upload on the entry.
// PUT /client/entries/:entryId/attachment
func (h *PlannerHandler) ConfirmAttachment(c *gin.Context) {
	ownerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	entryID, err := primitive.ObjectIDFromHex(c.Param("entryId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid entry ID format")
		return
	}

	var req AttachmentConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	entry, err := h.plannerService.ConfirmAttachment(c.Request.Context(), ownerID, entryID, req.ObjectKey, req.FileName)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapEntryToResponse(entry))
}

// GetAttachmentURL returns a presigned GET URL for the entry's attachment.
// Works for both the owning client and the scheduling trainer.
// GET /entries/:entryId/attachment
func (h *PlannerHandler) GetAttachmentURL(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	entryID, err := primitive.ObjectIDFromHex(c.Param("entryId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid entry ID format")
		return
	}

	url, err := h.plannerService.AttachmentDownloadURL(c.Request.Context(), userID, entryID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"downloadUrl": url})
}

// --- Nutrition Scaling ---

// ScaleMacros scales a nutrition base to a quantity. Pass either grams (for
// a per-100g base) or servings (for a per-serving base).
// POST /nutrition/scale
func (h *PlannerHandler) ScaleMacros(c *gin.Context) {
	var req ScaleMacrosRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	switch {
	case req.Grams != nil && req.Servings == nil:
		if *req.Grams < 0 {
			abortWithError(c, http.StatusBadRequest, "grams must not be negative")
			return
		}
		c.JSON(http.StatusOK, calendar.ScalePer100g(req.Base, *req.Grams))
	case req.Servings != nil && req.Grams == nil:
		if *req.Servings < 0 {
			abortWithError(c, http.StatusBadRequest, "servings must not be negative")
			return
		}
		c.JSON(http.StatusOK, calendar.ScaleServings(req.Base, *req.Servings))
	default:
		abortWithError(c, http.StatusBadRequest, "Pass exactly one of grams or servings")
	}
}

// --- Helpers ---

func (h *PlannerHandler) handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrInvalidKind),
		errors.Is(err, service.ErrInvalidMonth),
		errors.Is(err, service.ErrAttachmentBadType):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrEntryNotFound),
		errors.Is(err, service.ErrTemplateNotFound),
		errors.Is(err, service.ErrClientNotFound),
		errors.Is(err, service.ErrAttachmentMissing):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrEntryAccessDenied),
		errors.Is(err, service.ErrClientNotManaged):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrEmptySourceDay):
		abortWithError(c, http.StatusConflict, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

func mapCellToResponse(cell calendar.Cell) CellResponse {
	entries := make([]EntryResponse, len(cell.Entries))
	for i, entry := range cell.Entries {
		entries[i] = MapEntryToResponse(&entry)
	}
	return CellResponse{
		Date:    cell.DateString,
		Day:     cell.Day,
		InMonth: cell.InMonth,
		IsToday: cell.IsToday,
		Entries: entries,
		Summary: calendar.Summarize(cell.Entries),
		Macros:  calendar.SumMacros(cell.Entries),
	}
}

// MapEntryToResponse converts a domain PlanEntry to its DTO. The raw object
// key stays internal; the response only says whether an attachment exists.
func MapEntryToResponse(entry *domain.PlanEntry) EntryResponse {
	if entry == nil {
		return EntryResponse{}
	}
	return EntryResponse{
		ID:             entry.ID.Hex(),
		OwnerID:        entry.OwnerID.Hex(),
		ScheduledDate:  entry.ScheduledDate,
		Kind:           entry.Kind,
		Name:           entry.Name,
		Status:         entry.Status,
		Order:          entry.Order,
		Notes:          entry.Notes,
		Workout:        entry.Workout,
		Meal:           entry.Meal,
		HasAttachment:  entry.AttachmentKey != "",
		AttachmentName: entry.AttachmentName,
		CompletedAt:    entry.CompletedAt,
		CreatedAt:      entry.CreatedAt,
		UpdatedAt:      entry.UpdatedAt,
	}
}
