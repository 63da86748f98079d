package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"fitcal/coach-planner/internal/domain"
	"fitcal/coach-planner/internal/service"
)

// TemplateHandler serves the trainer's reusable entry template library.
type TemplateHandler struct {
	templateService service.TemplateService
	plannerService  service.PlannerService
}

// NewTemplateHandler creates a new TemplateHandler.
func NewTemplateHandler(templateService service.TemplateService, plannerService service.PlannerService) *TemplateHandler {
	return &TemplateHandler{
		templateService: templateService,
		plannerService:  plannerService,
	}
}

// --- Request/Response Structs ---

type CreateTemplateRequest struct {
	Name    string                 `json:"name" binding:"required"`
	Kind    domain.EntryKind       `json:"kind" binding:"required"`
	Notes   string                 `json:"notes"`
	Workout *domain.WorkoutPayload `json:"workout"`
	Meal    *domain.MealPayload    `json:"meal"`
}

type TemplateResponse struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Kind      domain.EntryKind       `json:"kind"`
	Notes     string                 `json:"notes,omitempty"`
	Workout   *domain.WorkoutPayload `json:"workout,omitempty"`
	Meal      *domain.MealPayload    `json:"meal,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}

// --- Handler Methods ---

// CreateTemplate saves a reusable payload to the trainer's library.
// POST /trainer/templates
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	trainerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}

	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	template, err := h.templateService.CreateTemplate(c.Request.Context(), trainerID,
		req.Name, req.Kind, req.Notes, req.Workout, req.Meal)
	if err != nil {
		if errors.Is(err, service.ErrValidation) || errors.Is(err, service.ErrInvalidKind) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to create template")
		}
		return
	}
	c.JSON(http.StatusCreated, MapTemplateToResponse(template))
}

// GetTemplates lists the trainer's template library.
// GET /trainer/templates
func (h *TemplateHandler) GetTemplates(c *gin.Context) {
	trainerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}

	templates, err := h.templateService.GetTemplates(c.Request.Context(), trainerID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve templates")
		return
	}

	responses := make([]TemplateResponse, len(templates))
	for i, template := range templates {
		responses[i] = MapTemplateToResponse(&template)
	}
	c.JSON(http.StatusOK, responses)
}

// DeleteTemplate removes a template from the trainer's library.
// DELETE /trainer/templates/:templateId
func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	trainerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	templateID, err := primitive.ObjectIDFromHex(c.Param("templateId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid template ID format")
		return
	}

	if err := h.templateService.DeleteTemplate(c.Request.Context(), trainerID, templateID); err != nil {
		if errors.Is(err, service.ErrTemplateNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to delete template")
		}
		return
	}
	c.Status(http.StatusNoContent)
}

// InstantiateTemplate schedules a dated entry from a template onto a managed
// client's calendar.
// POST /trainer/templates/:templateId/instantiate
func (h *TemplateHandler) InstantiateTemplate(c *gin.Context) {
	trainerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}
	templateID, err := primitive.ObjectIDFromHex(c.Param("templateId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid template ID format")
		return
	}

	var req InstantiateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	clientID, err := primitive.ObjectIDFromHex(req.ClientID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid client ID format")
		return
	}

	entry, err := h.plannerService.InstantiateTemplate(c.Request.Context(), trainerID, templateID, clientID, req.Date)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTemplateNotFound), errors.Is(err, service.ErrClientNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrEntryAccessDenied), errors.Is(err, service.ErrClientNotManaged):
			abortWithError(c, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrInvalidDate):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to instantiate template")
		}
		return
	}
	c.JSON(http.StatusCreated, MapEntryToResponse(entry))
}

// MapTemplateToResponse converts a domain Template to its DTO.
func MapTemplateToResponse(template *domain.Template) TemplateResponse {
	if template == nil {
		return TemplateResponse{}
	}
	return TemplateResponse{
		ID:        template.ID.Hex(),
		Name:      template.Name,
		Kind:      template.Kind,
		Notes:     template.Notes,
		Workout:   template.Workout,
		Meal:      template.Meal,
		CreatedAt: template.CreatedAt,
	}
}
