package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"fitcal/coach-planner/internal/service"
)

// RosterHandler serves the trainer's client roster.
type RosterHandler struct {
	rosterService service.RosterService
}

// NewRosterHandler creates a new RosterHandler.
func NewRosterHandler(rosterService service.RosterService) *RosterHandler {
	return &RosterHandler{rosterService: rosterService}
}

type AddClientRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// AddClient attaches an existing client account to the trainer's roster.
// POST /trainer/clients
func (h *RosterHandler) AddClient(c *gin.Context) {
	trainerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}

	var req AddClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	client, err := h.rosterService.AddClientByEmail(c.Request.Context(), trainerID, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrClientNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrClientNotRole):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrClientAlreadyAssigned):
			abortWithError(c, http.StatusConflict, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to add client")
		}
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(client))
}

// GetClients lists the trainer's managed clients.
// GET /trainer/clients
func (h *RosterHandler) GetClients(c *gin.Context) {
	trainerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to identify user")
		return
	}

	clients, err := h.rosterService.GetManagedClients(c.Request.Context(), trainerID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve clients")
		return
	}

	responses := make([]UserResponse, len(clients))
	for i, client := range clients {
		responses[i] = MapUserToResponse(&client)
	}
	c.JSON(http.StatusOK, responses)
}
