package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fitcal/coach-planner/internal/domain"
	"fitcal/coach-planner/internal/service"
)

// SetupRoutes wires every endpoint onto the router. Trainer routes are gated
// on the trainer role, client routes on the client role; attachment downloads
// and nutrition scaling are open to both.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	rosterService service.RosterService,
	plannerService service.PlannerService,
	templateService service.TemplateService,
	defaultWeekday time.Weekday,
) {
	authHandler := NewAuthHandler(authService)
	rosterHandler := NewRosterHandler(rosterService)
	plannerHandler := NewPlannerHandler(plannerService, defaultWeekday)
	templateHandler := NewTemplateHandler(templateService, plannerService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userID, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			role, _ := getUserRoleFromContext(c)
			c.JSON(http.StatusOK, gin.H{"userId": userID.Hex(), "role": role})
		})

		// Open to both roles; the service checks entry-level access.
		protected.GET("/entries/:entryId/attachment", plannerHandler.GetAttachmentURL)
		protected.POST("/nutrition/scale", plannerHandler.ScaleMacros)

		// --- Client Routes ---
		clientGroup := protected.Group("/client")
		clientGroup.Use(RoleMiddleware(domain.RoleClient))
		{
			clientGroup.GET("/calendar", plannerHandler.GetMyCalendar)
			clientGroup.GET("/days/:date", plannerHandler.GetMyDay)

			clientGroup.POST("/entries/:entryId/complete", plannerHandler.MarkComplete)
			clientGroup.POST("/entries/:entryId/skip", plannerHandler.MarkSkipped)

			clientGroup.POST("/entries/:entryId/attachment/upload-url", plannerHandler.RequestAttachmentUpload)
			clientGroup.PUT("/entries/:entryId/attachment", plannerHandler.ConfirmAttachment)
		}

		// --- Trainer Routes ---
		trainerGroup := protected.Group("/trainer")
		trainerGroup.Use(RoleMiddleware(domain.RoleTrainer))
		{
			trainerGroup.POST("/clients", rosterHandler.AddClient)
			trainerGroup.GET("/clients", rosterHandler.GetClients)

			trainerGroup.GET("/clients/:clientId/calendar", plannerHandler.GetClientCalendar)
			trainerGroup.GET("/clients/:clientId/days/:date", plannerHandler.GetClientDay)
			trainerGroup.POST("/clients/:clientId/entries", plannerHandler.CreateEntry)
			trainerGroup.POST("/clients/:clientId/duplicate-day", plannerHandler.DuplicateDay)

			trainerGroup.PUT("/entries/:entryId", plannerHandler.UpdateEntry)
			trainerGroup.DELETE("/entries/:entryId", plannerHandler.DeleteEntry)
			trainerGroup.POST("/entries/:entryId/duplicate", plannerHandler.DuplicateEntry)

			trainerGroup.POST("/templates", templateHandler.CreateTemplate)
			trainerGroup.GET("/templates", templateHandler.GetTemplates)
			trainerGroup.DELETE("/templates/:templateId", templateHandler.DeleteTemplate)
			trainerGroup.POST("/templates/:templateId/instantiate", templateHandler.InstantiateTemplate)
		}
	}
}
