package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Marga-Ghale/ora-roster-backend/internal/api/middleware"
	"github.com/Marga-Ghale/ora-roster-backend/internal/service"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	Auth   *AuthHandler
	Roster *RosterHandler
}

// NewHandlers creates all handlers
func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		Auth:   &AuthHandler{authService: services.Auth},
		Roster: NewRosterHandler(services.Roster),
	}
}

// RegisterRoutes mounts the roster API under api. devTokens exposes the
// token issuing endpoint used outside production.
func (h *Handlers) RegisterRoutes(api *gin.RouterGroup, authService service.AuthService, devTokens bool) {
	if devTokens {
		api.POST("/auth/dev-token", h.Auth.DevToken)
	}

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(authService))
	{
		rosters := protected.Group("/rosters")
		{
			rosters.GET("", h.Roster.List)
			rosters.POST("/siege", h.Roster.CreateSiege)
			rosters.POST("/dungeon", h.Roster.CreateDungeon)
			rosters.GET("/:id", h.Roster.Get)
			rosters.GET("/:id/kick-candidates", h.Roster.KickCandidates)
			rosters.POST("/:id/actions", h.Roster.SubmitAction)
		}
	}
}

// ============================================
// Auth
// ============================================

type AuthHandler struct {
	authService service.AuthService
}

type devTokenRequest struct {
	UserID string `json:"userId" binding:"required,max=64"`
}

// DevToken issues a token for any user id. Production tokens come from the
// chat bridge.
func (h *AuthHandler) DevToken(c *gin.Context) {
	var req devTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.authService.GenerateToken(req.UserID)
	if err != nil {
		logAPIError(c, "Auth.DevToken", err, map[string]interface{}{"userID": req.UserID})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"accessToken": token})
}
