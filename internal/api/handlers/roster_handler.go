package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Marga-Ghale/ora-roster-backend/internal/api/middleware"
	"github.com/Marga-Ghale/ora-roster-backend/internal/models"
	"github.com/Marga-Ghale/ora-roster-backend/internal/roster"
	"github.com/Marga-Ghale/ora-roster-backend/internal/service"
	"github.com/Marga-Ghale/ora-roster-backend/internal/types"
)

const genericErrorMessage = "An error occurred while processing your request."

type RosterHandler struct {
	rosterService service.RosterService
}

func NewRosterHandler(rosterService service.RosterService) *RosterHandler {
	return &RosterHandler{rosterService: rosterService}
}

func logAPIError(c *gin.Context, action string, err error, fields map[string]interface{}) {
	log.Printf(
		"[API_ERROR] action=%s method=%s path=%s userID=%v fields=%v err=%v",
		action,
		c.Request.Method,
		c.FullPath(),
		middleware.GetUserID(c),
		fields,
		err,
	)
}

// ============================================
// ROSTER CREATION
// ============================================

func (h *RosterHandler) CreateSiege(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.CreateSiegeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	r, err := h.rosterService.CreateSiege(c.Request.Context(), userID, service.CreateSiegeInput{
		ID:        req.ID,
		ChannelID: req.ChannelID,
		Date:      req.Date,
		Time:      req.Time,
		Timezone:  req.Timezone,
		Tier:      req.Tier,
	})
	if err != nil {
		h.respondCreateError(c, "Roster.CreateSiege", err, req.ChannelID)
		return
	}

	c.JSON(http.StatusCreated, models.NewRosterResponse(*r))
}

func (h *RosterHandler) CreateDungeon(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.CreateDungeonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	r, err := h.rosterService.CreateDungeonRun(c.Request.Context(), userID, service.CreateDungeonInput{
		ID:        req.ID,
		ChannelID: req.ChannelID,
		Dungeon:   req.Dungeon,
		PartySize: req.PartySize,
		Date:      req.Date,
		Time:      req.Time,
		Timezone:  req.Timezone,
		Notes:     req.Notes,
	})
	if err != nil {
		h.respondCreateError(c, "Roster.CreateDungeon", err, req.ChannelID)
		return
	}

	c.JSON(http.StatusCreated, models.NewRosterResponse(*r))
}

func (h *RosterHandler) respondCreateError(c *gin.Context, action string, err error, channelID string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "A roster with this id already exists"})
	default:
		logAPIError(c, action, err, map[string]interface{}{"channelID": channelID})
		c.JSON(http.StatusInternalServerError, gin.H{"error": genericErrorMessage})
	}
}

// ============================================
// ROSTER READS
// ============================================

func (h *RosterHandler) List(c *gin.Context) {
	rosters, err := h.rosterService.ListActive(c.Request.Context(), c.Query("channelId"))
	if err != nil {
		logAPIError(c, "Roster.List", err, nil)
		c.JSON(http.StatusInternalServerError, gin.H{"error": genericErrorMessage})
		return
	}

	resp := make([]models.RosterResponse, 0, len(rosters))
	for _, r := range rosters {
		resp = append(resp, models.NewRosterResponse(*r))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RosterHandler) Get(c *gin.Context) {
	id := c.Param("id")

	r, err := h.rosterService.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Roster not found"})
			return
		}
		logAPIError(c, "Roster.Get", err, map[string]interface{}{"rosterID": id})
		c.JSON(http.StatusInternalServerError, gin.H{"error": genericErrorMessage})
		return
	}

	c.JSON(http.StatusOK, models.NewRosterResponse(*r))
}

func (h *RosterHandler) KickCandidates(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	id := c.Param("id")

	candidates, err := h.rosterService.KickCandidates(c.Request.Context(), id, userID)
	if err != nil {
		h.respondActionError(c, types.KindDungeonRun, "kick", err, id)
		return
	}

	c.JSON(http.StatusOK, models.KickCandidatesResponse{RosterID: id, Candidates: candidates})
}

// ============================================
// UI ACTIONS
// ============================================

// SubmitAction applies one button, select menu or modal interaction.
func (h *RosterHandler) SubmitAction(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	id := c.Param("id")

	var req models.ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	action, err := ParseAction(userID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid button configuration."})
		return
	}

	if action.Manage {
		h.manage(c, id, userID)
		return
	}

	current, err := h.rosterService.Get(c.Request.Context(), id)
	if err != nil {
		h.respondActionError(c, action.Kind, action.Intent.Name(), err, id)
		return
	}
	// A button only ever targets the kind of event it was posted on.
	if current.Kind != action.Kind {
		err = fmt.Errorf("%w: %s action on a %s", service.ErrInvalidIntent, action.Kind, current.Kind)
		h.respondActionError(c, current.Kind, action.Intent.Name(), err, id)
		return
	}

	res, err := h.rosterService.Submit(c.Request.Context(), id, action.Intent)
	if err != nil {
		h.respondActionError(c, current.Kind, action.Intent.Name(), err, id)
		return
	}

	view := models.NewRosterResponse(res.Roster)
	c.JSON(http.StatusOK, models.ActionResponse{
		Message: outcomeMessage(res.Roster.Kind, res.Outcome),
		Outcome: &res.Outcome,
		Roster:  &view,
	})
}

func (h *RosterHandler) manage(c *gin.Context, id, userID string) {
	candidates, err := h.rosterService.KickCandidates(c.Request.Context(), id, userID)
	if err != nil {
		h.respondActionError(c, types.KindDungeonRun, "kick", err, id)
		return
	}

	message := "Select a party member to kick."
	if len(candidates) == 0 {
		message = "No party members to manage (you cannot kick yourself)."
	}
	c.JSON(http.StatusOK, models.ActionResponse{Message: message, Candidates: candidates})
}

func (h *RosterHandler) respondActionError(c *gin.Context, kind types.RosterKind, intent string, err error, rosterID string) {
	status, message := actionError(kind, intent, err)
	if status >= http.StatusInternalServerError {
		logAPIError(c, "Roster.Action", err, map[string]interface{}{"rosterID": rosterID, "intent": intent})
	}
	c.JSON(status, gin.H{"error": message})
}

// actionError maps a submission failure to a status and the message shown
// to the member who pressed the button.
func actionError(kind types.RosterKind, intent string, err error) (int, string) {
	noun := kindNoun(kind)
	switch {
	case errors.Is(err, service.ErrInactive):
		return http.StatusGone, fmt.Sprintf("This %s is no longer active.", noun)
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, fmt.Sprintf("This %s could not be found.", noun)
	case errors.Is(err, service.ErrUnauthorized):
		if intent == (roster.Kick{}).Name() {
			return http.StatusForbidden, "Only the party leader can manage party members."
		}
		return http.StatusForbidden, fmt.Sprintf("Only the event creator can close this %s.", noun)
	case errors.Is(err, service.ErrFull):
		return http.StatusConflict, "This dungeon run is full."
	case errors.Is(err, service.ErrSelfKick):
		return http.StatusBadRequest, "You cannot kick yourself from the party."
	case errors.Is(err, service.ErrNotParticipant):
		return http.StatusForbidden, "Only party members can record item drops."
	case errors.Is(err, service.ErrInvalidIntent):
		return http.StatusBadRequest, "Invalid button configuration."
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded), errors.Is(err, service.ErrStore):
		return http.StatusServiceUnavailable, genericErrorMessage
	}
	return http.StatusInternalServerError, genericErrorMessage
}
