package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"coachgest-backend/internal/core"
)

// MemberHandler serves the subcoach and coachee areas.
type MemberHandler struct {
	teamService core.TeamService
	logger      *zap.Logger
}

// NewMemberHandler creates a new MemberHandler.
func NewMemberHandler(ts core.TeamService, logger *zap.Logger) *MemberHandler {
	return &MemberHandler{teamService: ts, logger: logger}
}

// SubcoachDashboard handles GET /subcoach/dashboard.
func (h *MemberHandler) SubcoachDashboard(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	stats, err := h.teamService.SubcoachDashboard(c.Request.Context(), user)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// SubcoachCoachees handles GET /subcoach/coachees.
func (h *MemberHandler) SubcoachCoachees(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	coachees, err := h.teamService.ListCoacheesForSubcoach(c.Request.Context(), user)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, coachees)
}

// CoacheeDashboard handles GET /coachee/dashboard.
func (h *MemberHandler) CoacheeDashboard(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	stats, err := h.teamService.CoacheeDashboard(c.Request.Context(), user)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
