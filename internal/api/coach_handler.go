package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"coachgest-backend/internal/core"
)

// CoachHandler serves the coach area: dashboard, team, coachees and subscription.
type CoachHandler struct {
	teamService         core.TeamService
	subscriptionService core.SubscriptionService
	logger              *zap.Logger
}

// NewCoachHandler creates a new CoachHandler.
func NewCoachHandler(ts core.TeamService, ss core.SubscriptionService, logger *zap.Logger) *CoachHandler {
	return &CoachHandler{teamService: ts, subscriptionService: ss, logger: logger}
}

// Dashboard handles GET /coach/dashboard.
func (h *CoachHandler) Dashboard(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	stats, err := h.teamService.CoachDashboard(c.Request.Context(), user.ID)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListTeam handles GET /coach/team.
func (h *CoachHandler) ListTeam(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	subcoaches, err := h.teamService.ListSubcoachesForCoach(c.Request.Context(), user.ID)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, subcoaches)
}

// CreateSubcoach handles POST /coach/team.
func (h *CoachHandler) CreateSubcoach(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req core.NewSubcoachInput
	if !bindJSON(c, &req) {
		return
	}
	subcoach, err := h.teamService.CreateSubcoach(c.Request.Context(), user.ID, req)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, subcoach)
}

// ListCoachees handles GET /coach/coachees.
func (h *CoachHandler) ListCoachees(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	coachees, err := h.teamService.ListCoacheesForCoach(c.Request.Context(), user.ID)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, coachees)
}

// CreateCoachee handles POST /coach/coachees.
func (h *CoachHandler) CreateCoachee(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req core.NewCoacheeInput
	if !bindJSON(c, &req) {
		return
	}
	coachee, err := h.teamService.CreateCoachee(c.Request.Context(), user.ID, req)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, coachee)
}

// Subscription handles GET /coach/subscription.
func (h *CoachHandler) Subscription(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	sub, err := h.subscriptionService.GetCoachSubscription(c.Request.Context(), user.ID)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// Transactions handles GET /coach/subscription/transactions.
func (h *CoachHandler) Transactions(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	txs, err := h.subscriptionService.ListTransactions(c.Request.Context(), user.ID)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, txs)
}
