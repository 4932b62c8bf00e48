package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"coachgest-backend/internal/core"
	"coachgest-backend/internal/models"
)

const (
	msgSubscriptionUpdated = "Abbonamento aggiornato con successo"
	msgStatusUpdated       = "Stato aggiornato con successo"
	msgCatalogSaved        = "Piani di abbonamento aggiornati con successo"
)

// AdminHandler serves the super-admin area: dashboard, coach management and plan catalog.
type AdminHandler struct {
	coachService        core.CoachService
	subscriptionService core.SubscriptionService
	catalogService      core.CatalogService
	logger              *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(cs core.CoachService, ss core.SubscriptionService, cat core.CatalogService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{coachService: cs, subscriptionService: ss, catalogService: cat, logger: logger}
}

// Dashboard handles GET /admin/dashboard.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.coachService.AdminDashboard(c.Request.Context())
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListCoaches handles GET /admin/coaches.
func (h *AdminHandler) ListCoaches(c *gin.Context) {
	coaches, err := h.coachService.ListCoaches(c.Request.Context())
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, coaches)
}

// GetCoach handles GET /admin/coaches/:id.
func (h *AdminHandler) GetCoach(c *gin.Context) {
	details, err := h.coachService.GetCoachDetails(c.Request.Context(), c.Param("id"))
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// UpdateCoachStatus handles PUT /admin/coaches/:id/status.
func (h *AdminHandler) UpdateCoachStatus(c *gin.Context) {
	var req UpdateUserStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.coachService.UpdateUserStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: msgStatusUpdated, Data: user})
}

// SetSubscriptionPlan handles PUT /admin/subscriptions/:id/plan.
func (h *AdminHandler) SetSubscriptionPlan(c *gin.Context) {
	var req SetPlanRequest
	if !bindJSON(c, &req) {
		return
	}
	sub, err := h.subscriptionService.SetCoachPlan(c.Request.Context(), c.Param("id"), req.Plan)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: msgSubscriptionUpdated, Data: sub})
}

// SetSubscriptionStatus handles PUT /admin/subscriptions/:id/status.
func (h *AdminHandler) SetSubscriptionStatus(c *gin.Context) {
	var req SetSubscriptionStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	sub, err := h.subscriptionService.SetSubscriptionStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: msgStatusUpdated, Data: sub})
}

// GetCatalog handles GET /admin/settings/subscriptions.
func (h *AdminHandler) GetCatalog(c *gin.Context) {
	catalog, err := h.catalogService.LoadCatalog(c.Request.Context())
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, catalog)
}

// SaveCatalog handles PUT /admin/settings/subscriptions. The body replaces the whole catalog.
func (h *AdminHandler) SaveCatalog(c *gin.Context) {
	var catalog models.PlanCatalog
	if !bindJSON(c, &catalog) {
		return
	}
	if err := h.catalogService.SaveCatalog(c.Request.Context(), catalog); err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: msgCatalogSaved, Data: catalog})
}

// ResetCatalog handles POST /admin/settings/subscriptions/reset. It returns the default
// catalog as a draft; nothing is saved until the admin submits it.
func (h *AdminHandler) ResetCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalogService.ResetToDefault())
}
