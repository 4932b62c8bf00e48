package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"coachgest-backend/internal/core"
	"coachgest-backend/internal/models"
)

// ProfileHandler lets the signed-in user manage personal and billing data.
type ProfileHandler struct {
	profileService core.ProfileService
	logger         *zap.Logger
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(ps core.ProfileService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{profileService: ps, logger: logger}
}

func (h *ProfileHandler) Get(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	profile, err := h.profileService.GetUser(c.Request.Context(), user.ID)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *ProfileHandler) Update(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req core.ProfileInput
	if !bindJSON(c, &req) {
		return
	}
	updated, err := h.profileService.UpdateProfile(c.Request.Context(), user.ID, req)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: core.MsgProfileUpdated, Data: updated})
}

func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req core.PasswordInput
	if !bindJSON(c, &req) {
		return
	}
	if err := h.profileService.ChangePassword(c.Request.Context(), user.ID, req); err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: core.MsgPasswordUpdated})
}

func (h *ProfileHandler) GetBilling(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	billing, err := h.profileService.GetBilling(c.Request.Context(), user.ID)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, billing)
}

func (h *ProfileHandler) UpdateBilling(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.BillingData
	if !bindJSON(c, &req) {
		return
	}
	billing, err := h.profileService.UpdateBilling(c.Request.Context(), user.ID, req)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: core.MsgBillingUpdated, Data: billing})
}
