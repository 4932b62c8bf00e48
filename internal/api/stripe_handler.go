package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"coachgest-backend/internal/core"
	"coachgest-backend/internal/models"
)

// StripeHandler serves the Stripe settings page and the Connect OAuth handshake.
type StripeHandler struct {
	stripeService core.StripeService
	logger        *zap.Logger
}

// NewStripeHandler creates a new StripeHandler.
func NewStripeHandler(ss core.StripeService, logger *zap.Logger) *StripeHandler {
	return &StripeHandler{stripeService: ss, logger: logger}
}

func (h *StripeHandler) settings(cfg *models.StripeConfig) StripeSettingsResponse {
	return StripeSettingsResponse{StripeConfig: cfg, WebhookURL: h.stripeService.WebhookURL()}
}

// GetSettings handles GET /admin/settings/stripe.
func (h *StripeHandler) GetSettings(c *gin.Context) {
	cfg, err := h.stripeService.GetConfig(c.Request.Context())
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, h.settings(cfg))
}

// SaveSettings handles PUT /admin/settings/stripe.
func (h *StripeHandler) SaveSettings(c *gin.Context) {
	var req core.StripeSettingsInput
	if !bindJSON(c, &req) {
		return
	}
	cfg, err := h.stripeService.SaveConfig(c.Request.Context(), req)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: core.MsgStripeConfigSaved, Data: h.settings(cfg)})
}

// Connect handles POST /admin/settings/stripe/connect and returns the URL the browser must open.
func (h *StripeHandler) Connect(c *gin.Context) {
	url, err := h.stripeService.BuildAuthorizeURL(c.Request.Context())
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, StripeAuthorizeResponse{URL: url})
}

// Callback handles POST /admin/settings/stripe/callback. The SPA forwards the code and
// state it received on its callback page.
func (h *StripeHandler) Callback(c *gin.Context) {
	var req StripeCallbackRequest
	if !bindJSON(c, &req) {
		return
	}
	cfg, err := h.stripeService.HandleCallback(c.Request.Context(), req.Code, req.State)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: core.MsgStripeConnected, Data: h.settings(cfg)})
}

// Disconnect handles POST /admin/settings/stripe/disconnect.
func (h *StripeHandler) Disconnect(c *gin.Context) {
	cfg, err := h.stripeService.Disconnect(c.Request.Context())
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: core.MsgStripeDisconnected, Data: h.settings(cfg)})
}
