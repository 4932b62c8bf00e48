package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"coachgest-backend/internal/access"
	"coachgest-backend/internal/core"
)

// AuthHandler serves registration, sign-in, sign-out and the session endpoints.
type AuthHandler struct {
	authService core.AuthService
	navigation  *access.Navigation
	logger      *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(as core.AuthService, nav *access.Navigation, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{authService: as, navigation: nav, logger: logger}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	reg, err := h.authService.Register(c.Request.Context(), core.RegisterInput{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Nome:            req.Nome,
		Cognome:         req.Cognome,
	})
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, reg)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// AdminLogin handles POST /auth/admin/login.
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.authService.AdminLogin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Logout handles POST /auth/logout. It revokes the caller's refresh tokens.
func (h *AuthHandler) Logout(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.authService.Logout(c.Request.Context(), user.ID); err != nil {
		mapErrorToStatus(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Session handles GET /session.
func (h *AuthHandler) Session(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, SessionResponse{
		User: user,
		Home: access.HomeFor(user.Role),
		Menu: h.navigation.MenuFor(user.Role),
	})
}
