package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"coachgest-backend/internal/core"
	"coachgest-backend/internal/middleware"
	"coachgest-backend/internal/models"
)

const msgInvalidRequest = "Richiesta non valida"

// mapErrorToStatus writes err as an ErrorResponse with the status matching its kind.
// Unexpected failures are logged; the client only sees the user-facing message.
func mapErrorToStatus(c *gin.Context, logger *zap.Logger, err error) {
	var statusCode int
	switch {
	case errors.Is(err, core.ErrValidation):
		statusCode = http.StatusBadRequest
	case errors.Is(err, core.ErrUnauthenticated):
		statusCode = http.StatusUnauthorized
	case errors.Is(err, core.ErrForbidden):
		statusCode = http.StatusForbidden
	case errors.Is(err, core.ErrNotFound):
		statusCode = http.StatusNotFound
	case errors.Is(err, core.ErrConflict):
		statusCode = http.StatusConflict
	case errors.Is(err, core.ErrPlanLimitReached), errors.Is(err, core.ErrInactivePlan):
		statusCode = http.StatusPaymentRequired
	case errors.Is(err, core.ErrUpstreamUnavailable):
		statusCode = http.StatusServiceUnavailable
	case errors.Is(err, core.ErrUpstreamFailure):
		statusCode = http.StatusBadGateway
	default:
		statusCode = http.StatusInternalServerError
	}

	if statusCode >= http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	_ = c.Error(err)
	c.JSON(statusCode, ErrorResponse{Error: core.UserMessage(err)})
}

// bindJSON decodes the request body into dst and answers 400 on failure.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgInvalidRequest, Details: err.Error()})
		return false
	}
	return true
}

// currentUser returns the identity set by the auth middleware. Routes using it are always
// behind VerifyToken, so a missing identity is a wiring bug and answers 401.
func currentUser(c *gin.Context) (*models.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Autenticazione richiesta"})
		return nil, false
	}
	return user, true
}
