package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"coachgest-backend/internal/access"
	"coachgest-backend/internal/core"
	"coachgest-backend/internal/models"
)

// Context keys set by VerifyToken.
const (
	ContextKeySession = "session"
	ContextKeyUserID  = "userID"
)

// ErrorResponse mirrors api.ErrorResponse; it is redeclared here to avoid an import cycle.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// AuthMiddleware resolves the caller's session from the Firebase ID token.
type AuthMiddleware struct {
	sessions core.SessionService
	logger   *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware instance.
func NewAuthMiddleware(sessions core.SessionService, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions, logger: logger}
}

// VerifyToken requires a valid "Bearer <idToken>" header whose uid has a users document.
// On success the session and the uid are stored in the gin context.
func (m *AuthMiddleware) VerifyToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Autenticazione richiesta"})
			return
		}
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header format must be 'Bearer {token}'"})
			return
		}

		session, err := m.sessions.Resolve(c.Request.Context(), parts[1])
		if err != nil {
			if !errors.Is(err, core.ErrUnauthenticated) {
				m.logger.Error("Session resolution failed", zap.Error(err))
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: core.UserMessage(err)})
			return
		}

		c.Set(ContextKeySession, session)
		c.Set(ContextKeyUserID, session.Identity.ID)
		c.Next()
	}
}

// SessionFrom returns the session stored by VerifyToken, or an anonymous one.
func SessionFrom(c *gin.Context) access.Session {
	if v, ok := c.Get(ContextKeySession); ok {
		if session, ok := v.(*access.Session); ok && session != nil {
			return *session
		}
	}
	return access.Session{}
}

// CurrentUser returns the identity resolved by VerifyToken.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	session := SessionFrom(c)
	return session.Identity, session.Identity != nil
}

// RequireRoles admits the request only when the session's role is one of roles.
// Anonymous callers get 401; authenticated callers with another role get 403 with
// their home route in the details.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := SessionFrom(c)
		switch access.Allow(session, roles) {
		case access.Allowed:
			c.Next()
		case access.RedirectToHome:
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Error:   "Accesso non autorizzato",
				Details: access.HomeFor(session.Identity.Role),
			})
		default:
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Autenticazione richiesta"})
		}
	}
}
