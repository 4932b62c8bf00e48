package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"coachgest-backend/internal/access"
	"coachgest-backend/internal/middleware"
)

type NavigationHandler struct {
	navigation *access.Navigation
}

func NewNavigationHandler(nav *access.Navigation) *NavigationHandler {
	return &NavigationHandler{navigation: nav}
}

// Menu handles GET /navigation/menu.
func (h *NavigationHandler) Menu(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, MenuResponse{Items: h.navigation.MenuFor(user.Role)})
}

// Guard handles GET /navigation/guard?path=/coach/team and reports where the SPA should go.
func (h *NavigationHandler) Guard(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgInvalidRequest, Details: "path is required"})
		return
	}
	c.JSON(http.StatusOK, access.Evaluate(middleware.SessionFrom(c), path))
}
