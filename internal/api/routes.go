package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"coachgest-backend/internal/middleware"
	"coachgest-backend/internal/models"
)

// Pinger is implemented by backing services whose reachability is reported on /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers groups every handler mounted by SetupRoutes.
type Handlers struct {
	Auth       *AuthHandler
	Navigation *NavigationHandler
	Admin      *AdminHandler
	Stripe     *StripeHandler
	Coach      *CoachHandler
	Profile    *ProfileHandler
	Member     *MemberHandler
}

// SetupRoutes mounts the public and authenticated endpoints on router.
// health may be nil, in which case /health only reports the process is up.
func SetupRoutes(router *gin.Engine, h Handlers, authMW *middleware.AuthMiddleware, health Pinger, logger *zap.Logger) {
	router.GET("/health", healthHandler(health, logger))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/admin/login", h.Auth.AdminLogin)
		auth.POST("/logout", authMW.VerifyToken(), h.Auth.Logout)
	}

	protected := v1.Group("")
	protected.Use(authMW.VerifyToken())
	{
		protected.GET("/session", h.Auth.Session)
		protected.GET("/navigation/menu", h.Navigation.Menu)
		protected.GET("/navigation/guard", h.Navigation.Guard)
	}

	admin := protected.Group("/admin")
	admin.Use(middleware.RequireRoles(models.RoleSuperAdmin))
	{
		admin.GET("/dashboard", h.Admin.Dashboard)
		admin.GET("/coaches", h.Admin.ListCoaches)
		admin.GET("/coaches/:id", h.Admin.GetCoach)
		admin.PUT("/coaches/:id/status", h.Admin.UpdateCoachStatus)
		admin.PUT("/subscriptions/:id/plan", h.Admin.SetSubscriptionPlan)
		admin.PUT("/subscriptions/:id/status", h.Admin.SetSubscriptionStatus)

		settings := admin.Group("/settings")
		settings.GET("/subscriptions", h.Admin.GetCatalog)
		settings.PUT("/subscriptions", h.Admin.SaveCatalog)
		settings.POST("/subscriptions/reset", h.Admin.ResetCatalog)
		settings.GET("/stripe", h.Stripe.GetSettings)
		settings.PUT("/stripe", h.Stripe.SaveSettings)
		settings.POST("/stripe/connect", h.Stripe.Connect)
		settings.POST("/stripe/callback", h.Stripe.Callback)
		settings.POST("/stripe/disconnect", h.Stripe.Disconnect)
	}

	coach := protected.Group("/coach")
	coach.Use(middleware.RequireRoles(models.RoleCoach))
	{
		coach.GET("/dashboard", h.Coach.Dashboard)
		coach.GET("/team", h.Coach.ListTeam)
		coach.POST("/team", h.Coach.CreateSubcoach)
		coach.GET("/coachees", h.Coach.ListCoachees)
		coach.POST("/coachees", h.Coach.CreateCoachee)
		coach.GET("/subscription", h.Coach.Subscription)
		coach.GET("/subscription/transactions", h.Coach.Transactions)

		coach.GET("/profile", h.Profile.Get)
		coach.PUT("/profile", h.Profile.Update)
		coach.PUT("/profile/password", h.Profile.ChangePassword)
		coach.GET("/profile/billing", h.Profile.GetBilling)
		coach.PUT("/profile/billing", h.Profile.UpdateBilling)
	}

	subcoach := protected.Group("/subcoach")
	subcoach.Use(middleware.RequireRoles(models.RoleSubcoach))
	{
		subcoach.GET("/dashboard", h.Member.SubcoachDashboard)
		subcoach.GET("/coachees", h.Member.SubcoachCoachees)
	}

	coachee := protected.Group("/coachee")
	coachee.Use(middleware.RequireRoles(models.RoleCoachee))
	{
		coachee.GET("/dashboard", h.Member.CoacheeDashboard)
	}
}

func healthHandler(health Pinger, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if health != nil {
			if err := health.Ping(c.Request.Context()); err != nil {
				logger.Warn("Health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": "unreachable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
