package core

import (
	"context"
	"time"

	"coachgest-backend/internal/access"
	"coachgest-backend/internal/models"
)

// IdentityProvider is the managed authentication service (Firebase Auth).
// Failures with a known cause are returned as *AuthError.
type IdentityProvider interface {
	VerifyIDToken(ctx context.Context, idToken string) (uid string, err error)
	SignInWithPassword(ctx context.Context, email, password string) (*SignInResult, error)
	CreateUser(ctx context.Context, email, password, displayName string) (uid string, err error)
	GetUserIDByEmail(ctx context.Context, email string) (uid string, err error)
	UpdatePassword(ctx context.Context, uid, password string) error
	DeleteUser(ctx context.Context, uid string) error
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

// SignInResult holds the tokens issued by a password sign-in.
type SignInResult struct {
	UID          string
	IDToken      string
	RefreshToken string
	ExpiresIn    time.Duration
}

// SessionService resolves the caller's identity for every request.
type SessionService interface {
	Resolve(ctx context.Context, idToken string) (*access.Session, error)
}

// AuthService covers sign-in, sign-out and registration.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*Registration, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	AdminLogin(ctx context.Context, email, password string) (*LoginResult, error)
	Logout(ctx context.Context, uid string) error
	EnsureSuperAdmin(ctx context.Context, in SuperAdminInput) (*models.User, bool, error)
}

// CatalogService manages the subscription plan catalog.
type CatalogService interface {
	LoadCatalog(ctx context.Context) (models.PlanCatalog, error)
	SaveCatalog(ctx context.Context, catalog models.PlanCatalog) error
	ResetToDefault() models.PlanCatalog
	Plan(ctx context.Context, tier models.Tier) (models.SubscriptionPlan, error)
}

// SubscriptionService manages individual coach subscriptions.
type SubscriptionService interface {
	SetCoachPlan(ctx context.Context, subscriptionID string, tier models.Tier) (*models.Subscription, error)
	SetSubscriptionStatus(ctx context.Context, subscriptionID string, status models.SubscriptionStatus) (*models.Subscription, error)
	GetCoachSubscription(ctx context.Context, coachID string) (*CoachSubscription, error)
	ListTransactions(ctx context.Context, coachID string) ([]*models.Transaction, error)
}

// CoachService is the super-admin view over coaches.
type CoachService interface {
	ListCoaches(ctx context.Context) ([]*CoachSummary, error)
	GetCoachDetails(ctx context.Context, coachID string) (*CoachSummary, error)
	UpdateUserStatus(ctx context.Context, userID string, status models.UserStatus) (*models.User, error)
	AdminDashboard(ctx context.Context) (*AdminStats, error)
}

// TeamService manages the subcoaches and coachees owned by a coach.
type TeamService interface {
	ListSubcoachesForCoach(ctx context.Context, coachID string) ([]*models.User, error)
	ListCoacheesForCoach(ctx context.Context, coachID string) ([]*models.User, error)
	ListCoacheesForSubcoach(ctx context.Context, subcoach *models.User) ([]*models.User, error)
	CreateSubcoach(ctx context.Context, coachID string, in NewSubcoachInput) (*models.User, error)
	CreateCoachee(ctx context.Context, coachID string, in NewCoacheeInput) (*models.User, error)
	CoachDashboard(ctx context.Context, coachID string) (*CoachStats, error)
	SubcoachDashboard(ctx context.Context, subcoach *models.User) (*SubcoachStats, error)
	CoacheeDashboard(ctx context.Context, coachee *models.User) (*CoacheeStats, error)
}

// ProfileService lets a user maintain their own record.
type ProfileService interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*models.User, error)
	ChangePassword(ctx context.Context, userID string, in PasswordInput) error
	GetBilling(ctx context.Context, userID string) (*models.BillingData, error)
	UpdateBilling(ctx context.Context, userID string, billing models.BillingData) (*models.BillingData, error)
}

// StripeService drives the Stripe Connect OAuth handshake and the singleton Stripe configuration.
type StripeService interface {
	GetConfig(ctx context.Context) (*models.StripeConfig, error)
	SaveConfig(ctx context.Context, in StripeSettingsInput) (*models.StripeConfig, error)
	BuildAuthorizeURL(ctx context.Context) (string, error)
	HandleCallback(ctx context.Context, code, state string) (*models.StripeConfig, error)
	Disconnect(ctx context.Context) (*models.StripeConfig, error)
	WebhookURL() string
}
