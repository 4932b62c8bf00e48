package api

import (
	"context"

	"github.com/stretchr/testify/mock"

	"coachgest-backend/internal/access"
	"coachgest-backend/internal/core"
	"coachgest-backend/internal/models"
)

type stubSessions map[string]*models.User

func (s stubSessions) Resolve(_ context.Context, idToken string) (*access.Session, error) {
	user, ok := s[idToken]
	if !ok {
		return nil, &core.Error{Kind: core.ErrUnauthenticated, Message: "Sessione non valida o scaduta"}
	}
	return &access.Session{Identity: user}, nil
}

type mockAuthService struct{ mock.Mock }

func (m *mockAuthService) Register(ctx context.Context, in core.RegisterInput) (*core.Registration, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(*core.Registration), args.Error(1)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*core.LoginResult, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(*core.LoginResult), args.Error(1)
}

func (m *mockAuthService) AdminLogin(ctx context.Context, email, password string) (*core.LoginResult, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(*core.LoginResult), args.Error(1)
}

func (m *mockAuthService) Logout(ctx context.Context, uid string) error {
	return m.Called(ctx, uid).Error(0)
}

func (m *mockAuthService) EnsureSuperAdmin(ctx context.Context, in core.SuperAdminInput) (*models.User, bool, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(*models.User), args.Bool(1), args.Error(2)
}

type mockCoachService struct{ mock.Mock }

func (m *mockCoachService) ListCoaches(ctx context.Context) ([]*core.CoachSummary, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*core.CoachSummary), args.Error(1)
}

func (m *mockCoachService) GetCoachDetails(ctx context.Context, coachID string) (*core.CoachSummary, error) {
	args := m.Called(ctx, coachID)
	return args.Get(0).(*core.CoachSummary), args.Error(1)
}

func (m *mockCoachService) UpdateUserStatus(ctx context.Context, userID string, status models.UserStatus) (*models.User, error) {
	args := m.Called(ctx, userID, status)
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockCoachService) AdminDashboard(ctx context.Context) (*core.AdminStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(*core.AdminStats), args.Error(1)
}

type mockSubscriptionService struct{ mock.Mock }

func (m *mockSubscriptionService) SetCoachPlan(ctx context.Context, subscriptionID string, tier models.Tier) (*models.Subscription, error) {
	args := m.Called(ctx, subscriptionID, tier)
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *mockSubscriptionService) SetSubscriptionStatus(ctx context.Context, subscriptionID string, status models.SubscriptionStatus) (*models.Subscription, error) {
	args := m.Called(ctx, subscriptionID, status)
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *mockSubscriptionService) GetCoachSubscription(ctx context.Context, coachID string) (*core.CoachSubscription, error) {
	args := m.Called(ctx, coachID)
	return args.Get(0).(*core.CoachSubscription), args.Error(1)
}

func (m *mockSubscriptionService) ListTransactions(ctx context.Context, coachID string) ([]*models.Transaction, error) {
	args := m.Called(ctx, coachID)
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

type mockCatalogService struct{ mock.Mock }

func (m *mockCatalogService) LoadCatalog(ctx context.Context) (models.PlanCatalog, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.PlanCatalog), args.Error(1)
}

func (m *mockCatalogService) SaveCatalog(ctx context.Context, catalog models.PlanCatalog) error {
	return m.Called(ctx, catalog).Error(0)
}

func (m *mockCatalogService) ResetToDefault() models.PlanCatalog {
	return m.Called().Get(0).(models.PlanCatalog)
}

func (m *mockCatalogService) Plan(ctx context.Context, tier models.Tier) (models.SubscriptionPlan, error) {
	args := m.Called(ctx, tier)
	return args.Get(0).(models.SubscriptionPlan), args.Error(1)
}

type mockTeamService struct{ mock.Mock }

func (m *mockTeamService) ListSubcoachesForCoach(ctx context.Context, coachID string) ([]*models.User, error) {
	args := m.Called(ctx, coachID)
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *mockTeamService) ListCoacheesForCoach(ctx context.Context, coachID string) ([]*models.User, error) {
	args := m.Called(ctx, coachID)
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *mockTeamService) ListCoacheesForSubcoach(ctx context.Context, subcoach *models.User) ([]*models.User, error) {
	args := m.Called(ctx, subcoach)
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *mockTeamService) CreateSubcoach(ctx context.Context, coachID string, in core.NewSubcoachInput) (*models.User, error) {
	args := m.Called(ctx, coachID, in)
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockTeamService) CreateCoachee(ctx context.Context, coachID string, in core.NewCoacheeInput) (*models.User, error) {
	args := m.Called(ctx, coachID, in)
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockTeamService) CoachDashboard(ctx context.Context, coachID string) (*core.CoachStats, error) {
	args := m.Called(ctx, coachID)
	return args.Get(0).(*core.CoachStats), args.Error(1)
}

func (m *mockTeamService) SubcoachDashboard(ctx context.Context, subcoach *models.User) (*core.SubcoachStats, error) {
	args := m.Called(ctx, subcoach)
	return args.Get(0).(*core.SubcoachStats), args.Error(1)
}

func (m *mockTeamService) CoacheeDashboard(ctx context.Context, coachee *models.User) (*core.CoacheeStats, error) {
	args := m.Called(ctx, coachee)
	return args.Get(0).(*core.CoacheeStats), args.Error(1)
}

type mockProfileService struct{ mock.Mock }

func (m *mockProfileService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockProfileService) UpdateProfile(ctx context.Context, userID string, in core.ProfileInput) (*models.User, error) {
	args := m.Called(ctx, userID, in)
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockProfileService) ChangePassword(ctx context.Context, userID string, in core.PasswordInput) error {
	return m.Called(ctx, userID, in).Error(0)
}

func (m *mockProfileService) GetBilling(ctx context.Context, userID string) (*models.BillingData, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(*models.BillingData), args.Error(1)
}

func (m *mockProfileService) UpdateBilling(ctx context.Context, userID string, billing models.BillingData) (*models.BillingData, error) {
	args := m.Called(ctx, userID, billing)
	return args.Get(0).(*models.BillingData), args.Error(1)
}

type mockStripeService struct{ mock.Mock }

func (m *mockStripeService) GetConfig(ctx context.Context) (*models.StripeConfig, error) {
	args := m.Called(ctx)
	return args.Get(0).(*models.StripeConfig), args.Error(1)
}

func (m *mockStripeService) SaveConfig(ctx context.Context, in core.StripeSettingsInput) (*models.StripeConfig, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(*models.StripeConfig), args.Error(1)
}

func (m *mockStripeService) BuildAuthorizeURL(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockStripeService) HandleCallback(ctx context.Context, code, state string) (*models.StripeConfig, error) {
	args := m.Called(ctx, code, state)
	return args.Get(0).(*models.StripeConfig), args.Error(1)
}

func (m *mockStripeService) Disconnect(ctx context.Context) (*models.StripeConfig, error) {
	args := m.Called(ctx)
	return args.Get(0).(*models.StripeConfig), args.Error(1)
}

func (m *mockStripeService) WebhookURL() string {
	return m.Called().String(0)
}
