package db

import (
	"context"

	"coachgest-backend/internal/models"
)

// UserRepository defines the operations on the "users" collection.
// List queries are role-scoped equality filters and return the full matching set.
type UserRepository interface {
	// Create stores user under user.ID (the Firebase Auth UID).
	Create(ctx context.Context, user *models.User) error
	// CreateWithAutoID stores user under a generated document ID and sets user.ID.
	CreateWithAutoID(ctx context.Context, user *models.User) (string, error)
	GetByID(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID, nome, cognome string) error
	UpdateBilling(ctx context.Context, userID string, billing *models.BillingData) error
	UpdateStatus(ctx context.Context, userID string, status models.UserStatus) error
	Delete(ctx context.Context, userID string) error
	ListByRole(ctx context.Context, role models.Role) ([]*models.User, error)
	ListByCoach(ctx context.Context, coachID string, role models.Role) ([]*models.User, error)
	ListBySubcoach(ctx context.Context, coachID, subcoachID string) ([]*models.User, error)
	CountByCoach(ctx context.Context, coachID string, role models.Role) (int, error)
}

// SubscriptionRepository defines the operations on the "subscriptions" collection.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *models.Subscription) error
	GetByID(ctx context.Context, subscriptionID string) (*models.Subscription, error)
	ListAll(ctx context.Context) ([]*models.Subscription, error)
	// UpdatePlan writes the tier together with the limits and features taken from plan.
	UpdatePlan(ctx context.Context, subscriptionID string, plan models.SubscriptionPlan) error
	UpdateStatus(ctx context.Context, subscriptionID string, status models.SubscriptionStatus) error
}

// ConfigRepository reads and writes the singleton documents of the "config" collection.
// Both Save methods overwrite the whole document.
type ConfigRepository interface {
	GetStripeConfig(ctx context.Context) (*models.StripeConfig, error)
	SaveStripeConfig(ctx context.Context, cfg *models.StripeConfig) error
	GetPlanCatalog(ctx context.Context) (models.PlanCatalog, error)
	SavePlanCatalog(ctx context.Context, catalog models.PlanCatalog) error
}

// TransactionRepository is read-only; transactions are written by the billing provider.
type TransactionRepository interface {
	ListByUser(ctx context.Context, userID string) ([]*models.Transaction, error)
}
