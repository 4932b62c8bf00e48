package core

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"coachgest-backend/internal/db"
	"coachgest-backend/internal/models"
)

const (
	msgCoachNotFound = "Coach non trovato"
	msgLoadFailed    = "Errore nel caricamento dei dati"
)

// CoachSummary is a coach joined with its subscription. Subscription is nil when the
// coach has none.
type CoachSummary struct {
	User         *models.User         `json:"user"`
	Subscription *models.Subscription `json:"subscription,omitempty"`
}

// AdminStats feeds the super-admin dashboard.
type AdminStats struct {
	TotalCoaches        int     `json:"totalCoaches"`
	ActiveSubscriptions int     `json:"activeSubscriptions"`
	MonthlyRevenue      float64 `json:"monthlyRevenue"`
}

type coachService struct {
	users         db.UserRepository
	subscriptions db.SubscriptionRepository
	catalog       CatalogService
	logger        *zap.Logger
}

// NewCoachService creates a CoachService.
func NewCoachService(users db.UserRepository, subscriptions db.SubscriptionRepository, catalog CatalogService, logger *zap.Logger) CoachService {
	return &coachService{users: users, subscriptions: subscriptions, catalog: catalog, logger: logger}
}

func (s *coachService) ListCoaches(ctx context.Context) ([]*CoachSummary, error) {
	coaches, err := s.users.ListByRole(ctx, models.RoleCoach)
	if err != nil {
		return nil, failed(msgLoadFailed, err)
	}
	subs, err := s.subscriptions.ListAll(ctx)
	if err != nil {
		return nil, failed(msgLoadFailed, err)
	}
	byUser := make(map[string]*models.Subscription, len(subs))
	for _, sub := range subs {
		byUser[sub.UserID] = sub
	}

	out := make([]*CoachSummary, 0, len(coaches))
	for _, coach := range coaches {
		out = append(out, &CoachSummary{User: coach, Subscription: byUser[coach.ID]})
	}
	return out, nil
}

// GetCoachDetails returns the coach and the subscription stored under the same id.
func (s *coachService) GetCoachDetails(ctx context.Context, coachID string) (*CoachSummary, error) {
	user, err := s.users.GetByID(ctx, coachID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, newError(ErrNotFound, msgCoachNotFound, err)
		}
		return nil, failed(msgLoadFailed, err)
	}
	if user.Role != models.RoleCoach {
		return nil, newError(ErrNotFound, msgCoachNotFound, nil)
	}

	summary := &CoachSummary{User: user}
	sub, err := s.subscriptions.GetByID(ctx, coachID)
	switch {
	case err == nil:
		summary.Subscription = sub
	case errors.Is(err, db.ErrNotFound):
		s.logger.Warn("Coach has no subscription", zap.String("coachID", coachID))
	default:
		return nil, failed(msgLoadFailed, err)
	}
	return summary, nil
}

func (s *coachService) UpdateUserStatus(ctx context.Context, userID string, status models.UserStatus) (*models.User, error) {
	if !status.Valid() {
		return nil, validationError(fmt.Sprintf("Stato '%s' non valido", status))
	}
	if err := s.users.UpdateStatus(ctx, userID, status); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, newError(ErrNotFound, msgUserNotFound, err)
		}
		return nil, failed(MsgUpdateFailed, err)
	}
	s.logger.Info("User status changed", zap.String("userID", userID), zap.String("status", string(status)))

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, failed(MsgUpdateFailed, err)
	}
	return user, nil
}

// AdminDashboard counts coaches and active subscriptions. Monthly revenue is the sum of
// the current catalog price of every active subscription.
func (s *coachService) AdminDashboard(ctx context.Context) (*AdminStats, error) {
	coaches, err := s.users.ListByRole(ctx, models.RoleCoach)
	if err != nil {
		return nil, failed(msgLoadFailed, err)
	}
	subs, err := s.subscriptions.ListAll(ctx)
	if err != nil {
		return nil, failed(msgLoadFailed, err)
	}
	catalog, err := s.catalog.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}

	stats := &AdminStats{TotalCoaches: len(coaches)}
	for _, sub := range subs {
		if sub.Status != models.SubscriptionStatusActive {
			continue
		}
		stats.ActiveSubscriptions++
		stats.MonthlyRevenue += catalog[sub.Plan].Price
	}
	return stats, nil
}
