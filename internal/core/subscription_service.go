package core

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"coachgest-backend/internal/db"
	"coachgest-backend/internal/events"
	"coachgest-backend/internal/models"
)

const msgSubscriptionNotFound = "Abbonamento non trovato"

// CoachSubscription is what a coach sees on the subscription page.
type CoachSubscription struct {
	Subscription *models.Subscription    `json:"subscription"`
	CurrentPlan  models.SubscriptionPlan `json:"currentPlan"`
	Catalog      models.PlanCatalog      `json:"catalog"`
}

type subscriptionService struct {
	subscriptions db.SubscriptionRepository
	users         db.UserRepository
	transactions  db.TransactionRepository
	catalog       CatalogService
	publisher     events.Publisher
	logger        *zap.Logger
}

// NewSubscriptionService creates a SubscriptionService.
func NewSubscriptionService(
	subscriptions db.SubscriptionRepository,
	users db.UserRepository,
	transactions db.TransactionRepository,
	catalog CatalogService,
	publisher events.Publisher,
	logger *zap.Logger,
) SubscriptionService {
	return &subscriptionService{
		subscriptions: subscriptions,
		users:         users,
		transactions:  transactions,
		catalog:       catalog,
		publisher:     publisher,
		logger:        logger,
	}
}

// SetCoachPlan moves a subscription to tier and re-syncs maxCoachee, maxSubcoach and
// features from the catalog so the stored limits always match the plan.
func (s *subscriptionService) SetCoachPlan(ctx context.Context, subscriptionID string, tier models.Tier) (*models.Subscription, error) {
	plan, err := s.catalog.Plan(ctx, tier)
	if err != nil {
		return nil, err
	}
	current, err := s.get(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	if err := s.subscriptions.UpdatePlan(ctx, subscriptionID, plan); err != nil {
		return nil, s.writeError(err)
	}
	updated, err := s.get(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Subscription plan changed",
		zap.String("subscriptionID", subscriptionID),
		zap.String("from", string(current.Plan)),
		zap.String("to", string(tier)),
	)
	evt := events.SubscriptionPlanChanged{
		SubscriptionID: subscriptionID,
		UserID:         updated.UserID,
		From:           current.Plan,
		To:             tier,
		MaxCoachee:     updated.MaxCoachee,
		MaxSubcoach:    updated.MaxSubcoach,
	}
	if owner, err := s.users.GetByID(ctx, updated.UserID); err == nil {
		evt.Email = owner.Email
	}
	publish(ctx, s.publisher, s.logger, evt)
	return updated, nil
}

func (s *subscriptionService) SetSubscriptionStatus(ctx context.Context, subscriptionID string, status models.SubscriptionStatus) (*models.Subscription, error) {
	if !status.Valid() {
		return nil, validationError(fmt.Sprintf("Stato '%s' non valido", status))
	}
	if err := s.subscriptions.UpdateStatus(ctx, subscriptionID, status); err != nil {
		return nil, s.writeError(err)
	}
	return s.get(ctx, subscriptionID)
}

func (s *subscriptionService) GetCoachSubscription(ctx context.Context, coachID string) (*CoachSubscription, error) {
	sub, err := s.get(ctx, coachID)
	if err != nil {
		return nil, err
	}
	catalog, err := s.catalog.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	return &CoachSubscription{Subscription: sub, CurrentPlan: catalog[sub.Plan], Catalog: catalog}, nil
}

// ListTransactions returns the coach's transactions, newest first.
func (s *subscriptionService) ListTransactions(ctx context.Context, coachID string) ([]*models.Transaction, error) {
	txs, err := s.transactions.ListByUser(ctx, coachID)
	if err != nil {
		return nil, failed("Errore nel caricamento delle transazioni", err)
	}
	return txs, nil
}

func (s *subscriptionService) get(ctx context.Context, subscriptionID string) (*models.Subscription, error) {
	sub, err := s.subscriptions.GetByID(ctx, subscriptionID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, newError(ErrNotFound, msgSubscriptionNotFound, err)
		}
		return nil, failed(MsgOperationFailed, err)
	}
	return sub, nil
}

func (s *subscriptionService) writeError(err error) error {
	if errors.Is(err, db.ErrNotFound) {
		return newError(ErrNotFound, msgSubscriptionNotFound, err)
	}
	return failed(MsgUpdateFailed, err)
}
