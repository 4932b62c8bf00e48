package db

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"coachgest-backend/internal/models"
)

const (
	configCollection = "config"
	stripeConfigDoc  = "stripe"
	planCatalogDoc   = "subscriptions"
)

type firestoreConfigRepository struct {
	client *firestore.Client
}

// NewFirestoreConfigRepository creates a new instance of firestoreConfigRepository.
func NewFirestoreConfigRepository(client *firestore.Client) ConfigRepository {
	return &firestoreConfigRepository{client: client}
}

func (r *firestoreConfigRepository) GetStripeConfig(ctx context.Context) (*models.StripeConfig, error) {
	docSnap, err := r.get(ctx, stripeConfigDoc)
	if err != nil {
		return nil, err
	}
	var cfg models.StripeConfig
	if err := docSnap.DataTo(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode stripe config: %w", err)
	}
	if cfg.Mode == "" {
		cfg.Mode = models.StripeModeTest
	}
	if err := models.Validate(&cfg); err != nil {
		return nil, fmt.Errorf("stripe config: %w", err)
	}
	return &cfg, nil
}

func (r *firestoreConfigRepository) SaveStripeConfig(ctx context.Context, cfg *models.StripeConfig) error {
	cfg.UpdatedAt = now()
	if _, err := r.client.Collection(configCollection).Doc(stripeConfigDoc).Set(ctx, cfg); err != nil {
		return fmt.Errorf("failed to save stripe config: %w", err)
	}
	return nil
}

// GetPlanCatalog returns ErrNotFound when no catalog has been saved yet.
func (r *firestoreConfigRepository) GetPlanCatalog(ctx context.Context) (models.PlanCatalog, error) {
	docSnap, err := r.get(ctx, planCatalogDoc)
	if err != nil {
		return nil, err
	}
	var stored map[string]models.SubscriptionPlan
	if err := docSnap.DataTo(&stored); err != nil {
		return nil, fmt.Errorf("failed to decode plan catalog: %w", err)
	}
	catalog := make(models.PlanCatalog, len(stored))
	for tier, plan := range stored {
		catalog[models.Tier(tier)] = plan
	}
	if err := models.ValidateCatalog(catalog); err != nil {
		return nil, fmt.Errorf("plan catalog: %w", err)
	}
	return catalog, nil
}

// SavePlanCatalog overwrites the whole catalog document. Concurrent saves are last-writer-wins.
func (r *firestoreConfigRepository) SavePlanCatalog(ctx context.Context, catalog models.PlanCatalog) error {
	stored := make(map[string]models.SubscriptionPlan, len(catalog))
	for tier, plan := range catalog {
		stored[string(tier)] = plan
	}
	if _, err := r.client.Collection(configCollection).Doc(planCatalogDoc).Set(ctx, stored); err != nil {
		return fmt.Errorf("failed to save plan catalog: %w", err)
	}
	return nil
}

func (r *firestoreConfigRepository) get(ctx context.Context, docID string) (*firestore.DocumentSnapshot, error) {
	docSnap, err := r.client.Collection(configCollection).Doc(docID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("config document '%s': %w", docID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get config document '%s': %w", docID, err)
	}
	return docSnap, nil
}
