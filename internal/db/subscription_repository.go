package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"coachgest-backend/internal/models"
)

const subscriptionsCollection = "subscriptions"

type firestoreSubscriptionRepository struct {
	client *firestore.Client
}

// NewFirestoreSubscriptionRepository creates a new instance of firestoreSubscriptionRepository.
func NewFirestoreSubscriptionRepository(client *firestore.Client) SubscriptionRepository {
	return &firestoreSubscriptionRepository{client: client}
}

// Create stores sub under sub.ID, which is the owning coach UID.
func (r *firestoreSubscriptionRepository) Create(ctx context.Context, sub *models.Subscription) error {
	if sub.ID == "" {
		return errors.New("subscription ID cannot be empty for Create operation")
	}
	stampCreated(&sub.CreatedAt, &sub.UpdatedAt)
	if _, err := r.client.Collection(subscriptionsCollection).Doc(sub.ID).Create(ctx, sub); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("subscription with ID '%s': %w", sub.ID, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create subscription with ID '%s': %w", sub.ID, err)
	}
	return nil
}

func (r *firestoreSubscriptionRepository) GetByID(ctx context.Context, subscriptionID string) (*models.Subscription, error) {
	if subscriptionID == "" {
		return nil, errors.New("subscriptionID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(subscriptionsCollection).Doc(subscriptionID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("subscription with ID '%s' not found: %w", subscriptionID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get subscription with ID '%s': %w", subscriptionID, err)
	}
	return decodeSubscription(docSnap)
}

func (r *firestoreSubscriptionRepository) ListAll(ctx context.Context) ([]*models.Subscription, error) {
	iter := r.client.Collection(subscriptionsCollection).Documents(ctx)
	defer iter.Stop()

	subs := []*models.Subscription{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate subscriptions: %w", err)
		}
		sub, err := decodeSubscription(doc)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func (r *firestoreSubscriptionRepository) UpdatePlan(ctx context.Context, subscriptionID string, plan models.SubscriptionPlan) error {
	return r.update(ctx, subscriptionID, []firestore.Update{
		{Path: "plan", Value: string(plan.Tier)},
		{Path: "maxCoachee", Value: plan.Limits.MaxCoachee},
		{Path: "maxSubcoach", Value: plan.Limits.MaxSubcoach},
		{Path: "features", Value: plan.Features},
	})
}

func (r *firestoreSubscriptionRepository) UpdateStatus(ctx context.Context, subscriptionID string, st models.SubscriptionStatus) error {
	return r.update(ctx, subscriptionID, []firestore.Update{{Path: "status", Value: string(st)}})
}

func (r *firestoreSubscriptionRepository) update(ctx context.Context, subscriptionID string, updates []firestore.Update) error {
	if subscriptionID == "" {
		return errors.New("subscription ID cannot be empty for Update operation")
	}
	updates = append(updates, firestore.Update{Path: "updatedAt", Value: now()})
	if _, err := r.client.Collection(subscriptionsCollection).Doc(subscriptionID).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("subscription with ID '%s' not found: %w", subscriptionID, ErrNotFound)
		}
		return fmt.Errorf("failed to update subscription with ID '%s': %w", subscriptionID, err)
	}
	return nil
}

func decodeSubscription(doc *firestore.DocumentSnapshot) (*models.Subscription, error) {
	var sub models.Subscription
	if err := doc.DataTo(&sub); err != nil {
		return nil, fmt.Errorf("failed to decode subscription data for ID '%s': %w", doc.Ref.ID, err)
	}
	sub.ID = doc.Ref.ID
	if err := models.Validate(&sub); err != nil {
		return nil, fmt.Errorf("subscription '%s': %w", doc.Ref.ID, err)
	}
	return &sub, nil
}
