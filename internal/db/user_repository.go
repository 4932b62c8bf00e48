package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"coachgest-backend/internal/models"
)

const usersCollection = "users"

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrAlreadyExists is returned when Create targets an existing document ID.
	ErrAlreadyExists = errors.New("document already exists")
)

// now is replaced in tests.
var now = func() time.Time { return time.Now().UTC() }

type firestoreUserRepository struct {
	client *firestore.Client
}

// NewFirestoreUserRepository creates a new instance of firestoreUserRepository.
func NewFirestoreUserRepository(client *firestore.Client) UserRepository {
	return &firestoreUserRepository{client: client}
}

func (r *firestoreUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return errors.New("user ID cannot be empty for Create operation")
	}
	if err := models.Validate(user); err != nil {
		return fmt.Errorf("user with ID '%s': %w", user.ID, err)
	}
	stampCreated(&user.CreatedAt, &user.UpdatedAt)
	_, err := r.client.Collection(usersCollection).Doc(user.ID).Create(ctx, user)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("user with ID '%s': %w", user.ID, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create user with ID '%s': %w", user.ID, err)
	}
	return nil
}

func (r *firestoreUserRepository) CreateWithAutoID(ctx context.Context, user *models.User) (string, error) {
	if err := models.Validate(user); err != nil {
		return "", fmt.Errorf("failed to create user: %w", err)
	}
	docRef := r.client.Collection(usersCollection).NewDoc()
	user.ID = docRef.ID
	stampCreated(&user.CreatedAt, &user.UpdatedAt)
	if _, err := docRef.Create(ctx, user); err != nil {
		return "", fmt.Errorf("failed to create user: %w", err)
	}
	return docRef.ID, nil
}

func (r *firestoreUserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(usersCollection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user with ID '%s': %w", userID, err)
	}
	return decodeUser(docSnap)
}

func (r *firestoreUserRepository) UpdateProfile(ctx context.Context, userID, nome, cognome string) error {
	return r.update(ctx, userID, []firestore.Update{
		{Path: "nome", Value: nome},
		{Path: "cognome", Value: cognome},
	})
}

func (r *firestoreUserRepository) UpdateBilling(ctx context.Context, userID string, billing *models.BillingData) error {
	if billing != nil {
		if err := models.Validate(billing); err != nil {
			return fmt.Errorf("billing data for user '%s': %w", userID, err)
		}
	}
	return r.update(ctx, userID, []firestore.Update{{Path: "billingData", Value: billing}})
}

func (r *firestoreUserRepository) UpdateStatus(ctx context.Context, userID string, st models.UserStatus) error {
	if !st.Valid() {
		return fmt.Errorf("%w: unknown user status '%s'", models.ErrInvalidDocument, st)
	}
	return r.update(ctx, userID, []firestore.Update{{Path: "status", Value: st}})
}

// update applies a partial update and stamps updatedAt. It fails with ErrNotFound if the document is missing.
func (r *firestoreUserRepository) update(ctx context.Context, userID string, updates []firestore.Update) error {
	if userID == "" {
		return errors.New("user ID cannot be empty for Update operation")
	}
	updates = append(updates, firestore.Update{Path: "updatedAt", Value: now()})
	if _, err := r.client.Collection(usersCollection).Doc(userID).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("user with ID '%s' not found: %w", userID, ErrNotFound)
		}
		return fmt.Errorf("failed to update user with ID '%s': %w", userID, err)
	}
	return nil
}

func (r *firestoreUserRepository) Delete(ctx context.Context, userID string) error {
	if _, err := r.client.Collection(usersCollection).Doc(userID).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete user with ID '%s': %w", userID, err)
	}
	return nil
}

func (r *firestoreUserRepository) ListByRole(ctx context.Context, role models.Role) ([]*models.User, error) {
	q := r.client.Collection(usersCollection).Where("role", "==", string(role))
	return collectUsers(ctx, q)
}

func (r *firestoreUserRepository) ListByCoach(ctx context.Context, coachID string, role models.Role) ([]*models.User, error) {
	if coachID == "" {
		return nil, errors.New("coachID cannot be empty for ListByCoach operation")
	}
	q := r.client.Collection(usersCollection).
		Where("coachId", "==", coachID).
		Where("role", "==", string(role))
	return collectUsers(ctx, q)
}

func (r *firestoreUserRepository) ListBySubcoach(ctx context.Context, coachID, subcoachID string) ([]*models.User, error) {
	q := r.client.Collection(usersCollection).
		Where("coachId", "==", coachID).
		Where("subcoachId", "==", subcoachID).
		Where("role", "==", string(models.RoleCoachee))
	return collectUsers(ctx, q)
}

func (r *firestoreUserRepository) CountByCoach(ctx context.Context, coachID string, role models.Role) (int, error) {
	q := r.client.Collection(usersCollection).
		Where("coachId", "==", coachID).
		Where("role", "==", string(role))

	results, err := q.NewAggregationQuery().WithCount("all").Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s users for coach '%s': %w", role, coachID, err)
	}
	count, ok := results["all"]
	if !ok {
		return 0, errors.New("count aggregation returned no result")
	}
	value, ok := count.(*firestorepb.Value)
	if !ok {
		return 0, fmt.Errorf("unexpected count aggregation type %T", count)
	}
	return int(value.GetIntegerValue()), nil
}

func collectUsers(ctx context.Context, q firestore.Query) ([]*models.User, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	users := []*models.User{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate users: %w", err)
		}
		user, err := decodeUser(doc)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func decodeUser(doc *firestore.DocumentSnapshot) (*models.User, error) {
	var user models.User
	if err := doc.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user data for ID '%s': %w", doc.Ref.ID, err)
	}
	user.ID = doc.Ref.ID
	// Accounts created before the status field existed are active.
	if user.Status == "" {
		user.Status = models.UserStatusActive
	}
	if err := models.Validate(&user); err != nil {
		return nil, fmt.Errorf("user '%s': %w", doc.Ref.ID, err)
	}
	return &user, nil
}

func stampCreated(createdAt, updatedAt *time.Time) {
	ts := now()
	if createdAt.IsZero() {
		*createdAt = ts
	}
	*updatedAt = ts
}
