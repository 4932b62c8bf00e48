package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"coachgest-backend/internal/models"
)

const transactionsCollection = "transactions"

type firestoreTransactionRepository struct {
	client *firestore.Client
}

// NewFirestoreTransactionRepository creates a new instance of firestoreTransactionRepository.
func NewFirestoreTransactionRepository(client *firestore.Client) TransactionRepository {
	return &firestoreTransactionRepository{client: client}
}

// ListByUser returns every transaction of userID, newest first.
func (r *firestoreTransactionRepository) ListByUser(ctx context.Context, userID string) ([]*models.Transaction, error) {
	if userID == "" {
		return nil, errors.New("userID cannot be empty for ListByUser operation")
	}
	iter := r.client.Collection(transactionsCollection).
		Where("userId", "==", userID).
		OrderBy("date", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	txs := []*models.Transaction{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate transactions for user '%s': %w", userID, err)
		}
		var tx models.Transaction
		if err := doc.DataTo(&tx); err != nil {
			return nil, fmt.Errorf("failed to decode transaction '%s': %w", doc.Ref.ID, err)
		}
		tx.ID = doc.Ref.ID
		if err := models.Validate(&tx); err != nil {
			return nil, fmt.Errorf("transaction '%s': %w", doc.Ref.ID, err)
		}
		txs = append(txs, &tx)
	}
	return txs, nil
}
