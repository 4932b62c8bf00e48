package models

import "time"

type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// Transaction is a billing record of a coach. This service only reads them.
type Transaction struct {
	ID          string            `json:"id" firestore:"-"`
	UserID      string            `json:"userId" firestore:"userId" validate:"required"`
	Date        time.Time         `json:"date" firestore:"date"`
	Amount      float64           `json:"amount" firestore:"amount"`
	Description string            `json:"description" firestore:"description"`
	Status      TransactionStatus `json:"status" firestore:"status" validate:"required,oneof=completed pending failed"`
	InvoiceURL  string            `json:"invoiceUrl,omitempty" firestore:"invoiceUrl,omitempty" validate:"omitempty,url"`
}
