package models

import "time"

// Transaction is a single spending record. UserID is fixed at creation and
// never updated afterwards.
type Transaction struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	CreatedAt   time.Time `json:"created_at"`
}

// TransactionRequest is the payload for both create and full-field update.
type TransactionRequest struct {
	Amount      float64    `json:"amount" binding:"required"`
	Category    string     `json:"category" binding:"required"`
	Description string     `json:"description" binding:"required"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
}

type BulkDeleteRequest struct {
	TransactionIDs []string `json:"transaction_ids" binding:"required"`
}

type BulkDeleteResponse struct {
	Message      string `json:"message"`
	DeletedCount int    `json:"deleted_count"`
}

// TransactionFilter composes conjunctively; zero values mean "no filter".
type TransactionFilter struct {
	Category  string
	StartDate *time.Time
	EndDate   *time.Time
	Search    string
}
