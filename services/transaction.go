package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/wdmmg/finance-api/models"
	"github.com/wdmmg/finance-api/utils"
)

// TransactionService owns all transaction reads and writes. Every statement
// runs through WithUserTransaction so the row-level-security policies see the
// caller as principal; the explicit user_id predicates below are the API
// layer's own redundant guard.
type TransactionService struct {
	db *sql.DB
}

func NewTransactionService(db *sql.DB) *TransactionService {
	return &TransactionService{db: db}
}

const transactionColumns = `id, user_id, amount, category, description, timestamp, created_at`

func scanTransaction(row interface{ Scan(...interface{}) error }, t *models.Transaction) error {
	return row.Scan(&t.ID, &t.UserID, &t.Amount, &t.Category, &t.Description, &t.Timestamp, &t.CreatedAt)
}

func (s *TransactionService) Create(ctx context.Context, userID string, req models.TransactionRequest) (*models.Transaction, error) {
	timestamp := time.Now()
	if req.Timestamp != nil {
		timestamp = *req.Timestamp
	}

	transaction := &models.Transaction{
		ID:          uuid.New().String(),
		UserID:      userID,
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
		Timestamp:   timestamp,
	}

	err := utils.WithUserTransaction(ctx, s.db, userID, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, `
			INSERT INTO transactions (id, user_id, amount, category, description, timestamp)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at
		`, transaction.ID, userID, transaction.Amount, transaction.Category,
			transaction.Description, transaction.Timestamp).Scan(&transaction.CreatedAt)
	})
	if err != nil {
		return nil, utils.UnavailableError(err)
	}

	return transaction, nil
}

func (s *TransactionService) List(ctx context.Context, userID string, filter models.TransactionFilter) ([]models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = $1`
	args := []interface{}{userID}

	if filter.Category != "" {
		args = append(args, filter.Category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		query += fmt.Sprintf(" AND timestamp >= $%d", len(args))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		query += fmt.Sprintf(" AND timestamp <= $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, filter.Search)
		query += fmt.Sprintf(" AND description ILIKE '%%' || $%d || '%%'", len(args))
	}

	query += " ORDER BY timestamp DESC"

	transactions := []models.Transaction{}
	err := utils.WithUserTransaction(ctx, s.db, userID, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var t models.Transaction
			if err := scanTransaction(rows, &t); err != nil {
				return err
			}
			transactions = append(transactions, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, utils.UnavailableError(err)
	}

	return transactions, nil
}

func (s *TransactionService) Get(ctx context.Context, userID, id string) (*models.Transaction, error) {
	var transaction models.Transaction
	err := utils.WithUserTransaction(ctx, s.db, userID, func(tx *sql.Tx) error {
		return scanTransaction(tx.QueryRowContext(ctx, `
			SELECT `+transactionColumns+` FROM transactions
			WHERE id = $1 AND user_id = $2
		`, id, userID), &transaction)
	})

	if errors.Is(err, sql.ErrNoRows) {
		return nil, utils.NotFoundError("Transaction not found")
	}
	if err != nil {
		return nil, utils.UnavailableError(err)
	}
	return &transaction, nil
}

// Update replaces all mutable fields. A missing timestamp keeps the stored
// one; user_id is never touched.
func (s *TransactionService) Update(ctx context.Context, userID, id string, req models.TransactionRequest) (*models.Transaction, error) {
	var transaction models.Transaction
	err := utils.WithUserTransaction(ctx, s.db, userID, func(tx *sql.Tx) error {
		var existingTimestamp time.Time
		err := tx.QueryRowContext(ctx, `
			SELECT timestamp FROM transactions WHERE id = $1 AND user_id = $2
		`, id, userID).Scan(&existingTimestamp)
		if err != nil {
			return err
		}

		timestamp := existingTimestamp
		if req.Timestamp != nil {
			timestamp = *req.Timestamp
		}

		return scanTransaction(tx.QueryRowContext(ctx, `
			UPDATE transactions
			SET amount = $1, category = $2, description = $3, timestamp = $4
			WHERE id = $5 AND user_id = $6
			RETURNING `+transactionColumns+`
		`, req.Amount, req.Category, req.Description, timestamp, id, userID), &transaction)
	})

	if errors.Is(err, sql.ErrNoRows) {
		return nil, utils.NotFoundError("Transaction not found")
	}
	if err != nil {
		return nil, utils.UnavailableError(err)
	}
	return &transaction, nil
}

func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	var affected int64
	err := utils.WithUserTransaction(ctx, s.db, userID, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			DELETE FROM transactions WHERE id = $1 AND user_id = $2
		`, id, userID)
		if err != nil {
			return err
		}
		affected, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return utils.UnavailableError(err)
	}
	if affected == 0 {
		return utils.NotFoundError("Transaction not found")
	}
	return nil
}

// BulkDelete removes the caller's rows among ids and reports how many were
// deleted. Foreign ids simply do not count; their existence is not revealed.
func (s *TransactionService) BulkDelete(ctx context.Context, userID string, ids []string) (int, error) {
	var affected int64
	err := utils.WithUserTransaction(ctx, s.db, userID, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			DELETE FROM transactions WHERE user_id = $1 AND id = ANY($2::uuid[])
		`, userID, pq.Array(ids))
		if err != nil {
			return err
		}
		affected, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return 0, utils.UnavailableError(err)
	}
	return int(affected), nil
}
