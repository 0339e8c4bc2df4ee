package services

import (
	"context"
	"database/sql"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/wdmmg/finance-api/models"
	"github.com/wdmmg/finance-api/utils"
)

type BudgetService struct {
	db *sql.DB
}

func NewBudgetService(db *sql.DB) *BudgetService {
	return &BudgetService{db: db}
}

const budgetColumns = `id, user_id, category, monthly_limit, created_at, updated_at`

func scanBudget(row interface{ Scan(...interface{}) error }, b *models.Budget) error {
	return row.Scan(&b.ID, &b.UserID, &b.Category, &b.MonthlyLimit, &b.CreatedAt, &b.UpdatedAt)
}

func (s *BudgetService) List(ctx context.Context, userID string) ([]models.Budget, error) {
	budgets := []models.Budget{}
	err := utils.WithUserTransaction(ctx, s.db, userID, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT `+budgetColumns+` FROM budgets
			WHERE user_id = $1
			ORDER BY category
		`, userID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var b models.Budget
			if err := scanBudget(rows, &b); err != nil {
				return err
			}
			budgets = append(budgets, b)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, utils.UnavailableError(err)
	}
	return budgets, nil
}

// Upsert creates the budget for (user, category) or replaces its limit. The
// unique constraint guarantees a single row per pair; ON CONFLICT makes the
// create-or-replace atomic.
func (s *BudgetService) Upsert(ctx context.Context, userID, category string, monthlyLimit float64) (*models.Budget, error) {
	var budget models.Budget
	err := utils.WithUserTransaction(ctx, s.db, userID, func(tx *sql.Tx) error {
		return scanBudget(tx.QueryRowContext(ctx, `
			INSERT INTO budgets (id, user_id, category, monthly_limit)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id, category)
			DO UPDATE SET monthly_limit = EXCLUDED.monthly_limit, updated_at = NOW()
			RETURNING `+budgetColumns+`
		`, uuid.New().String(), userID, category, monthlyLimit), &budget)
	})
	if err != nil {
		return nil, utils.UnavailableError(err)
	}
	return &budget, nil
}

func (s *BudgetService) Delete(ctx context.Context, userID, id string) error {
	var affected int64
	err := utils.WithUserTransaction(ctx, s.db, userID, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			DELETE FROM budgets WHERE id = $1 AND user_id = $2
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
		return utils.NotFoundError("Budget not found")
	}
	return nil
}

// Status reports current-month spending against each budget.
func (s *BudgetService) Status(ctx context.Context, userID string, now time.Time) ([]models.BudgetStatus, error) {
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	statuses := []models.BudgetStatus{}
	err := utils.WithUserTransaction(ctx, s.db, userID, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT b.category, b.monthly_limit, COALESCE(SUM(t.amount), 0)
			FROM budgets b
			LEFT JOIN transactions t
				ON t.user_id = b.user_id
				AND t.category = b.category
				AND t.timestamp >= $2
			WHERE b.user_id = $1
			GROUP BY b.category, b.monthly_limit
			ORDER BY b.category
		`, userID, startOfMonth)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var category string
			var limit, spent float64
			if err := rows.Scan(&category, &limit, &spent); err != nil {
				return err
			}
			statuses = append(statuses, buildBudgetStatus(category, limit, spent))
		}
		return rows.Err()
	})
	if err != nil {
		return nil, utils.UnavailableError(err)
	}
	return statuses, nil
}

func buildBudgetStatus(category string, limit, spent float64) models.BudgetStatus {
	var percentage float64
	if limit > 0 {
		percentage = math.Round(spent/limit*10000) / 100
	}

	status := "ok"
	switch {
	case spent > limit:
		status = "exceeded"
	case percentage >= 80:
		status = "warning"
	}

	return models.BudgetStatus{
		Category:   category,
		Limit:      limit,
		Spent:      spent,
		Remaining:  limit - spent,
		Percentage: percentage,
		Status:     status,
	}
}
