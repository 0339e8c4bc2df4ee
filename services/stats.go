package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/wdmmg/finance-api/models"
	"github.com/wdmmg/finance-api/utils"
)

type StatsService struct {
	db *sql.DB
}

func NewStatsService(db *sql.DB) *StatsService {
	return &StatsService{db: db}
}

// ByCategory sums the caller's spending per category within the optional
// range. Categories with no spending are absent unless includeAll is set,
// which fills the full enumeration for chart rendering.
func (s *StatsService) ByCategory(ctx context.Context, userID string, start, end *time.Time, includeAll bool) (map[string]float64, error) {
	query := `
		SELECT category, SUM(amount)
		FROM transactions
		WHERE user_id = $1`
	args := []interface{}{userID}

	if start != nil {
		args = append(args, *start)
		query += fmt.Sprintf(" AND timestamp >= $%d", len(args))
	}
	if end != nil {
		args = append(args, *end)
		query += fmt.Sprintf(" AND timestamp <= $%d", len(args))
	}
	query += " GROUP BY category"

	stats := map[string]float64{}
	err := utils.WithUserTransaction(ctx, s.db, userID, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var category string
			var total float64
			if err := rows.Scan(&category, &total); err != nil {
				return err
			}
			stats[category] = total
		}
		return rows.Err()
	})
	if err != nil {
		return nil, utils.UnavailableError(err)
	}

	if includeAll {
		for _, category := range models.Categories {
			if _, ok := stats[category]; !ok {
				stats[category] = 0
			}
		}
	}

	return stats, nil
}

// Trends groups the caller's spending by time period.
func (s *StatsService) Trends(ctx context.Context, userID, period string) (map[string]float64, error) {
	trends := map[string]float64{}
	err := utils.WithUserTransaction(ctx, s.db, userID, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT timestamp, amount
			FROM transactions
			WHERE user_id = $1
			ORDER BY timestamp
		`, userID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var timestamp time.Time
			var amount float64
			if err := rows.Scan(&timestamp, &amount); err != nil {
				return err
			}
			trends[periodKey(timestamp, period)] += amount
		}
		return rows.Err()
	})
	if err != nil {
		return nil, utils.UnavailableError(err)
	}
	return trends, nil
}

// periodKey buckets a timestamp: 2026-01-31, 2026-W05, 2026-01 or 2026.
func periodKey(t time.Time, period string) string {
	switch period {
	case "daily":
		return t.Format("2006-01-02")
	case "weekly":
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case "yearly":
		return t.Format("2006")
	default: // monthly
		return t.Format("2006-01")
	}
}
