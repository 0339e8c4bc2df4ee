package models

import "time"

// Budget is a per-category monthly spending limit. At most one row exists per
// (user, category) pair, enforced by a unique constraint.
type Budget struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Category     string    `json:"category"`
	MonthlyLimit float64   `json:"monthly_limit"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type BudgetRequest struct {
	Category     string  `json:"category" binding:"required"`
	MonthlyLimit float64 `json:"monthly_limit" binding:"required"`
}

// BudgetStatus reports current-month spending against a budget.
type BudgetStatus struct {
	Category   string  `json:"category"`
	Limit      float64 `json:"limit"`
	Spent      float64 `json:"spent"`
	Remaining  float64 `json:"remaining"`
	Percentage float64 `json:"percentage"`
	Status     string  `json:"status"`
}
