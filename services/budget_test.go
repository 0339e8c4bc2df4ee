package services

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestBuildBudgetStatus(t *testing.T) {
	tests := []struct {
		name           string
		limit          float64
		spent          float64
		wantStatus     string
		wantPercentage float64
		wantRemaining  float64
	}{
		{name: "no spending", limit: 100, spent: 0, wantStatus: "ok", wantPercentage: 0, wantRemaining: 100},
		{name: "under budget", limit: 100, spent: 50, wantStatus: "ok", wantPercentage: 50, wantRemaining: 50},
		{name: "just below warning", limit: 100, spent: 79.99, wantStatus: "ok", wantPercentage: 79.99, wantRemaining: 20.01},
		{name: "warning threshold", limit: 100, spent: 80, wantStatus: "warning", wantPercentage: 80, wantRemaining: 20},
		{name: "at the limit", limit: 100, spent: 100, wantStatus: "warning", wantPercentage: 100, wantRemaining: 0},
		{name: "exceeded", limit: 100, spent: 150, wantStatus: "exceeded", wantPercentage: 150, wantRemaining: -50},
		{name: "rounds percentage", limit: 300, spent: 100, wantStatus: "ok", wantPercentage: 33.33, wantRemaining: 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildBudgetStatus("Food", tt.limit, tt.spent)

			if got.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", got.Status, tt.wantStatus)
			}
			if math.Abs(got.Percentage-tt.wantPercentage) > 1e-9 {
				t.Errorf("Percentage = %v, want %v", got.Percentage, tt.wantPercentage)
			}
			if math.Abs(got.Remaining-tt.wantRemaining) > 1e-9 {
				t.Errorf("Remaining = %v, want %v", got.Remaining, tt.wantRemaining)
			}
			if got.Category != "Food" || got.Limit != tt.limit || got.Spent != tt.spent {
				t.Errorf("echoed fields mismatch: %+v", got)
			}
		})
	}
}

// Upsert issues a single atomic insert-or-replace keyed on (user_id,
// category), so setting a limit twice rewrites the one existing row instead
// of creating a second.
func TestUpsertReplacesExistingRow(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now()

	for _, limit := range []float64{200, 350} {
		expectUserTransaction(mock)
		mock.ExpectQuery(`ON CONFLICT \(user_id, category\)`).
			WithArgs(sqlmock.AnyArg(), testUserID, "Food", limit).
			WillReturnRows(sqlmock.NewRows(
				[]string{"id", "user_id", "category", "monthly_limit", "created_at", "updated_at"},
			).AddRow(testRowID, testUserID, "Food", limit, now, now))
		mock.ExpectCommit()
	}

	svc := NewBudgetService(db)

	first, err := svc.Upsert(context.Background(), testUserID, "Food", 200)
	if err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}
	second, err := svc.Upsert(context.Background(), testUserID, "Food", 350)
	if err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("second Upsert row id = %q, want %q", second.ID, first.ID)
	}
	if second.MonthlyLimit != 350 {
		t.Errorf("MonthlyLimit = %v, want 350", second.MonthlyLimit)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
