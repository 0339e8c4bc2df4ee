package services

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/wdmmg/finance-api/models"
	"github.com/wdmmg/finance-api/utils"
)

func TestSignupUniqueIndexSettlesUsernameRace(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()

	// The advisory pre-check sees the name as free; the insert then loses
	// the race and hits the unique index on lower(username).
	mock.ExpectQuery("SELECT EXISTS").WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("INSERT INTO user_profiles").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "idx_user_profiles_username_lower"})

	_, err = NewAuthService(db).Signup(context.Background(), models.SignupRequest{
		Username:  "alice",
		Email:     "alice@example.com",
		Password:  "Str0ng!pass",
		FirstName: "Alice",
		LastName:  "Smith",
	})

	var apiErr *utils.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Signup() error = %v, want APIError", err)
	}
	if apiErr.Kind != utils.KindValidation {
		t.Errorf("Kind = %q, want %q", apiErr.Kind, utils.KindValidation)
	}
	if apiErr.Message != "Username already taken" {
		t.Errorf("Message = %q, want %q", apiErr.Message, "Username already taken")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUniqueViolationError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{
			name:    "username constraint",
			err:     &pq.Error{Code: "23505", Constraint: "idx_user_profiles_username_lower"},
			wantMsg: "Username already taken",
		},
		{
			name:    "email constraint",
			err:     &pq.Error{Code: "23505", Constraint: "user_profiles_email_key"},
			wantMsg: "Email already registered",
		},
		{name: "foreign key violation", err: &pq.Error{Code: "23503"}, wantMsg: ""},
		{name: "plain error", err: errors.New("connection refused"), wantMsg: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := uniqueViolationError(tt.err)
			if tt.wantMsg == "" {
				if got != nil {
					t.Errorf("uniqueViolationError() = %v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatalf("uniqueViolationError() = nil, want %q", tt.wantMsg)
			}
			if got.Kind != utils.KindValidation {
				t.Errorf("Kind = %q, want %q", got.Kind, utils.KindValidation)
			}
			if got.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", got.Message, tt.wantMsg)
			}
		})
	}
}
