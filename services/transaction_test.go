package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/wdmmg/finance-api/models"
	"github.com/wdmmg/finance-api/utils"
)

const (
	testUserID = "11111111-1111-1111-1111-111111111111"
	testRowID  = "22222222-2222-2222-2222-222222222222"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func expectUserTransaction(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectExec("set_config").WithArgs(testUserID).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func assertNotFound(t *testing.T, err error) {
	t.Helper()
	var apiErr *utils.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want APIError", err)
	}
	if apiErr.Kind != utils.KindNotFound {
		t.Errorf("Kind = %q, want %q", apiErr.Kind, utils.KindNotFound)
	}
}

// A row another user owns scans exactly like a row that does not exist: the
// user_id predicate hides it and the caller sees a not-found, never a 403.
func TestGetForeignRowReadsAsNotFound(t *testing.T) {
	db, mock := newMockDB(t)

	expectUserTransaction(mock)
	mock.ExpectQuery("FROM transactions").WithArgs(testRowID, testUserID).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := NewTransactionService(db).Get(context.Background(), testUserID, testRowID)
	assertNotFound(t, err)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// A rollback failure wraps the row error; the missing row must still map to
// a not-found rather than a 503.
func TestGetNotFoundSurvivesRollbackFailure(t *testing.T) {
	db, mock := newMockDB(t)

	expectUserTransaction(mock)
	mock.ExpectQuery("FROM transactions").WithArgs(testRowID, testUserID).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback().WillReturnError(errors.New("connection reset"))

	_, err := NewTransactionService(db).Get(context.Background(), testUserID, testRowID)
	assertNotFound(t, err)
}

func TestUpdateMissingRowIsNotFound(t *testing.T) {
	db, mock := newMockDB(t)

	expectUserTransaction(mock)
	mock.ExpectQuery("SELECT timestamp FROM transactions").WithArgs(testRowID, testUserID).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := NewTransactionService(db).Update(context.Background(), testUserID, testRowID,
		models.TransactionRequest{Amount: 12.50, Category: "Food", Description: "lunch"})
	assertNotFound(t, err)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDeleteMissingRowIsNotFound(t *testing.T) {
	db, mock := newMockDB(t)

	expectUserTransaction(mock)
	mock.ExpectExec("DELETE FROM transactions").WithArgs(testRowID, testUserID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := NewTransactionService(db).Delete(context.Background(), testUserID, testRowID)
	assertNotFound(t, err)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
