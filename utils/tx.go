package utils

import (
	"context"
	"database/sql"
	"fmt"
)

// WithUserTransaction runs fn inside a transaction with the authenticated
// user set as the row-level-security principal. Policies on transactions,
// budgets and user_profiles check current_setting('app.current_user_id'), so
// queries issued through fn are scoped by the database independently of any
// WHERE clause.
func WithUserTransaction(ctx context.Context, db *sql.DB, userID string, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `SELECT set_config('app.current_user_id', $1, true)`, userID); err != nil {
		tx.Rollback()
		return err
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	return tx.Commit()
}
