package config

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
)

func InitDB() (*sql.DB, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

func RunMigrations(db *sql.DB) error {
	migrations := []string{
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

		`CREATE TABLE IF NOT EXISTS user_profiles (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			username VARCHAR(30) NOT NULL,
			email VARCHAR(255) UNIQUE NOT NULL,
			password_hash VARCHAR(255),
			first_name VARCHAR(255) NOT NULL DEFAULT '',
			last_name VARCHAR(255) NOT NULL DEFAULT '',
			totp_secret VARCHAR(255),
			totp_enabled BOOLEAN DEFAULT FALSE,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)`,

		// Case-insensitive uniqueness. The signup pre-check is advisory; this
		// index is the arbiter of the check-then-insert race.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_user_profiles_username_lower
			ON user_profiles (LOWER(username))`,

		`CREATE TABLE IF NOT EXISTS sessions (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			user_id UUID REFERENCES user_profiles(id) ON DELETE CASCADE,
			refresh_token VARCHAR(500) UNIQUE NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS transactions (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			user_id UUID NOT NULL REFERENCES user_profiles(id) ON DELETE CASCADE,
			amount NUMERIC(12,2) NOT NULL CHECK (amount > 0),
			category VARCHAR(100) NOT NULL,
			description TEXT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS budgets (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			user_id UUID NOT NULL REFERENCES user_profiles(id) ON DELETE CASCADE,
			category VARCHAR(100) NOT NULL,
			monthly_limit NUMERIC(12,2) NOT NULL CHECK (monthly_limit > 0),
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE(user_id, category)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_refresh_token ON sessions(refresh_token)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_user_id ON transactions(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_user_timestamp ON transactions(user_id, timestamp DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_budgets_user_id ON budgets(user_id)`,

		// Row-level security: queries run inside a transaction that sets
		// app.current_user_id (see utils.WithUserTransaction). The database
		// enforces ownership independently of the API layer's WHERE clauses.
		// FORCE is required because the application role owns these tables
		// and table owners are otherwise exempt from their own policies.
		`ALTER TABLE transactions ENABLE ROW LEVEL SECURITY`,
		`ALTER TABLE transactions FORCE ROW LEVEL SECURITY`,
		`DROP POLICY IF EXISTS transactions_owner ON transactions`,
		`CREATE POLICY transactions_owner ON transactions
			USING (user_id::text = current_setting('app.current_user_id', true))
			WITH CHECK (user_id::text = current_setting('app.current_user_id', true))`,

		`ALTER TABLE budgets ENABLE ROW LEVEL SECURITY`,
		`ALTER TABLE budgets FORCE ROW LEVEL SECURITY`,
		`DROP POLICY IF EXISTS budgets_owner ON budgets`,
		`CREATE POLICY budgets_owner ON budgets
			USING (user_id::text = current_setting('app.current_user_id', true))
			WITH CHECK (user_id::text = current_setting('app.current_user_id', true))`,

		// user_profiles is also policy-guarded, with one difference: signup,
		// login, Google sign-in and refresh all run before a principal exists,
		// so an unset app.current_user_id passes. Once WithUserTransaction has
		// set the principal, only the caller's own row is visible or writable.
		`ALTER TABLE user_profiles ENABLE ROW LEVEL SECURITY`,
		`ALTER TABLE user_profiles FORCE ROW LEVEL SECURITY`,
		`DROP POLICY IF EXISTS user_profiles_owner ON user_profiles`,
		`CREATE POLICY user_profiles_owner ON user_profiles
			USING (NULLIF(current_setting('app.current_user_id', true), '') IS NULL
				OR id::text = current_setting('app.current_user_id', true))
			WITH CHECK (NULLIF(current_setting('app.current_user_id', true), '') IS NULL
				OR id::text = current_setting('app.current_user_id', true))`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	return nil
}
