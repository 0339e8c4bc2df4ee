package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/lib/pq"
	"google.golang.org/api/idtoken"

	"github.com/wdmmg/finance-api/models"
	"github.com/wdmmg/finance-api/utils"
)

const uniqueViolation = "23505"

// uniqueViolationError translates a unique violation on user_profiles into
// the user-facing error for whichever constraint lost the race. Returns nil
// for anything that is not a 23505.
func uniqueViolationError(err error) *utils.APIError {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return nil
	}
	if strings.Contains(pqErr.Constraint, "username") {
		return utils.ValidationError("Username already taken")
	}
	return utils.ValidationError("Email already registered")
}

const defaultRefreshTokenTTL = 7 * 24 * time.Hour

type AuthService struct {
	db *sql.DB
}

func NewAuthService(db *sql.DB) *AuthService {
	return &AuthService{db: db}
}

func refreshTokenTTL() time.Duration {
	if v := os.Getenv("REFRESH_TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return defaultRefreshTokenTTL
}

// Signup creates a profile and opens a session. The pre-check on username is
// an optimization; the unique index on lower(username) settles the race, and
// a violation there is reported exactly like a failed pre-check.
func (s *AuthService) Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error) {
	taken, err := s.usernameTaken(ctx, req.Username)
	if err != nil {
		return nil, utils.UnavailableError(err)
	}
	if taken {
		return nil, utils.ValidationError("Username already taken")
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, utils.InternalError(err)
	}

	user := models.UserProfile{
		Username:  req.Username,
		Email:     strings.ToLower(req.Email),
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO user_profiles (username, email, password_hash, first_name, last_name)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, user.Username, user.Email, passwordHash, user.FirstName, user.LastName).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if apiErr := uniqueViolationError(err); apiErr != nil {
			return nil, apiErr
		}
		return nil, utils.UnavailableError(err)
	}

	return s.openSession(ctx, user)
}

// Login verifies credentials. Unknown email and wrong password produce the
// same error so account existence never leaks.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	var user models.UserProfile
	var passwordHash, totpSecret sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, first_name, last_name,
		       totp_secret, totp_enabled, created_at, updated_at
		FROM user_profiles
		WHERE email = $1
	`, strings.ToLower(req.Email)).Scan(
		&user.ID, &user.Username, &user.Email, &passwordHash,
		&user.FirstName, &user.LastName, &totpSecret, &user.TOTPEnabled,
		&user.CreatedAt, &user.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, utils.AuthError("Invalid credentials")
	}
	if err != nil {
		return nil, utils.UnavailableError(err)
	}

	// OAuth-only accounts have no password hash.
	if !passwordHash.Valid || !utils.CheckPassword(req.Password, passwordHash.String) {
		return nil, utils.AuthError("Invalid credentials")
	}

	if user.TOTPEnabled {
		if req.TOTPCode == "" {
			return nil, utils.AuthError("2FA code required")
		}
		valid, err := utils.VerifyTOTP(totpSecret.String, req.TOTPCode)
		if err != nil || !valid {
			return nil, utils.AuthError("Invalid 2FA code")
		}
	}

	return s.openSession(ctx, user)
}

// GoogleExchange validates a Google ID token and signs the caller in,
// creating a profile with a derived username on first login.
func (s *AuthService) GoogleExchange(ctx context.Context, req models.GoogleAuthRequest) (*models.AuthResponse, error) {
	clientID := os.Getenv("GOOGLE_CLIENT_ID")
	if clientID == "" {
		return nil, utils.AuthError("Google authentication is not configured")
	}

	payload, err := idtoken.Validate(ctx, req.IDToken, clientID)
	if err != nil {
		return nil, utils.AuthError("Google authentication failed")
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return nil, utils.AuthError("Google authentication failed")
	}
	email = strings.ToLower(email)

	var user models.UserProfile
	err = s.db.QueryRowContext(ctx, `
		SELECT id, username, email, first_name, last_name, totp_enabled, created_at, updated_at
		FROM user_profiles
		WHERE email = $1
	`, email).Scan(
		&user.ID, &user.Username, &user.Email, &user.FirstName, &user.LastName,
		&user.TOTPEnabled, &user.CreatedAt, &user.UpdatedAt,
	)

	if err == nil {
		return s.openSession(ctx, user)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, utils.UnavailableError(err)
	}

	firstName, _ := payload.Claims["given_name"].(string)
	lastName, _ := payload.Claims["family_name"].(string)
	if req.FirstName != "" {
		firstName = req.FirstName
	}
	if req.LastName != "" {
		lastName = req.LastName
	}

	username := req.Username
	if username != "" {
		if err := utils.ValidateUsername(username); err != nil {
			return nil, err
		}
		taken, err := s.usernameTaken(ctx, username)
		if err != nil {
			return nil, utils.UnavailableError(err)
		}
		if taken {
			return nil, utils.ValidationError("Username already taken")
		}
	} else {
		username, err = s.deriveUsername(ctx, email)
		if err != nil {
			return nil, utils.UnavailableError(err)
		}
	}

	user = models.UserProfile{
		Username:  username,
		Email:     email,
		FirstName: utils.Sanitize(firstName),
		LastName:  utils.Sanitize(lastName),
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO user_profiles (username, email, first_name, last_name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, user.Username, user.Email, user.FirstName, user.LastName).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		// A concurrent first login can lose the race on the email constraint
		// too, not just on the username.
		if apiErr := uniqueViolationError(err); apiErr != nil {
			return nil, apiErr
		}
		return nil, utils.UnavailableError(err)
	}

	return s.openSession(ctx, user)
}

// Refresh rotates the refresh token and mints a new access token. The
// session's own expiry is unchanged, so refresh chains still end when the
// original refresh lifetime runs out.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.AuthResponse, error) {
	var sessionID string
	var user models.UserProfile

	err := s.db.QueryRowContext(ctx, `
		SELECT s.id, u.id, u.username, u.email, u.first_name, u.last_name,
		       u.totp_enabled, u.created_at, u.updated_at
		FROM sessions s
		JOIN user_profiles u ON u.id = s.user_id
		WHERE s.refresh_token = $1 AND s.expires_at > NOW()
	`, refreshToken).Scan(
		&sessionID, &user.ID, &user.Username, &user.Email,
		&user.FirstName, &user.LastName, &user.TOTPEnabled,
		&user.CreatedAt, &user.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, utils.AuthError("Invalid or expired refresh token")
	}
	if err != nil {
		return nil, utils.UnavailableError(err)
	}

	newRefreshToken, err := utils.GenerateRefreshToken()
	if err != nil {
		return nil, utils.InternalError(err)
	}

	if _, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET refresh_token = $1 WHERE id = $2
	`, newRefreshToken, sessionID); err != nil {
		return nil, utils.UnavailableError(err)
	}

	accessToken, err := utils.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, utils.InternalError(err)
	}

	return &models.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		TokenType:    "bearer",
		User:         user,
	}, nil
}

// Logout drops the caller's sessions. Access tokens stay valid until expiry;
// they are short-lived and no revocation list is kept.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
		return utils.UnavailableError(err)
	}
	return nil
}

// Profile loads the caller's profile under the caller's own row-level
// security principal.
func (s *AuthService) Profile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var user models.UserProfile
	err := utils.WithUserTransaction(ctx, s.db, userID, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, `
			SELECT id, username, email, first_name, last_name, totp_enabled, created_at, updated_at
			FROM user_profiles
			WHERE id = $1
		`, userID).Scan(
			&user.ID, &user.Username, &user.Email, &user.FirstName, &user.LastName,
			&user.TOTPEnabled, &user.CreatedAt, &user.UpdatedAt,
		)
	})

	if errors.Is(err, sql.ErrNoRows) {
		return nil, utils.NotFoundError("User profile not found")
	}
	if err != nil {
		return nil, utils.UnavailableError(err)
	}
	return &user, nil
}

// CleanExpiredSessions removes sessions past their expiry. Called
// periodically from main.
func (s *AuthService) CleanExpiredSessions(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < NOW()`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (s *AuthService) usernameTaken(ctx context.Context, username string) (bool, error) {
	var taken bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM user_profiles WHERE LOWER(username) = LOWER($1))
	`, username).Scan(&taken)
	return taken, err
}

var usernameCharStrip = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// deriveUsername builds a unique username from the email local part,
// suffixing a counter while taken.
func (s *AuthService) deriveUsername(ctx context.Context, email string) (string, error) {
	base := usernameCharStrip.ReplaceAllString(strings.SplitN(email, "@", 2)[0], "")
	if len(base) < 3 {
		base = "user"
	}
	if len(base) > 24 {
		base = base[:24]
	}

	candidate := base
	for counter := 1; ; counter++ {
		taken, err := s.usernameTaken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, counter)
	}
}

func (s *AuthService) openSession(ctx context.Context, user models.UserProfile) (*models.AuthResponse, error) {
	accessToken, err := utils.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, utils.InternalError(err)
	}

	refreshToken, err := utils.GenerateRefreshToken()
	if err != nil {
		return nil, utils.InternalError(err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (user_id, refresh_token, expires_at)
		VALUES ($1, $2, $3)
	`, user.ID, refreshToken, time.Now().Add(refreshTokenTTL())); err != nil {
		return nil, utils.UnavailableError(err)
	}

	return &models.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		User:         user,
	}, nil
}
