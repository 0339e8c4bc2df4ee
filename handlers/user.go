package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"

	"github.com/wdmmg/finance-api/middleware"
	"github.com/wdmmg/finance-api/models"
	"github.com/wdmmg/finance-api/utils"
)

type UserHandler struct {
	DB *sql.DB
}

// ============================================================================
// PROFILE MANAGEMENT
// ============================================================================

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := utils.ValidateUsername(req.Username); err != nil {
		respondError(c, err)
		return
	}

	var user models.UserProfile
	err := utils.WithUserTransaction(c.Request.Context(), h.DB, userID, func(tx *sql.Tx) error {
		return tx.QueryRowContext(c.Request.Context(), `
			UPDATE user_profiles
			SET username = $1, first_name = $2, last_name = $3, updated_at = NOW()
			WHERE id = $4
			RETURNING id, username, email, first_name, last_name, totp_enabled, created_at, updated_at
		`, req.Username, utils.Sanitize(req.FirstName), utils.Sanitize(req.LastName), userID).Scan(
			&user.ID, &user.Username, &user.Email, &user.FirstName, &user.LastName,
			&user.TOTPEnabled, &user.CreatedAt, &user.UpdatedAt,
		)
	})

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			respondError(c, utils.ValidationError("Username already taken"))
			return
		}
		if errors.Is(err, sql.ErrNoRows) {
			respondError(c, utils.NotFoundError("User profile not found"))
			return
		}
		respondError(c, utils.UnavailableError(err))
		return
	}

	c.JSON(http.StatusOK, user)
}

// ============================================================================
// TWO-FACTOR AUTHENTICATION
// ============================================================================

func (h *UserHandler) SetupTOTP(c *gin.Context) {
	userID := middleware.GetUserID(c)
	email := middleware.GetEmail(c)

	secret, url, err := utils.GenerateTOTPSecret(email)
	if err != nil {
		respondError(c, utils.InternalError(err))
		return
	}

	// Stored but not enabled until the first code is verified.
	err = utils.WithUserTransaction(c.Request.Context(), h.DB, userID, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(c.Request.Context(), `
			UPDATE user_profiles SET totp_secret = $1, totp_enabled = FALSE, updated_at = NOW()
			WHERE id = $2
		`, secret, userID)
		return err
	})
	if err != nil {
		respondError(c, utils.UnavailableError(err))
		return
	}

	c.JSON(http.StatusOK, models.TOTPSetupResponse{Secret: secret, URL: url})
}

func (h *UserHandler) VerifyTOTP(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req models.VerifyTOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	err := utils.WithUserTransaction(c.Request.Context(), h.DB, userID, func(tx *sql.Tx) error {
		var secret sql.NullString
		if err := tx.QueryRowContext(c.Request.Context(), `
			SELECT totp_secret FROM user_profiles WHERE id = $1
		`, userID).Scan(&secret); err != nil {
			return err
		}
		if !secret.Valid {
			return utils.ValidationError("2FA setup has not been started")
		}

		valid, err := utils.VerifyTOTP(secret.String, req.Code)
		if err != nil || !valid {
			return utils.AuthError("Invalid 2FA code")
		}

		_, err = tx.ExecContext(c.Request.Context(), `
			UPDATE user_profiles SET totp_enabled = TRUE, updated_at = NOW() WHERE id = $1
		`, userID)
		return err
	})
	if err != nil {
		respondTOTPError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "2FA enabled successfully"})
}

func (h *UserHandler) DisableTOTP(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req models.VerifyTOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	err := utils.WithUserTransaction(c.Request.Context(), h.DB, userID, func(tx *sql.Tx) error {
		var secret sql.NullString
		err := tx.QueryRowContext(c.Request.Context(), `
			SELECT totp_secret FROM user_profiles WHERE id = $1 AND totp_enabled = TRUE
		`, userID).Scan(&secret)
		if errors.Is(err, sql.ErrNoRows) {
			return utils.ValidationError("2FA is not enabled")
		}
		if err != nil {
			return err
		}

		valid, err := utils.VerifyTOTP(secret.String, req.Code)
		if err != nil || !valid {
			return utils.AuthError("Invalid 2FA code")
		}

		_, err = tx.ExecContext(c.Request.Context(), `
			UPDATE user_profiles SET totp_secret = NULL, totp_enabled = FALSE, updated_at = NOW()
			WHERE id = $1
		`, userID)
		return err
	})
	if err != nil {
		respondTOTPError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "2FA disabled successfully"})
}

// respondTOTPError keeps the client-facing errors raised inside the
// transaction and hides everything else behind a 503.
func respondTOTPError(c *gin.Context, err error) {
	var apiErr *utils.APIError
	if errors.As(err, &apiErr) {
		respondError(c, err)
		return
	}
	respondError(c, utils.UnavailableError(err))
}
