package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-key-at-least-32-chars-long"

func TestGenerateAccessToken(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	tests := []struct {
		name   string
		userID string
		email  string
	}{
		{
			name:   "valid user",
			userID: "7a1fcbc0-4f6c-4bc9-9f6d-1f8b2f9a0c11",
			email:  "alice@example.com",
		},
		{
			name:   "empty email",
			userID: "7a1fcbc0-4f6c-4bc9-9f6d-1f8b2f9a0c11",
			email:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := GenerateAccessToken(tt.userID, tt.email)
			if err != nil {
				t.Fatalf("GenerateAccessToken() error = %v", err)
			}
			if token == "" {
				t.Fatal("Generated token is empty")
			}

			claims, err := ValidateToken(token)
			if err != nil {
				t.Fatalf("ValidateToken() error = %v", err)
			}
			if claims.UserID != tt.userID {
				t.Errorf("Claims.UserID = %v, want %v", claims.UserID, tt.userID)
			}
			if claims.Email != tt.email {
				t.Errorf("Claims.Email = %v, want %v", claims.Email, tt.email)
			}
		})
	}
}

func TestGenerateAccessToken_NoSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := GenerateAccessToken("user-1", "a@x.com"); err == nil {
		t.Error("GenerateAccessToken() should fail without JWT_SECRET")
	}
}

func TestValidateToken_Expired(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	claims := Claims{
		UserID: "user-1",
		Email:  "a@x.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	if _, err := ValidateToken(token); err == nil {
		t.Error("ValidateToken() should reject an expired token")
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	token, err := GenerateAccessToken("user-1", "a@x.com")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	t.Setenv("JWT_SECRET", "another-secret-key-also-32-chars-xx")
	if _, err := ValidateToken(token); err == nil {
		t.Error("ValidateToken() should reject a token signed with a different secret")
	}
}

func TestValidateToken_Garbage(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := ValidateToken(token); err == nil {
			t.Errorf("ValidateToken(%q) should fail", token)
		}
	}
}

func TestAccessTokenTTL(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want time.Duration
	}{
		{name: "default", env: "", want: 15 * time.Minute},
		{name: "configured", env: "5m", want: 5 * time.Minute},
		{name: "invalid falls back", env: "soon", want: 15 * time.Minute},
		{name: "negative falls back", env: "-5m", want: 15 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ACCESS_TOKEN_TTL", tt.env)
			if got := AccessTokenTTL(); got != tt.want {
				t.Errorf("AccessTokenTTL() = %v, want %v", got, tt.want)
			}
		})
	}
}
