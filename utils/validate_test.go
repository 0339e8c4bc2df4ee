package utils

import (
	"strings"
	"testing"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{name: "valid", username: "alice", wantErr: false},
		{name: "valid with underscore and digits", username: "alice_42", wantErr: false},
		{name: "minimum length", username: "abc", wantErr: false},
		{name: "maximum length", username: strings.Repeat("a", 30), wantErr: false},
		{name: "too short", username: "ab", wantErr: true},
		{name: "too long", username: strings.Repeat("a", 31), wantErr: true},
		{name: "empty", username: "", wantErr: true},
		{name: "spaces", username: "alice smith", wantErr: true},
		{name: "hyphen", username: "alice-smith", wantErr: true},
		{name: "special characters", username: "alice!", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateUsername(%q) error = %v, wantErr %v", tt.username, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "valid", password: "Passw0rd!", wantErr: false},
		{name: "too short", password: "Pw0rd!", wantErr: true},
		{name: "no uppercase", password: "passw0rd!", wantErr: true},
		{name: "no lowercase", password: "PASSW0RD!", wantErr: true},
		{name: "no digit", password: "Password!", wantErr: true},
		{name: "no special character", password: "Passw0rd1", wantErr: true},
		{name: "empty", password: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePassword(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePassword_ReportsAllViolations(t *testing.T) {
	err := ValidatePassword("abc")
	if err == nil {
		t.Fatal("ValidatePassword() should fail")
	}

	msg := err.Error()
	for _, rule := range []string{"8 characters", "uppercase", "digit", "special"} {
		if !strings.Contains(msg, rule) {
			t.Errorf("error %q should mention %q", msg, rule)
		}
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain text", input: "lunch", want: "lunch"},
		{name: "trims whitespace", input: "  lunch  ", want: "lunch"},
		{name: "strips tags", input: "<script>alert(1)</script>lunch", want: "alert(1)lunch"},
		{name: "strips nested tags", input: "<b><i>bold</i></b>", want: "bold"},
		{name: "escapes specials", input: `a "quoted" & <b>`, want: "a &#34;quoted&#34; &amp;"},
		{name: "only tags", input: "<img src=x onerror=alert(1)>", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
