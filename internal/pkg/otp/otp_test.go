package otp

import (
	"regexp"
	"testing"
	"time"

	libotp "github.com/pquerna/otp"
)

func TestRandomCode(t *testing.T) {
	re := regexp.MustCompile(`^\d{6}$`)
	gen := NewRandomCode(6)

	for range 50 {
		code, err := gen.NewCode()
		if err != nil {
			t.Fatalf("new code: %v", err)
		}
		if !re.MatchString(code) {
			t.Fatalf("code %q is not 6 digits", code)
		}
	}
}

func TestTOTPRoundTrip(t *testing.T) {
	// Arrange
	totp := NewTOTP("authgate", 30, 1, libotp.DigitsSix)
	secret, uri, err := totp.Generate("user@example.com")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if secret == "" || uri == "" {
		t.Fatalf("expected secret and uri")
	}
	at := time.Date(2026, 2, 7, 10, 0, 0, 0, time.UTC)

	// Act
	code, err := totp.GenerateCode(secret, at)

	// Assert
	if err != nil {
		t.Fatalf("generate code: %v", err)
	}
	if !totp.Validate(code, secret, at) {
		t.Fatalf("expected code to validate")
	}
	if totp.Validate(code, secret, at.Add(10*time.Minute)) {
		t.Fatalf("expected code to be rejected much later")
	}
}
