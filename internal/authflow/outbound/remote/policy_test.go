package remote

import (
	"testing"
	"time"

	pqotp "github.com/pquerna/otp"
	"github.com/shandysiswandi/authgate/internal/pkg/clock"
	"github.com/shandysiswandi/authgate/internal/pkg/otp"
)

func TestTOTPPolicy(t *testing.T) {
	// Arrange
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c := clock.NewFake(now)
	gen := otp.NewTOTP("authgate", 30, 1, pqotp.DigitsSix)
	secret, _, err := gen.Generate("a@b.com")
	if err != nil {
		t.Fatalf("generate secret: %v", err)
	}
	code, err := gen.GenerateCode(secret, now)
	if err != nil {
		t.Fatalf("generate code: %v", err)
	}
	policy := TOTP(gen, secret, c)

	// Act & Assert
	if !policy("tok", code) {
		t.Fatalf("current code must be accepted")
	}
	c.Advance(10 * time.Minute)
	if policy("tok", code) {
		t.Fatalf("stale code must be rejected")
	}
}
