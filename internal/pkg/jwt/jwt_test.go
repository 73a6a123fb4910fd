package jwt

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/authgate/internal/pkg/clock"
	"github.com/shandysiswandi/authgate/internal/pkg/uid"
)

func newTestJWT(t *testing.T, c *clock.Fake) *Signer {
	t.Helper()

	j, err := NewHS512(Config{
		Secret:    []byte(strings.Repeat("k", 64)),
		Issuer:    "authgate",
		Audiences: []string{"authgate-cli"},
		TTL:       time.Hour,
		Clock:     c,
		UUID:      uid.NewUUID(),
	})
	if err != nil {
		t.Fatalf("new jwt: %v", err)
	}

	return j
}

func TestGenerateVerify(t *testing.T) {
	// Arrange
	c := clock.NewFake(time.Date(2026, 2, 7, 10, 0, 0, 0, time.UTC))
	j := newTestJWT(t, c)

	// Act
	token, err := j.Generate(Subject{ID: 1, Email: "user@example.com", Name: "user"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := j.Verify(token)

	// Assert
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != 1 || claims.UserEmail != "user@example.com" || claims.UserName != "user" || claims.Subject != "1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyExpired(t *testing.T) {
	c := clock.NewFake(time.Date(2026, 2, 7, 10, 0, 0, 0, time.UTC))
	j := newTestJWT(t, c)
	token, err := j.Generate(Subject{ID: 1, Email: "user@example.com"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	c.Advance(2 * time.Hour)

	if _, err := j.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestShortSecret(t *testing.T) {
	if _, err := NewHS512(Config{Secret: []byte("short")}); !errors.Is(err, ErrSigningKeyTooShort) {
		t.Fatalf("expected ErrSigningKeyTooShort, got %v", err)
	}
}

func TestClaimsHelpers(t *testing.T) {
	now := time.Date(2026, 2, 7, 10, 0, 0, 0, time.UTC)
	j := newTestJWT(t, clock.NewFake(now))
	token, err := j.Generate(Subject{ID: 7, Email: "a@b.co", Name: "a"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := j.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	if got := claims.User(); got != (Subject{ID: 7, Email: "a@b.co", Name: "a"}) {
		t.Fatalf("User() = %+v", got)
	}
	if !claims.Expiry().Equal(now.Add(time.Hour)) {
		t.Fatalf("Expiry() = %v", claims.Expiry())
	}
	if !(Claims{}).Expiry().IsZero() {
		t.Fatalf("empty claims must have zero expiry")
	}
}

func TestVerifyRejectsForeignAudience(t *testing.T) {
	c := clock.NewFake(time.Date(2026, 2, 7, 10, 0, 0, 0, time.UTC))
	other, err := NewHS512(Config{
		Secret:    []byte(strings.Repeat("k", 64)),
		Issuer:    "authgate",
		Audiences: []string{"someone-else"},
		TTL:       time.Hour,
		Clock:     c,
		UUID:      uid.NewUUID(),
	})
	if err != nil {
		t.Fatalf("new jwt: %v", err)
	}
	token, err := other.Generate(Subject{ID: 1, Email: "a@b.co"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := newTestJWT(t, c).Verify(token); err == nil {
		t.Fatalf("expected audience mismatch to fail")
	}
}
