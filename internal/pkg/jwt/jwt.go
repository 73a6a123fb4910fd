// Package jwt issues and verifies the HS512 session tokens handed out after a
// successful one-time-password check.
package jwt

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// minSecretLen is the HS512 block size in bytes.
const minSecretLen = 64

var (
	ErrInvalidSigningMethod = errors.New("invalid JWT signing method")
	ErrSigningKeyTooShort   = errors.New("HS512 signing key must be at least 64 bytes (512 bits)")
	ErrTokenExpired         = errors.New("JWT token has expired")
	ErrInvalidToken         = errors.New("invalid token")
)

// JWT issues a session token for a verified user and reads it back.
type JWT interface {
	Generate(sub Subject) (string, error)
	Verify(tokenStr string) (Claims, error)
}

type clocker interface {
	Now() time.Time
}

type generator interface {
	Generate() string
}

// Subject is the user a session token is issued for.
type Subject struct {
	ID    int64
	Email string
	Name  string
}

type Config struct {
	Secret    []byte
	Issuer    string
	Audiences []string
	TTL       time.Duration
	Clock     clocker
	// UUID generates the jti of every token.
	UUID generator
}

// Claims is the session payload on top of the registered claims.
type Claims struct {
	jwt.RegisteredClaims
	UserID    int64  `json:"user_id,string"`
	UserEmail string `json:"user_email"`
	UserName  string `json:"user_name,omitempty"`
}

func newClaims(sub Subject, id, issuer string, aud []string, now time.Time, ttl time.Duration) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Subject:   strconv.FormatInt(sub.ID, 10),
			Issuer:    issuer,
			Audience:  aud,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:    sub.ID,
		UserEmail: sub.Email,
		UserName:  sub.Name,
	}
}

// User returns the identity the token was issued for.
func (c Claims) User() Subject {
	return Subject{ID: c.UserID, Email: c.UserEmail, Name: c.UserName}
}

// Expiry is the exp claim, or the zero time when it is absent.
func (c Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}
