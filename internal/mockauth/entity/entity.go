package entity

import (
	"errors"
	"strings"
	"time"
)

// Account is a user the mock backend knows about.
type Account struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
}

// User is the public view of an account returned to clients.
type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// CodePolicy selects how the backend decides which OTP codes are accepted.
type CodePolicy int

const (
	// CodePolicyAny accepts any well-formed code.
	CodePolicyAny CodePolicy = iota
	// CodePolicyFixed accepts a single configured code.
	CodePolicyFixed
	// CodePolicyTOTP accepts the current TOTP code of the challenge secret.
	CodePolicyTOTP
)

// CodePolicyFromString parses "any", "fixed" or "totp"; anything else is CodePolicyAny.
func CodePolicyFromString(s string) CodePolicy {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fixed":
		return CodePolicyFixed
	case "totp":
		return CodePolicyTOTP
	default:
		return CodePolicyAny
	}
}

func (p CodePolicy) String() string {
	switch p {
	case CodePolicyFixed:
		return "fixed"
	case CodePolicyTOTP:
		return "totp"
	default:
		return "any"
	}
}

// Challenge is the server-side state of a pending OTP login, stored under
// the HMAC of the provisional token.
type Challenge struct {
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	Code      string `json:"code,omitempty"`
	Secret    string `json:"secret,omitempty"`
	IssuedAt  int64  `json:"issued_at"`
	ExpiresAt int64  `json:"expires_at"`
}

// Expired reports whether the challenge window closed at now.
func (c Challenge) Expired(now time.Time) bool {
	return now.UnixMilli() >= c.ExpiresAt
}

func (c Challenge) User() User {
	return User{ID: c.UserID, Email: c.Email, Name: c.Name}
}

var (
	ErrChallengeNotFound = errors.New("mockauth: challenge not found")
	ErrChallengeExpired  = errors.New("mockauth: challenge expired")
)
