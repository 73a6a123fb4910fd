package jwt

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Signer signs and verifies tokens with a shared HS512 secret.
type Signer struct {
	cfg    Config
	parser *jwt.Parser
}

// NewHS512 rejects secrets shorter than 64 bytes.
func NewHS512(cfg Config) (*Signer, error) {
	if len(cfg.Secret) < minSecretLen {
		return nil, ErrSigningKeyTooShort
	}

	parser := jwt.NewParser(
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithAudience(cfg.Audiences...),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(cfg.Clock.Now),
	)

	return &Signer{cfg: cfg, parser: parser}, nil
}

func (s *Signer) Generate(sub Subject) (string, error) {
	claims := newClaims(sub, s.cfg.UUID.Generate(), s.cfg.Issuer, s.cfg.Audiences, s.cfg.Clock.Now(), s.cfg.TTL)
	return jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(s.cfg.Secret)
}

func (s *Signer) keyFunc(t *jwt.Token) (any, error) {
	if t.Method != jwt.SigningMethodHS512 {
		return nil, ErrInvalidSigningMethod
	}
	return s.cfg.Secret, nil
}

// Verify checks signature, issuer, audience and lifetime against the
// configured clock. Expiry is reported as ErrTokenExpired.
func (s *Signer) Verify(tokenStr string) (Claims, error) {
	var claims Claims

	token, err := s.parser.ParseWithClaims(tokenStr, &claims, s.keyFunc)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return Claims{}, ErrTokenExpired
	case err != nil:
		return Claims{}, err
	case !token.Valid:
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}
