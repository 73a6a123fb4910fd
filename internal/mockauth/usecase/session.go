package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/authgate/internal/mockauth/entity"
	"github.com/shandysiswandi/authgate/internal/pkg/goerror"
	"github.com/shandysiswandi/authgate/internal/pkg/jwt"
)

type SessionInput struct {
	Token string `validate:"required"`
}

type SessionOutput struct {
	User      entity.User
	ExpiresAt time.Time
}

// Session introspects a session token issued by VerifyOTP.
func (s *Usecase) Session(ctx context.Context, in SessionInput) (*SessionOutput, error) {
	ctx, span := s.startSpan(ctx, "Session")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	claims, err := s.jwt.Verify(in.Token)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, goerror.NewBusinessCause(err, msgInvalidSession, goerror.CodeExpired)
	}
	if err != nil {
		slog.WarnContext(ctx, "session token rejected", "error", err)
		return nil, goerror.NewBusinessCause(err, msgInvalidSession, goerror.CodeUnauthorized)
	}

	u := claims.User()
	return &SessionOutput{
		User:      entity.User{ID: u.ID, Email: u.Email, Name: u.Name},
		ExpiresAt: claims.Expiry(),
	}, nil
}
