package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/authgate/internal/mockauth/entity"
	"github.com/shandysiswandi/authgate/internal/pkg/goerror"
	"github.com/shandysiswandi/authgate/internal/pkg/jwt"
)

type VerifyOTPInput struct {
	Token string `validate:"required"`
	OTP   string `validate:"required,otp"`
}

type VerifyOTPOutput struct {
	Token string
	User  entity.User
}

func (s *Usecase) VerifyOTP(ctx context.Context, in VerifyOTPInput) (*VerifyOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyOTP")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	ch, key, err := s.loadChallenge(ctx, in.Token)
	if err != nil {
		return nil, challengeError(ctx, err)
	}

	now := s.clock.Now()
	if ch.Expired(now) {
		slog.WarnContext(ctx, "otp challenge expired", "user_id", ch.UserID)
		return nil, goerror.NewBusinessCause(entity.ErrChallengeExpired, msgOTPExpired, goerror.CodeExpired)
	}

	if !s.accepts(ch, in.OTP, now) {
		slog.WarnContext(ctx, "otp code not match", "user_id", ch.UserID)
		return nil, goerror.NewBusiness(msgInvalidOTP, goerror.CodeUnauthorized)
	}

	token, err := s.jwt.Generate(jwt.Subject{ID: ch.UserID, Email: ch.Email, Name: ch.Name})
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access jwt token", "user_id", ch.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.storage.Delete(ctx, key); err != nil {
		slog.ErrorContext(ctx, "failed to delete otp challenge", "user_id", ch.UserID, "error", err)
	}

	return &VerifyOTPOutput{Token: token, User: ch.User()}, nil
}
