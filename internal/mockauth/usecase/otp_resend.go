package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/authgate/internal/pkg/goerror"
)

type ResendOTPInput struct {
	Token string `validate:"required"`
}

type ResendOTPOutput struct {
	OTPExpiry time.Time
	DevCode   string
}

// ResendOTP replaces the challenge of a pending login. Expired challenges
// can be renewed as long as their record is still kept.
func (s *Usecase) ResendOTP(ctx context.Context, in ResendOTPInput) (*ResendOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "ResendOTP")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	ch, _, err := s.loadChallenge(ctx, in.Token)
	if err != nil {
		return nil, challengeError(ctx, err)
	}

	next, devCode, err := s.issueChallenge(ctx, in.Token, ch.User())
	if err != nil {
		slog.ErrorContext(ctx, "failed to reissue otp challenge", "user_id", ch.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ResendOTPOutput{OTPExpiry: time.UnixMilli(next.ExpiresAt), DevCode: devCode}, nil
}
