package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/authgate/internal/mockauth/entity"
	"github.com/shandysiswandi/authgate/internal/pkg/goerror"
)

type LoginInput struct {
	Email    string `validate:"required,email_address"`
	Password string `validate:"required"`
}

type LoginOutput struct {
	Token       string
	User        entity.User
	RequiresOTP bool
	OTPExpiry   time.Time
	DevCode     string
}

func (s *Usecase) Login(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "Login")
	defer span.End()

	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	var user entity.User
	acc, ok := s.account(in.Email)
	switch {
	case ok:
		if !s.password.Verify(acc.PasswordHash, in.Password) {
			slog.WarnContext(ctx, "password user account not match", "user_id", acc.ID)
			return nil, goerror.NewBusiness(msgInvalidCredentials, goerror.CodeUnauthorized)
		}
		user = entity.User{ID: acc.ID, Email: acc.Email, Name: acc.Name}

	case s.cfg.GetBool("modules.mockauth.accept_any_credentials"):
		name, _, _ := strings.Cut(in.Email, "@")
		user = entity.User{ID: s.guestID(in.Email), Email: in.Email, Name: name}

	default:
		slog.WarnContext(ctx, "user account not found", "email", in.Email)
		return nil, goerror.NewBusiness(msgInvalidCredentials, goerror.CodeUnauthorized)
	}

	token := s.tokens.Generate()
	ch, devCode, err := s.issueChallenge(ctx, token, user)
	if err != nil {
		slog.ErrorContext(ctx, "failed to issue otp challenge", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &LoginOutput{
		Token:       token,
		User:        user,
		RequiresOTP: true,
		OTPExpiry:   time.UnixMilli(ch.ExpiresAt),
		DevCode:     devCode,
	}, nil
}
