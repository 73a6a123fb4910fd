package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/authgate/internal/authflow/entity"
	"github.com/shandysiswandi/authgate/internal/pkg/clock"
	"github.com/shandysiswandi/authgate/internal/pkg/goerror"
	"github.com/shandysiswandi/authgate/internal/pkg/instrument"
	"github.com/shandysiswandi/authgate/internal/pkg/retry"
	"github.com/shandysiswandi/authgate/internal/pkg/validator"
)

// DefaultProvisionalTTL bounds the staged login when the remote reports no OTP expiry.
const DefaultProvisionalTTL = 5 * time.Minute

type CredentialInput struct {
	Email    string `validate:"required,email_address"`
	Password string `validate:"required"`
}

type CredentialDependency struct {
	Session        *SessionStore
	Repo           repoPersist
	Remote         RemoteAuth
	Validator      validator.Validator
	Clock          clock.Clocker
	Instrument     instrument.Instrumentation
	Policy         retry.Policy
	ProvisionalTTL time.Duration
}

// CredentialStep exchanges an email and password for a provisional credential.
type CredentialStep struct {
	session        *SessionStore
	repo           repoPersist
	remote         RemoteAuth
	validator      validator.Validator
	clock          clock.Clocker
	ins            instrument.Instrumentation
	policy         retry.Policy
	provisionalTTL time.Duration
}

func NewCredentialStep(dep CredentialDependency) *CredentialStep {
	if dep.ProvisionalTTL <= 0 {
		dep.ProvisionalTTL = DefaultProvisionalTTL
	}

	return &CredentialStep{
		session:        dep.Session,
		repo:           dep.Repo,
		remote:         dep.Remote,
		validator:      dep.Validator,
		clock:          dep.Clock,
		ins:            dep.Instrument,
		policy:         dep.Policy,
		provisionalTTL: dep.ProvisionalTTL,
	}
}

// Submit sends the credentials. On success the result is staged and the
// session holds the provisional token without being authenticated.
func (s *CredentialStep) Submit(ctx context.Context, in CredentialInput) (*entity.ProvisionalCredential, error) {
	ctx, span := startSpan(s.ins, ctx, "CredentialStep.Submit")
	defer span.End()

	in.Email = strings.TrimSpace(in.Email)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	s.session.ClearError()
	s.session.SetLoading(true)

	cred, err := callRemote(ctx, s.policy, func(ctx context.Context) (*entity.ProvisionalCredential, error) {
		return s.remote.Login(ctx, in.Email, in.Password)
	})
	if err == nil && (cred == nil || cred.Token == "" || cred.User == nil) {
		err = errors.New("login response without token or user")
	}
	if err != nil {
		return nil, s.fail(ctx, in.Email, err)
	}

	if err := s.repo.SaveProvisional(ctx, *cred, s.stagingTTL(cred)); err != nil {
		slog.ErrorContext(ctx, "failed to repo stage provisional credential", "email", in.Email, "error", err)
	}

	s.session.SetUser(cred.User)
	s.session.SetToken(cred.Token)
	s.session.SetAuthenticated(false)
	s.session.SetLoading(false)

	return cred, nil
}

// Discard drops a staged login that can no longer continue. An
// authenticated session is left alone.
func (s *CredentialStep) Discard(ctx context.Context) {
	if err := s.repo.DeleteProvisional(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to repo discard provisional credential", "error", err)
	}
	if !s.session.Snapshot().IsAuthenticated {
		s.session.SetToken("")
		s.session.SetUser(nil)
	}
}

func (s *CredentialStep) stagingTTL(cred *entity.ProvisionalCredential) time.Duration {
	if cred.OTPExpiry > 0 {
		if ttl := time.UnixMilli(cred.OTPExpiry).Sub(s.clock.Now()); ttl > 0 {
			return ttl
		}
	}
	return s.provisionalTTL
}

func (s *CredentialStep) fail(ctx context.Context, email string, err error) error {
	if derr := s.repo.DeleteProvisional(ctx); derr != nil {
		slog.ErrorContext(ctx, "failed to repo discard provisional credential", "email", email, "error", derr)
	}
	s.session.SetLoading(false)

	switch {
	case errors.Is(err, entity.ErrInvalidCredentials):
		slog.WarnContext(ctx, "login rejected by remote", "email", email)
		s.session.SetError(entity.MsgInvalidCredentials)
		return goerror.NewBusinessCause(err, entity.MsgInvalidCredentials, goerror.CodeUnauthorized)

	case errors.Is(err, entity.ErrRemoteUnavailable):
		slog.ErrorContext(ctx, "login failed after retries", "email", email, "error", err)
		s.session.SetError(entity.MsgNetwork)
		return goerror.NewUnavailable(err, entity.MsgNetwork)

	case isCancelled(err):
		return goerror.NewBusinessCause(errors.Join(entity.ErrStepCancelled, err), "Login was cancelled", goerror.CodeTimeout)

	default:
		slog.ErrorContext(ctx, "failed to remote login", "email", email, "error", err)
		s.session.SetError(entity.MsgGeneric)
		return goerror.NewServer(err)
	}
}
