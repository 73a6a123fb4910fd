package usecase

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/shandysiswandi/authgate/internal/authflow/entity"
	"github.com/shandysiswandi/authgate/internal/pkg/goerror"
	"github.com/shandysiswandi/authgate/internal/pkg/instrument"
)

type FlowDependency struct {
	Session     *SessionStore
	Credentials *CredentialStep
	OTP         *OTPStep
	Instrument  instrument.Instrumentation
}

// Flow sequences the login screen and the OTP challenge. Once the challenge
// verifies, the outcome is read from the session store.
type Flow struct {
	session *SessionStore
	cred    *CredentialStep
	otp     *OTPStep
	ins     instrument.Instrumentation

	life   context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	step  entity.FlowStep
	email string
}

// NewFlow starts at the login step. ctx bounds the lifetime of every step.
func NewFlow(ctx context.Context, dep FlowDependency) *Flow {
	life, cancel := context.WithCancel(ctx)

	return &Flow{
		session: dep.Session,
		cred:    dep.Credentials,
		otp:     dep.OTP,
		ins:     dep.Instrument,
		life:    life,
		cancel:  cancel,
		step:    entity.StepLogin,
	}
}

func (f *Flow) Step() entity.FlowStep {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// Email is the address the OTP challenge was sent for.
func (f *Flow) Email() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.email
}

func (f *Flow) Session() *SessionStore {
	return f.session
}

func (f *Flow) OTP() *OTPStep {
	return f.otp
}

// Authenticated reports whether the session finished the flow.
func (f *Flow) Authenticated() bool {
	return f.session.Snapshot().IsAuthenticated
}

// SubmitCredentials runs the credential step and moves to the OTP challenge.
func (f *Flow) SubmitCredentials(ctx context.Context, email, password string) error {
	ctx, span := startSpan(f.ins, ctx, "Flow.SubmitCredentials")
	defer span.End()

	if err := f.require(entity.StepLogin); err != nil {
		return err
	}

	cred, err := f.cred.Submit(ctx, CredentialInput{Email: email, Password: password})
	if err != nil {
		return err
	}

	if err := f.otp.Start(f.life, *cred); err != nil {
		slog.ErrorContext(ctx, "failed to mount otp step", "email", cred.User.Email, "error", err)
		f.cred.Discard(ctx)
		f.session.SetError(entity.MsgGeneric)
		return err
	}

	f.mu.Lock()
	f.step = entity.StepOTPChallenge
	f.email = strings.TrimSpace(email)
	f.mu.Unlock()

	f.session.ClearError()

	return nil
}

func (f *Flow) Verify(ctx context.Context, code string) error {
	if err := f.require(entity.StepOTPChallenge); err != nil {
		return err
	}
	return f.otp.Verify(ctx, code)
}

func (f *Flow) Resend(ctx context.Context) error {
	if err := f.require(entity.StepOTPChallenge); err != nil {
		return err
	}
	return f.otp.Resend(ctx)
}

// Back leaves the OTP challenge for the login step, discarding the
// provisional credential and any error.
func (f *Flow) Back(ctx context.Context) error {
	if err := f.require(entity.StepOTPChallenge); err != nil {
		return err
	}

	f.otp.Cancel(ctx)
	f.session.ClearError()

	f.mu.Lock()
	f.step = entity.StepLogin
	f.email = ""
	f.mu.Unlock()

	return nil
}

// Close tears the flow down. Late results of in-flight calls are dropped.
func (f *Flow) Close() {
	f.otp.Close()
	f.cancel()
}

func (f *Flow) require(step entity.FlowStep) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step != step {
		return goerror.NewBusinessCause(entity.ErrInvalidState, "Not available on the "+strings.ToLower(f.step.String())+" step", goerror.CodeConflict)
	}
	return nil
}
