package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shandysiswandi/authgate/internal/authflow/entity"
	"github.com/shandysiswandi/authgate/internal/pkg/clock"
	"github.com/shandysiswandi/authgate/internal/pkg/goerror"
	"github.com/shandysiswandi/authgate/internal/pkg/instrument"
	"github.com/shandysiswandi/authgate/internal/pkg/otp"
	"github.com/shandysiswandi/authgate/internal/pkg/retry"
	"github.com/shandysiswandi/authgate/internal/pkg/validator"
)

type OTPInput struct {
	OTP string `validate:"required,otp"`
}

type OTPOptions struct {
	Window       time.Duration
	MaxAttempts  int
	LockoutDelay time.Duration
	TickInterval time.Duration
	// DevMode exposes the issued code in views.
	DevMode      bool
	VerifyPolicy retry.Policy
	ResendPolicy retry.Policy
}

func (o OTPOptions) withDefaults() OTPOptions {
	if o.Window <= 0 {
		o.Window = entity.DefaultOTPWindow
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = entity.DefaultMaxAttempts
	}
	if o.LockoutDelay <= 0 {
		o.LockoutDelay = entity.DefaultLockoutDelay
	}
	if o.TickInterval <= 0 {
		o.TickInterval = time.Second
	}
	return o
}

type OTPDependency struct {
	Session    *SessionStore
	Repo       repoPersist
	Remote     RemoteAuth
	Validator  validator.Validator
	Codes      otp.CodeGenerator
	Clock      clock.Clock
	Instrument instrument.Instrumentation
	Options    OTPOptions
	// ResendOverride replaces the remote resend call when set.
	ResendOverride func(ctx context.Context) error
}

// OTPStep runs one challenge at a time through ACTIVE, EXPIRED, LOCKED and
// VERIFIED. Timer callbacks and remote results carry the generation they
// were started under and are dropped once the challenge is replaced.
type OTPStep struct {
	session        *SessionStore
	repo           repoPersist
	remote         RemoteAuth
	validator      validator.Validator
	codes          otp.CodeGenerator
	clock          clock.Clock
	ins            instrument.Instrumentation
	opts           OTPOptions
	resendOverride func(ctx context.Context) error

	mu        sync.Mutex
	mounted   bool
	busy      bool
	gen       uint64
	challenge entity.Challenge
	// remoteCode is the code the backend reported in development mode. It
	// takes precedence over the locally issued one in views.
	remoteCode string
	prov       *entity.ProvisionalCredential
	tick       clock.Timer
	lockout    clock.Timer
	life       context.Context
	cancel     context.CancelFunc
	subs       map[int]func(entity.OTPView)
	nextID     int
}

func NewOTPStep(dep OTPDependency) *OTPStep {
	return &OTPStep{
		session:        dep.Session,
		repo:           dep.Repo,
		remote:         dep.Remote,
		validator:      dep.Validator,
		codes:          dep.Codes,
		clock:          dep.Clock,
		ins:            dep.Instrument,
		opts:           dep.Options.withDefaults(),
		resendOverride: dep.ResendOverride,
		subs:           make(map[int]func(entity.OTPView)),
	}
}

// Start mounts the step for cred and issues the first challenge. The step
// lives until ctx is done, Cancel or Close.
func (s *OTPStep) Start(ctx context.Context, cred entity.ProvisionalCredential) error {
	code, err := s.codes.NewCode()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp code", "error", err)
		return goerror.NewServer(err)
	}

	s.mu.Lock()
	if s.mounted {
		s.unmountLocked()
	}
	s.life, s.cancel = context.WithCancel(ctx)
	s.prov = &cred
	s.remoteCode = cred.DevCode
	s.mounted = true
	s.issueLocked(code)
	view := s.viewLocked()
	s.mu.Unlock()

	s.publish(view)

	return nil
}

// Verify submits code for the live challenge.
func (s *OTPStep) Verify(ctx context.Context, code string) error {
	ctx, span := startSpan(s.ins, ctx, "OTPStep.Verify")
	defer span.End()

	if err := s.validator.Validate(OTPInput{OTP: code}); err != nil {
		return goerror.NewInvalidInput(err)
	}

	s.mu.Lock()
	if !s.mounted {
		s.mu.Unlock()
		return goerror.NewBusinessCause(entity.ErrInvalidState, "No OTP challenge in progress", goerror.CodeConflict)
	}
	if s.busy {
		s.mu.Unlock()
		return goerror.NewBusinessCause(entity.ErrBusy, "Please wait for the current request", goerror.CodeConflict)
	}

	changed := s.refreshLocked()
	state := s.challenge.State
	view := s.viewLocked()
	if state != entity.ChallengeActive {
		s.mu.Unlock()
		if changed {
			s.publish(view)
		}
		return s.rejectState(ctx, state)
	}

	gen, token, life := s.gen, s.prov.Token, s.life
	s.busy = true
	s.mu.Unlock()

	s.session.ClearError()
	s.session.SetLoading(true)

	callCtx, release := bindLifetime(ctx, life)
	res, err := callRemote(callCtx, s.opts.VerifyPolicy, func(ctx context.Context) (*entity.Verification, error) {
		return s.remote.VerifyOTP(ctx, token, code)
	})
	release()

	s.mu.Lock()
	if !s.mounted || gen != s.gen {
		idle := !s.busy
		s.mu.Unlock()
		slog.WarnContext(ctx, "dropping otp verification result for a replaced challenge")
		if idle {
			s.session.SetLoading(false)
		}
		return goerror.NewBusinessCause(entity.ErrStepCancelled, "OTP step was cancelled", goerror.CodeConflict)
	}
	s.busy = false

	if err == nil {
		if res == nil {
			res = &entity.Verification{Success: true}
		}
		return s.succeed(ctx, res)
	}

	switch {
	case errors.Is(err, entity.ErrRemoteUnavailable):
		s.mu.Unlock()
		slog.ErrorContext(ctx, "otp verification failed after retries", "error", err)
		s.session.SetLoading(false)
		s.session.SetError(entity.MsgNetwork)
		return goerror.NewUnavailable(err, entity.MsgNetwork)

	case isCancelled(err):
		s.mu.Unlock()
		s.session.SetLoading(false)
		return goerror.NewBusinessCause(errors.Join(entity.ErrStepCancelled, err), "OTP verification was cancelled", goerror.CodeTimeout)

	case errors.Is(err, entity.ErrOTPExpired):
		s.expireLocked()
		view = s.viewLocked()
		s.mu.Unlock()
		s.publish(view)
		s.session.SetLoading(false)
		s.session.SetError(entity.MsgOTPExpired)
		return goerror.NewBusinessCause(err, entity.MsgOTPExpired, goerror.CodeExpired)

	case errors.Is(err, entity.ErrInvalidOTP), errors.Is(err, entity.ErrTooManyAttempts):
		return s.countRejection(ctx, err)

	default:
		s.mu.Unlock()
		slog.ErrorContext(ctx, "failed to remote verify otp", "error", err)
		s.session.SetLoading(false)
		s.session.SetError(entity.MsgGeneric)
		return goerror.NewServer(err)
	}
}

// succeed is entered with s.mu held and releases it.
func (s *OTPStep) succeed(ctx context.Context, res *entity.Verification) error {
	s.challenge.State = entity.ChallengeVerified
	s.stopTimersLocked()
	prov := s.prov
	s.prov = nil
	view := s.viewLocked()
	s.mu.Unlock()

	s.publish(view)

	user, token := res.User, res.Token
	if user == nil {
		user = prov.User
	}
	if token == "" {
		token = prov.Token
	}

	s.session.SetUser(user)
	s.session.SetToken(token)
	s.session.SetAuthenticated(true)
	s.session.SetLoading(false)

	if err := s.session.Persist(ctx); err != nil {
		slog.ErrorContext(ctx, "authenticated session was not persisted", "error", err)
	}
	if err := s.repo.DeleteProvisional(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to repo discard provisional credential", "error", err)
	}

	return nil
}

// countRejection is entered with s.mu held and releases it.
func (s *OTPStep) countRejection(ctx context.Context, cause error) error {
	s.challenge.AttemptCount++
	if errors.Is(cause, entity.ErrTooManyAttempts) {
		s.challenge.AttemptCount = s.challenge.MaxAttempts
	}
	attempts := s.challenge.AttemptCount

	msg, code, err := entity.MsgInvalidOTP, goerror.CodeUnauthorized, cause
	if s.challenge.Exhausted() {
		s.challenge.State = entity.ChallengeLocked
		s.stopTimersLocked()
		gen := s.gen
		s.lockout = s.clock.AfterFunc(s.opts.LockoutDelay, func() { s.reissue(gen) })

		msg, code = entity.MsgTooManyAttempts, goerror.CodeTooManyRequest
		if !errors.Is(cause, entity.ErrTooManyAttempts) {
			err = fmt.Errorf("%w: %w", entity.ErrTooManyAttempts, cause)
		}
	}
	view := s.viewLocked()
	s.mu.Unlock()

	s.publish(view)
	slog.WarnContext(ctx, "otp rejected", "attempt", attempts, "max_attempts", view.MaxAttempts)

	if derr := s.repo.DeleteProvisional(ctx); derr != nil {
		slog.ErrorContext(ctx, "failed to repo discard provisional credential", "error", derr)
	}
	s.session.SetLoading(false)
	s.session.SetError(msg)

	return goerror.NewBusinessCause(err, msg, code)
}

func (s *OTPStep) rejectState(ctx context.Context, state entity.ChallengeState) error {
	switch state {
	case entity.ChallengeExpired:
		slog.WarnContext(ctx, "otp submitted after expiry")
		s.session.SetError(entity.MsgOTPExpired)
		return goerror.NewBusinessCause(entity.ErrOTPExpired, entity.MsgOTPExpired, goerror.CodeExpired)
	case entity.ChallengeLocked:
		s.session.SetError(entity.MsgTooManyAttempts)
		return goerror.NewBusinessCause(entity.ErrTooManyAttempts, entity.MsgTooManyAttempts, goerror.CodeTooManyRequest)
	default:
		return goerror.NewBusinessCause(entity.ErrInvalidState, "OTP already verified", goerror.CodeConflict)
	}
}

// Resend asks for a new code. A failure leaves the current challenge as it was.
func (s *OTPStep) Resend(ctx context.Context) error {
	ctx, span := startSpan(s.ins, ctx, "OTPStep.Resend")
	defer span.End()

	s.mu.Lock()
	if !s.mounted || s.challenge.State == entity.ChallengeVerified {
		s.mu.Unlock()
		return goerror.NewBusinessCause(entity.ErrInvalidState, "No OTP challenge to resend", goerror.CodeConflict)
	}
	if s.busy {
		s.mu.Unlock()
		return goerror.NewBusinessCause(entity.ErrBusy, "Please wait for the current request", goerror.CodeConflict)
	}
	gen, token, life := s.gen, s.prov.Token, s.life
	s.busy = true
	s.mu.Unlock()

	s.session.SetLoading(true)

	callCtx, release := bindLifetime(ctx, life)
	var res *entity.Resend
	var err error
	if s.resendOverride != nil {
		err = s.resendOverride(callCtx)
	} else {
		res, err = callRemote(callCtx, s.opts.ResendPolicy, func(ctx context.Context) (*entity.Resend, error) {
			return s.remote.ResendOTP(ctx, token)
		})
	}
	release()

	var code string
	if err == nil {
		code, err = s.codes.NewCode()
	}

	s.mu.Lock()
	if !s.mounted || gen != s.gen {
		idle := !s.busy
		s.mu.Unlock()
		slog.WarnContext(ctx, "dropping otp resend result for a replaced challenge")
		if idle {
			s.session.SetLoading(false)
		}
		return goerror.NewBusinessCause(entity.ErrStepCancelled, "OTP step was cancelled", goerror.CodeConflict)
	}
	s.busy = false
	if err != nil {
		s.mu.Unlock()
		slog.WarnContext(ctx, "otp resend failed", "error", err)
		s.session.SetLoading(false)
		s.session.SetError(entity.MsgResendFailed)
		return goerror.NewBusinessCause(fmt.Errorf("%w: %w", entity.ErrResendFailed, err), entity.MsgResendFailed, goerror.CodeUnavailable)
	}

	if res != nil {
		if res.OTPExpiry > 0 {
			s.prov.OTPExpiry = res.OTPExpiry
		}
		s.remoteCode = res.DevCode
	}
	s.issueLocked(code)
	view := s.viewLocked()
	s.mu.Unlock()

	s.publish(view)
	s.session.SetLoading(false)
	s.session.ClearError()

	return nil
}

// Cancel aborts the step and discards the challenge and the provisional
// credential. The persisted session is not touched.
func (s *OTPStep) Cancel(ctx context.Context) {
	s.mu.Lock()
	if !s.mounted {
		s.mu.Unlock()
		return
	}
	s.unmountLocked()
	s.mu.Unlock()

	if err := s.repo.DeleteProvisional(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to repo discard provisional credential", "error", err)
	}

	s.session.SetLoading(false)
	if !s.session.Snapshot().IsAuthenticated {
		s.session.SetToken("")
		s.session.SetUser(nil)
	}
}

// Close unmounts the step: timers stop, in-flight calls are cancelled and
// subscribers are dropped. Staged records are kept.
func (s *OTPStep) Close() {
	s.mu.Lock()
	if s.mounted {
		s.unmountLocked()
	}
	s.subs = make(map[int]func(entity.OTPView))
	s.mu.Unlock()
}

// View returns the live challenge and whether the step is mounted.
func (s *OTPStep) View() (entity.OTPView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.mounted {
		return entity.OTPView{}, false
	}
	return s.viewLocked(), true
}

// IssuedCode returns the code of the active challenge, or "" when none is active.
func (s *OTPStep) IssuedCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.mounted || s.challenge.State != entity.ChallengeActive {
		return ""
	}
	return s.challenge.Code
}

// Subscribe registers fn to receive a view after every tick and transition.
func (s *OTPStep) Subscribe(fn func(entity.OTPView)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *OTPStep) onTick(gen uint64) {
	s.mu.Lock()
	if !s.mounted || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.refreshLocked()
	if s.challenge.State == entity.ChallengeActive {
		s.armTickLocked()
	}
	view := s.viewLocked()
	s.mu.Unlock()

	s.publish(view)
}

func (s *OTPStep) reissue(gen uint64) {
	s.mu.Lock()
	if !s.mounted || gen != s.gen || s.challenge.State != entity.ChallengeLocked {
		s.mu.Unlock()
		return
	}
	code, err := s.codes.NewCode()
	if err != nil {
		s.mu.Unlock()
		slog.Error("failed to generate otp code after lockout", "error", err)
		return
	}
	s.issueLocked(code)
	view := s.viewLocked()
	s.mu.Unlock()

	s.publish(view)
}

func (s *OTPStep) issueLocked(code string) {
	s.stopTimersLocked()
	s.gen++
	s.challenge = entity.NewChallenge(code, s.clock.Now(), s.opts.Window, s.opts.MaxAttempts)
	s.armTickLocked()
}

func (s *OTPStep) armTickLocked() {
	gen := s.gen
	s.tick = s.clock.AfterFunc(s.opts.TickInterval, func() { s.onTick(gen) })
}

// refreshLocked derives the state from the clock and reports a transition.
func (s *OTPStep) refreshLocked() bool {
	if s.challenge.State == entity.ChallengeActive && s.challenge.Elapsed(s.clock.Now()) {
		s.expireLocked()
		return true
	}
	return false
}

func (s *OTPStep) expireLocked() {
	s.challenge.State = entity.ChallengeExpired
	if s.tick != nil {
		s.tick.Stop()
		s.tick = nil
	}
}

func (s *OTPStep) stopTimersLocked() {
	if s.tick != nil {
		s.tick.Stop()
		s.tick = nil
	}
	if s.lockout != nil {
		s.lockout.Stop()
		s.lockout = nil
	}
}

func (s *OTPStep) unmountLocked() {
	s.stopTimersLocked()
	if s.cancel != nil {
		s.cancel()
	}
	s.mounted = false
	s.busy = false
	s.gen++
	s.challenge = entity.Challenge{}
	s.remoteCode = ""
	s.prov = nil
}

func (s *OTPStep) viewLocked() entity.OTPView {
	view := s.challenge.View(s.clock.Now())
	if s.opts.DevMode && s.challenge.State == entity.ChallengeActive {
		view.DevCode = s.challenge.Code
		if s.remoteCode != "" {
			view.DevCode = s.remoteCode
		}
	}
	return view
}

func (s *OTPStep) publish(view entity.OTPView) {
	s.mu.Lock()
	subs := make([]func(entity.OTPView), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(view)
	}
}
