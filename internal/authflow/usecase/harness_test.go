package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/authgate/internal/authflow/entity"
	"github.com/shandysiswandi/authgate/internal/authflow/outbound/persist"
	"github.com/shandysiswandi/authgate/internal/authflow/outbound/remote"
	"github.com/shandysiswandi/authgate/internal/pkg/clock"
	"github.com/shandysiswandi/authgate/internal/pkg/goerror"
	"github.com/shandysiswandi/authgate/internal/pkg/instrument"
	"github.com/shandysiswandi/authgate/internal/pkg/otp"
	"github.com/shandysiswandi/authgate/internal/pkg/retry"
	"github.com/shandysiswandi/authgate/internal/pkg/storage"
	"github.com/shandysiswandi/authgate/internal/pkg/validator"
)

var testStart = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type recordNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (n *recordNotifier) Notify(_ context.Context, msg string) {
	n.mu.Lock()
	n.msgs = append(n.msgs, msg)
	n.mu.Unlock()
}

func (n *recordNotifier) messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.msgs...)
}

// sequenceCodes hands out 100001, 100002, ... so every challenge is distinct.
type sequenceCodes struct {
	mu sync.Mutex
	n  int
}

func (s *sequenceCodes) NewCode() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%06d", 100000+s.n), nil
}

type harnessConfig struct {
	fake           remote.FakeOptions
	otp            OTPOptions
	resendOverride func(ctx context.Context) error
	codes          otp.CodeGenerator
}

type harness struct {
	ctx      context.Context
	clock    *clock.Fake
	store    storage.Storage
	repo     *persist.Repo
	remote   *remote.Fake
	notifier *recordNotifier
	session  *SessionStore
	cred     *CredentialStep
	otp      *OTPStep
	flow     *Flow
}

// zero-delay policies keep retries observable without sleeping.
var testPolicies = Policies{
	Login:  retry.Policy{MaxRetries: 2},
	Verify: retry.Policy{MaxRetries: 1},
	Resend: retry.Policy{MaxRetries: 1},
}

func newHarness(t *testing.T, opts ...func(*harnessConfig)) *harness {
	t.Helper()

	cfg := harnessConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	h := &harness{ctx: context.Background(), clock: clock.NewFake(testStart), notifier: &recordNotifier{}}
	h.store = storage.NewMemory(storage.MemoryOptions{Clock: h.clock})
	h.repo = persist.NewRepo(h.store, instrument.NewNoop(), nil)
	if cfg.fake.Clock == nil {
		cfg.fake.Clock = h.clock
	}
	h.remote = remote.NewFake(cfg.fake)
	h.build(t, cfg)

	return h
}

func (h *harness) build(t *testing.T, cfg harnessConfig) {
	t.Helper()

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}
	ins := instrument.NewNoop()

	h.session = NewSessionStore(h.ctx, SessionDependency{
		Repo: h.repo, Clock: h.clock, Notifier: h.notifier, Instrument: ins,
	})
	h.cred = NewCredentialStep(CredentialDependency{
		Session: h.session, Repo: h.repo, Remote: h.remote, Validator: v,
		Clock: h.clock, Instrument: ins, Policy: testPolicies.Login,
	})
	otpOpts := cfg.otp
	if otpOpts.VerifyPolicy == (retry.Policy{}) {
		otpOpts.VerifyPolicy = testPolicies.Verify
	}
	if otpOpts.ResendPolicy == (retry.Policy{}) {
		otpOpts.ResendPolicy = testPolicies.Resend
	}
	codes := cfg.codes
	if codes == nil {
		codes = &sequenceCodes{}
	}
	h.otp = NewOTPStep(OTPDependency{
		Session: h.session, Repo: h.repo, Remote: h.remote, Validator: v,
		Codes: codes, Clock: h.clock, Instrument: ins,
		Options: otpOpts, ResendOverride: cfg.resendOverride,
	})
	h.flow = NewFlow(h.ctx, FlowDependency{
		Session: h.session, Credentials: h.cred, OTP: h.otp, Instrument: ins,
	})
	t.Cleanup(h.flow.Close)
}

// restart rebuilds every component over the same storage, like a new process.
func (h *harness) restart(t *testing.T) {
	t.Helper()
	h.flow.Close()
	h.build(t, harnessConfig{})
}

func (h *harness) loginToOTP(t *testing.T) {
	t.Helper()
	if err := h.flow.SubmitCredentials(h.ctx, "a@b.com", "Passw0rd1"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if h.flow.Step() != entity.StepOTPChallenge {
		t.Fatalf("expected OTP_CHALLENGE, got %s", h.flow.Step())
	}
}

func (h *harness) view(t *testing.T) entity.OTPView {
	t.Helper()
	v, ok := h.otp.View()
	if !ok {
		t.Fatalf("otp step is not mounted")
	}
	return v
}

func (h *harness) stored(t *testing.T, key string) bool {
	t.Helper()
	_, err := h.store.Get(h.ctx, key)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("storage get %s: %v", key, err)
	}
	return err == nil
}

func assertGoError(t *testing.T, err error, sentinel error, code goerror.Code, msg string) {
	t.Helper()

	if !errors.Is(err, sentinel) {
		t.Fatalf("expected %v, got %v", sentinel, err)
	}
	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected *goerror.Error, got %T", err)
	}
	if gerr.Code() != code {
		t.Fatalf("expected code %s, got %s", code, gerr.Code())
	}
	if msg != "" && gerr.Msg() != msg {
		t.Fatalf("expected message %q, got %q", msg, gerr.Msg())
	}
}

func assertValidation(t *testing.T, err error) {
	t.Helper()

	var gerr *goerror.Error
	if !errors.As(err, &gerr) || gerr.Type() != goerror.TypeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
