package inbound

import (
	"context"
	"testing"
	"time"

	"github.com/shandysiswandi/authgate/internal/authflow/entity"
	"github.com/shandysiswandi/authgate/internal/authflow/outbound/persist"
	"github.com/shandysiswandi/authgate/internal/authflow/usecase"
	"github.com/shandysiswandi/authgate/internal/pkg/clock"
	"github.com/shandysiswandi/authgate/internal/pkg/instrument"
	"github.com/shandysiswandi/authgate/internal/pkg/otp"
	"github.com/shandysiswandi/authgate/internal/pkg/storage"
	"github.com/shandysiswandi/authgate/internal/pkg/validator"
)

const devBackendYAML = `
modules:
  mockauth:
    accounts: "a@b.com:Passw0rd1"
    code_policy: fixed
    fixed_code: "123456"
    otp_expiry_minutes: 5
    dev_mode: true
`

type quietNotifier struct{}

func (quietNotifier) Notify(context.Context, string) {}

func TestClientFlowAgainstDevBackend(t *testing.T) {
	// Arrange
	ctx := context.Background()
	client, _ := newBackendWith(t, devBackendYAML)
	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}
	c := clock.NewFake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	ins := instrument.NewNoop()
	repo := persist.NewRepo(storage.NewMemory(storage.MemoryOptions{Clock: c}), ins, nil)

	session := usecase.NewSessionStore(ctx, usecase.SessionDependency{
		Repo: repo, Clock: c, Notifier: quietNotifier{}, Instrument: ins,
	})
	flow := usecase.NewFlow(ctx, usecase.FlowDependency{
		Session: session,
		Credentials: usecase.NewCredentialStep(usecase.CredentialDependency{
			Session: session, Repo: repo, Remote: client, Validator: v, Clock: c, Instrument: ins,
		}),
		OTP: usecase.NewOTPStep(usecase.OTPDependency{
			Session: session, Repo: repo, Remote: client, Validator: v,
			Codes: otp.NewRandomCode(6), Clock: c, Instrument: ins,
			Options: usecase.OTPOptions{DevMode: true},
		}),
		Instrument: ins,
	})
	t.Cleanup(flow.Close)

	// Act
	if err := flow.SubmitCredentials(ctx, "a@b.com", "Passw0rd1"); err != nil {
		t.Fatalf("login: %v", err)
	}
	view, ok := flow.OTP().View()
	if !ok {
		t.Fatalf("otp step must be mounted")
	}
	err = flow.Verify(ctx, view.DevCode)

	// Assert
	if view.DevCode != "123456" {
		t.Fatalf("dev mode must show the backend code, got %q", view.DevCode)
	}
	if err != nil {
		t.Fatalf("verify with the displayed code: %v", err)
	}
	got := session.Snapshot()
	if !got.IsAuthenticated || got.User == nil || got.User.Email != "a@b.com" || got.Token == "" {
		t.Fatalf("expected an authenticated session, got %+v", got)
	}
	if flow.Step() == entity.StepLogin {
		t.Fatalf("flow must have left the login step")
	}
}
