package authflow

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/shandysiswandi/authgate/internal/authflow/inbound"
	"github.com/shandysiswandi/authgate/internal/authflow/outbound/persist"
	"github.com/shandysiswandi/authgate/internal/authflow/outbound/remote"
	"github.com/shandysiswandi/authgate/internal/authflow/usecase"
	"github.com/shandysiswandi/authgate/internal/pkg/clock"
	"github.com/shandysiswandi/authgate/internal/pkg/config"
	"github.com/shandysiswandi/authgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/authgate/internal/pkg/instrument"
	"github.com/shandysiswandi/authgate/internal/pkg/otp"
	"github.com/shandysiswandi/authgate/internal/pkg/seal"
	"github.com/shandysiswandi/authgate/internal/pkg/storage"
	"github.com/shandysiswandi/authgate/internal/pkg/validator"
)

// Remote drivers selected by authflow.remote.driver.
const (
	RemoteHTTP = "http"
	RemoteFake = "fake"
)

type Dependency struct {
	Ctx        context.Context            `validate:"required"`
	Storage    storage.Storage            `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	Clock      clock.Clock                `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Codes      otp.CodeGenerator          `validate:"required"`
	Totp       otp.OTP                    `validate:"required"`
	In         io.Reader                  `validate:"required"`
	Out        io.Writer                  `validate:"required"`
}

// Module is the wired client: the session store, the login flow and the
// terminal driving it.
type Module struct {
	Session  *usecase.SessionStore
	Flow     *usecase.Flow
	Terminal *inbound.Terminal
}

func New(dep Dependency) (*Module, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	cfg := dep.Config
	printer := inbound.NewPrinter(dep.Out)

	var sealer seal.Sealer
	if key := cfg.GetString("authflow.storage.seal_key"); key != "" {
		s, err := seal.NewAESGCMFromBase64(key)
		if err != nil {
			return nil, fmt.Errorf("authflow.storage.seal_key: %w", err)
		}
		sealer = s
	}
	repo := persist.NewRepo(dep.Storage, dep.Instrument, sealer)
	policies := usecase.DefaultPolicies()

	session := usecase.NewSessionStore(dep.Ctx, usecase.SessionDependency{
		Repo:       repo,
		Clock:      dep.Clock,
		Notifier:   printer,
		Instrument: dep.Instrument,
		TTL:        cfg.GetHour("authflow.session.ttl_hours"),
	})

	// the fake policy may need the OTP step, which needs the remote first
	var otpStep *usecase.OTPStep
	rem, err := newRemote(cfg, dep, func() string { return otpStep.IssuedCode() })
	if err != nil {
		return nil, err
	}

	cred := usecase.NewCredentialStep(usecase.CredentialDependency{
		Session:        session,
		Repo:           repo,
		Remote:         rem,
		Validator:      dep.Validator,
		Clock:          dep.Clock,
		Instrument:     dep.Instrument,
		Policy:         policies.Login,
		ProvisionalTTL: cfg.GetMinute("authflow.session.provisional_ttl_minutes"),
	})

	otpStep = usecase.NewOTPStep(usecase.OTPDependency{
		Session:    session,
		Repo:       repo,
		Remote:     rem,
		Validator:  dep.Validator,
		Codes:      dep.Codes,
		Clock:      dep.Clock,
		Instrument: dep.Instrument,
		Options: usecase.OTPOptions{
			Window:       cfg.GetSecond("authflow.otp.window_seconds"),
			MaxAttempts:  cfg.GetInt("authflow.otp.max_attempts"),
			LockoutDelay: cfg.GetMillisecond("authflow.otp.lockout_delay_ms"),
			DevMode:      cfg.GetBool("authflow.otp.dev_mode"),
			VerifyPolicy: policies.Verify,
			ResendPolicy: policies.Resend,
		},
	})

	flow := usecase.NewFlow(dep.Ctx, usecase.FlowDependency{
		Session:     session,
		Credentials: cred,
		OTP:         otpStep,
		Instrument:  dep.Instrument,
	})

	term := inbound.NewTerminal(inbound.Config{
		Flow:      flow,
		Challenge: otpStep,
		Session:   session,
		Validator: dep.Validator,
		Clock:     dep.Clock,
		Goroutine: dep.Goroutine,
		Printer:   printer,
		In:        dep.In,
		Debounce:  cfg.GetMillisecond("authflow.terminal.debounce_ms"),
	})

	return &Module{Session: session, Flow: flow, Terminal: term}, nil
}

// Close stops the flow and drops every subscriber.
func (m *Module) Close() {
	m.Flow.Close()
	m.Session.Dispose()
}

func newRemote(cfg config.Config, dep Dependency, issued func() string) (usecase.RemoteAuth, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.GetString("authflow.remote.driver")))

	switch driver {
	case RemoteHTTP, "":
		return remote.NewHTTP(remote.HTTPConfig{
			BaseURL:    cfg.GetString("authflow.remote.base_url"),
			Timeout:    cfg.GetSecond("authflow.remote.timeout_seconds"),
			Instrument: dep.Instrument,
		}), nil

	case RemoteFake:
		var policy remote.CodePolicy
		switch strings.ToLower(cfg.GetString("authflow.remote.fake.policy")) {
		case "issued":
			policy = remote.MatchIssued(issued)
		case "exact":
			policy = remote.Exact(cfg.GetString("authflow.remote.fake.exact_code"))
		case "totp":
			policy = remote.TOTP(dep.Totp, cfg.GetString("authflow.remote.fake.totp_secret"), dep.Clock)
		default:
			policy = remote.AnyWellFormed()
		}

		var accounts map[string]string
		if m := cfg.GetMap("authflow.remote.fake.accounts"); len(m) > 0 {
			accounts = m
		}

		return remote.NewFake(remote.FakeOptions{
			Policy:   policy,
			Accounts: accounts,
			Latency:  cfg.GetMillisecond("authflow.remote.fake.latency_ms"),
			Clock:    dep.Clock,
		}), nil

	default:
		return nil, fmt.Errorf("authflow: unknown remote driver %q", driver)
	}
}
