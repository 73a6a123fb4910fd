package remote

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shandysiswandi/authgate/internal/authflow/entity"
	"github.com/shandysiswandi/authgate/internal/pkg/clock"
	"go.uber.org/atomic"
)

// Op names a remote operation.
type Op string

const (
	OpLogin  Op = "login"
	OpVerify Op = "verify"
	OpResend Op = "resend"
)

// DefaultOTPExpiry is the server-side challenge lifetime reported by the fake.
const DefaultOTPExpiry = 5 * time.Minute

// FakeOptions configures Fake.
type FakeOptions struct {
	// Policy decides which codes verify. Defaults to AnyWellFormed.
	Policy CodePolicy
	// Accounts maps email to password. Nil accepts any non-empty pair.
	Accounts map[string]string
	// Latency delays every call. Zero answers immediately.
	Latency time.Duration
	// Clock stamps tokens and expiries. Defaults to the system clock.
	Clock clock.Clocker
}

// Fake is a deterministic in-process remote service.
type Fake struct {
	opts FakeOptions

	logins   atomic.Int64
	verifies atomic.Int64
	resends  atomic.Int64

	mu       sync.Mutex
	failures map[Op][]error
	users    map[string]*entity.User
}

func NewFake(opts FakeOptions) *Fake {
	if opts.Policy == nil {
		opts.Policy = AnyWellFormed()
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}

	return &Fake{
		opts:     opts,
		failures: make(map[Op][]error),
		users:    make(map[string]*entity.User),
	}
}

// FailNext queues errors returned, in order, by the next calls of op.
func (f *Fake) FailNext(op Op, errs ...error) {
	f.mu.Lock()
	f.failures[op] = append(f.failures[op], errs...)
	f.mu.Unlock()
}

// Calls returns how many times op was invoked.
func (f *Fake) Calls(op Op) int64 {
	switch op {
	case OpLogin:
		return f.logins.Load()
	case OpVerify:
		return f.verifies.Load()
	case OpResend:
		return f.resends.Load()
	default:
		return 0
	}
}

func (f *Fake) scripted(op Op) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	queue := f.failures[op]
	if len(queue) == 0 {
		return nil
	}
	f.failures[op] = queue[1:]
	return queue[0]
}

func (f *Fake) wait(ctx context.Context) error {
	if f.opts.Latency <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(f.opts.Latency)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (f *Fake) Login(ctx context.Context, email, password string) (*entity.ProvisionalCredential, error) {
	f.logins.Inc()
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if err := f.scripted(OpLogin); err != nil {
		return nil, err
	}

	if email == "" || password == "" {
		return nil, entity.ErrInvalidCredentials
	}
	if f.opts.Accounts != nil {
		if want, ok := f.opts.Accounts[email]; !ok || want != password {
			return nil, entity.ErrInvalidCredentials
		}
	}

	now := f.opts.Clock.Now()
	name, _, _ := strings.Cut(email, "@")
	user := &entity.User{ID: 1, Email: email, Name: name}
	token := fmt.Sprintf("temp-token-%d", now.UnixMilli())

	f.mu.Lock()
	f.users[token] = user
	f.mu.Unlock()

	return &entity.ProvisionalCredential{
		Token:       token,
		User:        &entity.User{ID: user.ID, Email: user.Email, Name: user.Name},
		RequiresOTP: true,
		OTPExpiry:   now.Add(DefaultOTPExpiry).UnixMilli(),
	}, nil
}

func (f *Fake) VerifyOTP(ctx context.Context, token, code string) (*entity.Verification, error) {
	f.verifies.Inc()
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if err := f.scripted(OpVerify); err != nil {
		return nil, err
	}

	if !f.opts.Policy(token, code) {
		return nil, entity.ErrInvalidOTP
	}

	f.mu.Lock()
	user, ok := f.users[token]
	f.mu.Unlock()
	if !ok {
		user = &entity.User{ID: 1, Email: "user@example.com", Name: "User"}
	}

	return &entity.Verification{
		Success: true,
		Token:   fmt.Sprintf("verified-jwt-token-%d", f.opts.Clock.Now().UnixMilli()),
		User:    &entity.User{ID: user.ID, Email: user.Email, Name: user.Name},
		Message: entity.MsgOTPVerified,
	}, nil
}

func (f *Fake) ResendOTP(ctx context.Context, _ string) (*entity.Resend, error) {
	f.resends.Inc()
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if err := f.scripted(OpResend); err != nil {
		return nil, err
	}

	return &entity.Resend{
		Success:   true,
		Message:   entity.MsgOTPResent,
		OTPExpiry: f.opts.Clock.Now().Add(DefaultOTPExpiry).UnixMilli(),
	}, nil
}
