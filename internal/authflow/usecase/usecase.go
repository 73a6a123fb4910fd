package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/shandysiswandi/authgate/internal/authflow/entity"
	"github.com/shandysiswandi/authgate/internal/pkg/instrument"
	"github.com/shandysiswandi/authgate/internal/pkg/retry"
	"go.opentelemetry.io/otel/trace"
)

type repoPersist interface {
	LoadRecord(ctx context.Context) (*entity.PersistedRecord, error)
	SaveRecord(ctx context.Context, rec entity.PersistedRecord) error
	DeleteRecord(ctx context.Context) error

	SaveProvisional(ctx context.Context, p entity.ProvisionalCredential, ttl time.Duration) error
	DeleteProvisional(ctx context.Context) error

	Purge(ctx context.Context) error
}

// RemoteAuth is the auth backend the steps talk to.
type RemoteAuth interface {
	Login(ctx context.Context, email, password string) (*entity.ProvisionalCredential, error)
	VerifyOTP(ctx context.Context, token, code string) (*entity.Verification, error)
	ResendOTP(ctx context.Context, token string) (*entity.Resend, error)
}

// Notifier shows short confirmations to the user.
type Notifier interface {
	Notify(ctx context.Context, msg string)
}

// Policies holds the retry policy of each remote operation.
type Policies struct {
	Login  retry.Policy
	Verify retry.Policy
	Resend retry.Policy
}

// DefaultPolicies retries login twice with exponential backoff from 1s capped
// at 30s, verify once after 2s and resend once after 1s.
func DefaultPolicies() Policies {
	return Policies{
		Login:  retry.Policy{MaxRetries: 2, Base: time.Second, Cap: 30 * time.Second, Strategy: retry.StrategyExponential},
		Verify: retry.Policy{MaxRetries: 1, Base: 2 * time.Second, Strategy: retry.StrategyConstant},
		Resend: retry.Policy{MaxRetries: 1, Base: time.Second, Strategy: retry.StrategyConstant},
	}
}

func startSpan(ins instrument.Instrumentation, ctx context.Context, name string) (context.Context, trace.Span) {
	return ins.Tracer("authflow.usecase").Start(ctx, name)
}

// callRemote runs fn under p. Only transport failures are retried; a
// rejection is final on the first answer.
func callRemote[T any](ctx context.Context, p retry.Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := retry.Do(ctx, p, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			if errors.Is(err, entity.ErrRemoteUnavailable) {
				return retry.Retryable(err)
			}
			return err
		}
		out = v
		return nil
	})

	return out, err
}

func isCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// bindLifetime returns a context cancelled by either ctx or life.
func bindLifetime(ctx, life context.Context) (context.Context, context.CancelFunc) {
	callCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(life, cancel)

	return callCtx, func() {
		stop()
		cancel()
	}
}
