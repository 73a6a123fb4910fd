package goroutine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestManagerCollectsErrors(t *testing.T) {
	// Arrange
	g := NewManager(2)
	boom := errors.New("boom")

	// Act
	if err := g.Go(context.Background(), "ok", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("Go(ok) error = %v", err)
	}
	if err := g.Go(context.Background(), "fail", func(context.Context) error { return boom }); err != nil {
		t.Fatalf("Go(fail) error = %v", err)
	}
	err := g.Wait(context.Background())

	// Assert
	if !errors.Is(err, boom) {
		t.Fatalf("Wait() error = %v, want %v", err, boom)
	}
	if !strings.Contains(err.Error(), "task fail") {
		t.Fatalf("Wait() error = %q, want task name", err.Error())
	}
}

func TestManagerIgnoresCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	g := NewManager(1)

	_ = g.Go(ctx, "reader", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	cancel()

	if err := g.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v, want nil", err)
	}
}

func TestManagerRecoversPanic(t *testing.T) {
	g := NewManager(1)

	_ = g.Go(context.Background(), "panicky", func(context.Context) error { panic("kaboom") })

	err := g.Wait(context.Background())
	if err == nil || !strings.Contains(err.Error(), "kaboom") {
		t.Fatalf("Wait() error = %v, want panic error", err)
	}
	if g.Active() != 0 {
		t.Fatalf("Active() = %d, want 0", g.Active())
	}
}

func TestManagerLimit(t *testing.T) {
	// Arrange
	g := NewManager(1)
	release := make(chan struct{})
	_ = g.Go(context.Background(), "blocker", func(context.Context) error {
		<-release
		return nil
	})

	// Act
	err := g.Go(context.Background(), "extra", func(context.Context) error { return nil })

	// Assert
	if !errors.Is(err, ErrLimit) {
		t.Fatalf("Go() error = %v, want %v", err, ErrLimit)
	}
	if g.Active() != 1 {
		t.Fatalf("Active() = %d, want 1", g.Active())
	}
	close(release)
	if err := g.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
}

func TestManagerWaitBoundedAndClosed(t *testing.T) {
	g := NewManager(1)
	release := make(chan struct{})
	defer close(release)
	_ = g.Go(context.Background(), "stuck", func(context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := g.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait() error = %v, want deadline exceeded", err)
	}
	if err := g.Go(context.Background(), "late", func(context.Context) error { return nil }); !errors.Is(err, ErrClosed) {
		t.Fatalf("Go() after Wait error = %v, want %v", err, ErrClosed)
	}
}
