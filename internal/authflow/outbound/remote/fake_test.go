package remote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/authgate/internal/authflow/entity"
	"github.com/shandysiswandi/authgate/internal/pkg/clock"
)

func TestFake(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("LoginAcceptsAnyNonEmptyPair", func(t *testing.T) {
		f := NewFake(FakeOptions{Clock: clock.NewFake(now)})

		got, err := f.Login(ctx, "jane@example.com", "whatever")

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.User.Name != "jane" || got.OTPExpiry != now.Add(DefaultOTPExpiry).UnixMilli() || !got.RequiresOTP {
			t.Fatalf("unexpected credential %+v", got)
		}
		if _, err := f.Login(ctx, "jane@example.com", ""); !errors.Is(err, entity.ErrInvalidCredentials) {
			t.Fatalf("empty password must be rejected, got %v", err)
		}
	})

	t.Run("LoginChecksAccounts", func(t *testing.T) {
		f := NewFake(FakeOptions{Accounts: map[string]string{"a@b.com": "Passw0rd1"}})

		if _, err := f.Login(ctx, "a@b.com", "bad"); !errors.Is(err, entity.ErrInvalidCredentials) {
			t.Fatalf("expected rejection, got %v", err)
		}
		if _, err := f.Login(ctx, "a@b.com", "Passw0rd1"); err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if f.Calls(OpLogin) != 2 {
			t.Fatalf("expected 2 login calls, got %d", f.Calls(OpLogin))
		}
	})

	t.Run("VerifyUsesPolicyAndRemembersUser", func(t *testing.T) {
		f := NewFake(FakeOptions{Policy: Exact("123456")})
		cred, _ := f.Login(ctx, "a@b.com", "Passw0rd1")

		if _, err := f.VerifyOTP(ctx, cred.Token, "000000"); !errors.Is(err, entity.ErrInvalidOTP) {
			t.Fatalf("expected invalid otp, got %v", err)
		}
		got, err := f.VerifyOTP(ctx, cred.Token, "123456")
		if err != nil || !got.Success || got.User.Email != "a@b.com" {
			t.Fatalf("unexpected verification %+v %v", got, err)
		}
	})

	t.Run("ScriptedFailuresAreConsumedInOrder", func(t *testing.T) {
		f := NewFake(FakeOptions{})
		boom := errors.New("boom")
		f.FailNext(OpResend, entity.ErrRemoteUnavailable, boom)

		_, err1 := f.ResendOTP(ctx, "t")
		_, err2 := f.ResendOTP(ctx, "t")
		got, err3 := f.ResendOTP(ctx, "t")

		if !errors.Is(err1, entity.ErrRemoteUnavailable) || !errors.Is(err2, boom) || err3 != nil || !got.Success {
			t.Fatalf("unexpected sequence: %v %v %v", err1, err2, err3)
		}
		if f.Calls(OpResend) != 3 {
			t.Fatalf("expected 3 calls, got %d", f.Calls(OpResend))
		}
	})

	t.Run("LatencyHonoursContext", func(t *testing.T) {
		f := NewFake(FakeOptions{Latency: time.Hour})
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		if _, err := f.VerifyOTP(cctx, "t", "123456"); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})
}

func TestCodePolicies(t *testing.T) {
	issued := ""
	match := MatchIssued(func() string { return issued })

	tests := []struct {
		name   string
		policy CodePolicy
		code   string
		want   bool
	}{
		{name: "AnyWellFormed", policy: AnyWellFormed(), code: "000000", want: true},
		{name: "AnyRejectsShort", policy: AnyWellFormed(), code: "12345", want: false},
		{name: "AnyRejectsLetters", policy: AnyWellFormed(), code: "12a456", want: false},
		{name: "ExactMatch", policy: Exact("654321"), code: "654321", want: true},
		{name: "ExactMismatch", policy: Exact("654321"), code: "123456", want: false},
		{name: "MatchIssuedWithoutChallenge", policy: match, code: "123456", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy("tok", tt.code); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}

	issued = "112233"
	if !match("tok", "112233") || match("tok", "332211") {
		t.Fatalf("MatchIssued must follow the issued code")
	}
}
