package entity

import (
	"fmt"
	"time"
)

const (
	// DefaultOTPWindow is how long a challenge accepts submissions.
	DefaultOTPWindow = 60 * time.Second
	// DefaultMaxAttempts is the number of rejected codes that locks a challenge.
	DefaultMaxAttempts = 3
	// DefaultLockoutDelay separates the lockout from the automatic reissue.
	DefaultLockoutDelay = 100 * time.Millisecond
)

// ChallengeState is the lifecycle position of an OTP challenge.
type ChallengeState int

const (
	ChallengeActive ChallengeState = iota
	ChallengeExpired
	ChallengeLocked
	ChallengeVerified
)

func (s ChallengeState) String() string {
	switch s {
	case ChallengeActive:
		return "ACTIVE"
	case ChallengeExpired:
		return "EXPIRED"
	case ChallengeLocked:
		return "LOCKED"
	case ChallengeVerified:
		return "VERIFIED"
	default:
		return "UNKNOWN"
	}
}

// Band is the urgency of the remaining time, used for presentation only.
type Band int

const (
	BandNominal Band = iota
	BandWarning
	BandCritical
)

func (b Band) String() string {
	switch b {
	case BandWarning:
		return "warning"
	case BandCritical:
		return "critical"
	default:
		return "nominal"
	}
}

// BandFor maps remaining seconds to a band: above 30 is nominal, 10 to 30 is
// a warning, below 10 is critical.
func BandFor(remaining int) Band {
	switch {
	case remaining > 30:
		return BandNominal
	case remaining >= 10:
		return BandWarning
	default:
		return BandCritical
	}
}

// FormatRemaining renders seconds as m:ss.
func FormatRemaining(remaining int) string {
	if remaining < 0 {
		remaining = 0
	}
	return fmt.Sprintf("%d:%02d", remaining/60, remaining%60)
}

// Challenge is one issued OTP code and its submission budget.
type Challenge struct {
	Code         string
	IssuedAt     time.Time
	ExpiresAt    time.Time
	AttemptCount int
	MaxAttempts  int
	State        ChallengeState
}

// NewChallenge issues an active challenge valid for window starting at now.
func NewChallenge(code string, now time.Time, window time.Duration, maxAttempts int) Challenge {
	return Challenge{
		Code:        code,
		IssuedAt:    now,
		ExpiresAt:   now.Add(window),
		MaxAttempts: maxAttempts,
		State:       ChallengeActive,
	}
}

// Window is the full lifetime of the challenge.
func (c Challenge) Window() time.Duration {
	return c.ExpiresAt.Sub(c.IssuedAt)
}

// Remaining returns whole seconds left at now, rounded up so a partially
// elapsed second still counts. It is derived from ExpiresAt every time.
func (c Challenge) Remaining(now time.Time) int {
	left := c.ExpiresAt.Sub(now)
	if left <= 0 {
		return 0
	}
	return int((left + time.Second - 1) / time.Second)
}

// Elapsed reports whether the window has closed at now.
func (c Challenge) Elapsed(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Progress is the consumed fraction of the window, in [0, 1].
func (c Challenge) Progress(now time.Time) float64 {
	window := int(c.Window() / time.Second)
	if window <= 0 {
		return 1
	}
	p := float64(window-c.Remaining(now)) / float64(window)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}

// AttemptsLeft is how many rejected codes the challenge still tolerates.
func (c Challenge) AttemptsLeft() int {
	if left := c.MaxAttempts - c.AttemptCount; left > 0 {
		return left
	}
	return 0
}

// Exhausted reports whether the attempt budget is spent.
func (c Challenge) Exhausted() bool {
	return c.AttemptCount >= c.MaxAttempts
}

// OTPView is a read-only picture of the challenge for the front-end.
type OTPView struct {
	State        ChallengeState
	Remaining    int
	Countdown    string
	Progress     float64
	Band         Band
	AttemptCount int
	MaxAttempts  int
	// DevCode is the issued code, only filled in development mode.
	DevCode string
}

// View renders c at now.
func (c Challenge) View(now time.Time) OTPView {
	remaining := c.Remaining(now)
	return OTPView{
		State:        c.State,
		Remaining:    remaining,
		Countdown:    FormatRemaining(remaining),
		Progress:     c.Progress(now),
		Band:         BandFor(remaining),
		AttemptCount: c.AttemptCount,
		MaxAttempts:  c.MaxAttempts,
	}
}
