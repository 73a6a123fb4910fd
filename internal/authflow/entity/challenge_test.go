package entity

import (
	"testing"
	"time"
)

func TestChallengeRemaining(t *testing.T) {
	issued := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c := NewChallenge("123456", issued, DefaultOTPWindow, DefaultMaxAttempts)

	tests := []struct {
		name      string
		at        time.Duration
		remaining int
		countdown string
		band      Band
	}{
		{name: "JustIssued", at: 0, remaining: 60, countdown: "1:00", band: BandNominal},
		{name: "PartialSecondRoundsUp", at: 1200 * time.Millisecond, remaining: 59, countdown: "0:59", band: BandNominal},
		{name: "WarningUpperEdge", at: 30 * time.Second, remaining: 30, countdown: "0:30", band: BandWarning},
		{name: "WarningLowerEdge", at: 50 * time.Second, remaining: 10, countdown: "0:10", band: BandWarning},
		{name: "Critical", at: 51 * time.Second, remaining: 9, countdown: "0:09", band: BandCritical},
		{name: "Zero", at: 60 * time.Second, remaining: 0, countdown: "0:00", band: BandCritical},
		{name: "PastExpiry", at: 5 * time.Minute, remaining: 0, countdown: "0:00", band: BandCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			v := c.View(issued.Add(tt.at))

			// Assert
			if v.Remaining != tt.remaining || v.Countdown != tt.countdown || v.Band != tt.band {
				t.Fatalf("got remaining=%d countdown=%s band=%s", v.Remaining, v.Countdown, v.Band)
			}
		})
	}
}

func TestChallengeProgress(t *testing.T) {
	issued := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c := NewChallenge("123456", issued, DefaultOTPWindow, DefaultMaxAttempts)

	if got := c.Progress(issued); got != 0 {
		t.Fatalf("expected 0 at issue, got %v", got)
	}
	if got := c.Progress(issued.Add(30 * time.Second)); got != 0.5 {
		t.Fatalf("expected 0.5 halfway, got %v", got)
	}
	if got := c.Progress(issued.Add(2 * time.Minute)); got != 1 {
		t.Fatalf("expected 1 after expiry, got %v", got)
	}
	if !c.Elapsed(issued.Add(DefaultOTPWindow)) || c.Elapsed(issued.Add(59*time.Second)) {
		t.Fatalf("unexpected elapsed boundary")
	}
}

func TestChallengeAttempts(t *testing.T) {
	c := NewChallenge("123456", time.Now(), DefaultOTPWindow, 3)
	c.AttemptCount = 2
	if c.Exhausted() || c.AttemptsLeft() != 1 {
		t.Fatalf("expected one attempt left")
	}
	c.AttemptCount = 3
	if !c.Exhausted() || c.AttemptsLeft() != 0 {
		t.Fatalf("expected exhausted challenge")
	}
}

func TestFormatRemaining(t *testing.T) {
	cases := map[int]string{0: "0:00", 5: "0:05", 61: "1:01", 600: "10:00", -3: "0:00"}
	for in, want := range cases {
		if got := FormatRemaining(in); got != want {
			t.Fatalf("FormatRemaining(%d) = %s, want %s", in, got, want)
		}
	}
}
