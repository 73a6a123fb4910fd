package entity

import (
	"testing"
	"time"
)

func TestCodePolicyFromString(t *testing.T) {
	tests := []struct {
		in   string
		want CodePolicy
	}{
		{in: "any", want: CodePolicyAny},
		{in: " Fixed ", want: CodePolicyFixed},
		{in: "TOTP", want: CodePolicyTOTP},
		{in: "", want: CodePolicyAny},
		{in: "unknown", want: CodePolicyAny},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := CodePolicyFromString(tt.in); got != tt.want {
				t.Fatalf("CodePolicyFromString(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestChallengeExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c := Challenge{ExpiresAt: now.Add(time.Minute).UnixMilli()}

	if c.Expired(now) {
		t.Fatalf("challenge must be live before its deadline")
	}
	if !c.Expired(now.Add(time.Minute)) {
		t.Fatalf("challenge must expire at its deadline")
	}
}
