package remote

import (
	"crypto/subtle"

	"github.com/shandysiswandi/authgate/internal/pkg/clock"
	"github.com/shandysiswandi/authgate/internal/pkg/otp"
)

// CodePolicy decides whether a submitted code is accepted for a provisional token.
type CodePolicy func(token, code string) bool

// WellFormed reports whether code is exactly six ASCII digits.
func WellFormed(code string) bool {
	if len(code) != 6 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

// AnyWellFormed accepts every six digit code.
func AnyWellFormed() CodePolicy {
	return func(_, code string) bool { return WellFormed(code) }
}

// Exact accepts only want.
func Exact(want string) CodePolicy {
	return func(_, code string) bool {
		return WellFormed(code) && subtle.ConstantTimeCompare([]byte(code), []byte(want)) == 1
	}
}

// MatchIssued accepts the code currently returned by issued, usually the code
// the OTP step generated for its live challenge.
func MatchIssued(issued func() string) CodePolicy {
	return func(_, code string) bool {
		want := issued()
		return want != "" && WellFormed(code) && subtle.ConstantTimeCompare([]byte(code), []byte(want)) == 1
	}
}

// TOTP accepts codes valid for secret at the current time.
func TOTP(v otp.OTP, secret string, c clock.Clocker) CodePolicy {
	return func(_, code string) bool {
		return WellFormed(code) && v.Validate(code, secret, c.Now())
	}
}
