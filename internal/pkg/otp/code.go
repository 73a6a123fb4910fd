package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// CodeGenerator produces short numeric one-time codes.
type CodeGenerator interface {
	NewCode() (string, error)
}

// RandomCode generates uniformly distributed numeric codes from crypto/rand.
type RandomCode struct {
	digits int
	max    *big.Int
}

// NewRandomCode returns a generator of codes with the given number of digits.
// Non-positive digits fall back to 6.
func NewRandomCode(digits int) *RandomCode {
	if digits <= 0 {
		digits = 6
	}

	return &RandomCode{
		digits: digits,
		max:    new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil),
	}
}

// NewCode returns a zero-padded code such as "004213".
func (r *RandomCode) NewCode() (string, error) {
	n, err := rand.Int(rand.Reader, r.max)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%0*d", r.digits, n), nil
}
