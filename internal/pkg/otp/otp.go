package otp

import (
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// OTP issues and checks time-based codes. The mock backend uses it for the
// "totp" code policy and the client's fake remote can validate against it.
type OTP interface {
	// Generate creates a secret and its otpauth:// provisioning URI.
	Generate(accountName string) (secret string, uri string, err error)
	Validate(code, secret string, at time.Time) bool
	GenerateCode(secret string, at time.Time) (string, error)
}

// TOTP implements OTP with RFC 6238 over SHA-1, the algorithm authenticator
// apps support universally.
type TOTP struct {
	issuer string
	opts   totp.ValidateOpts
}

// NewTOTP falls back to 6 digits, a 30 second period and a skew of one
// period when given zero values.
func NewTOTP(issuer string, period, skew uint, digits otp.Digits) *TOTP {
	if digits != otp.DigitsEight {
		digits = otp.DigitsSix
	}

	return &TOTP{
		issuer: issuer,
		opts: totp.ValidateOpts{
			Period:    orDefault(period, 30),
			Skew:      orDefault(skew, 1),
			Digits:    digits,
			Algorithm: otp.AlgorithmSHA1,
		},
	}
}

func orDefault(v, def uint) uint {
	if v == 0 {
		return def
	}
	return v
}

func (o *TOTP) Generate(accountName string) (string, string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      o.issuer,
		AccountName: accountName,
		Period:      o.opts.Period,
		SecretSize:  20,
		Digits:      o.opts.Digits,
		Algorithm:   o.opts.Algorithm,
	})
	if err != nil {
		return "", "", err
	}

	return key.Secret(), key.URL(), nil
}

func (o *TOTP) Validate(code, secret string, at time.Time) bool {
	ok, err := totp.ValidateCustom(code, secret, at, o.opts)
	return ok && err == nil
}

func (o *TOTP) GenerateCode(secret string, at time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, at, o.opts)
}
