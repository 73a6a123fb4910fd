package validator

import (
	"errors"
	"testing"
)

type credentials struct {
	Email    string `validate:"required,email_address"`
	Password string `validate:"required,password"`
}

type otpInput struct {
	OTP string `validate:"required,otp"`
}

func TestV10Validator(t *testing.T) {
	v, err := NewV10Validator()
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}

	tests := []struct {
		name    string
		in      any
		wantKey string
		wantMsg string
	}{
		{name: "ValidCredentials", in: credentials{Email: "a@b.co", Password: "12345678"}},
		{name: "EmptyEmail", in: credentials{Password: "12345678"}, wantKey: "email", wantMsg: "Email is required"},
		{name: "BadEmail", in: credentials{Email: "a@b", Password: "12345678"}, wantKey: "email", wantMsg: "Must be a valid email address"},
		{name: "ShortPassword", in: credentials{Email: "a@b.co", Password: "1234567"}, wantKey: "password", wantMsg: "Password must be at least 8 characters"},
		{name: "ValidOTP", in: otpInput{OTP: "123456"}},
		{name: "ShortOTP", in: otpInput{OTP: "12345"}, wantKey: "otp", wantMsg: "OTP must be 6 digits"},
		{name: "AlphaOTP", in: otpInput{OTP: "12345a"}, wantKey: "otp", wantMsg: "OTP must be 6 digits"},
		{name: "LongOTP", in: otpInput{OTP: "1234567"}, wantKey: "otp", wantMsg: "OTP must be 6 digits"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			err := v.Validate(tt.in)

			// Assert
			if tt.wantKey == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}

			var verr V10ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected V10ValidationError, got %v", err)
			}
			if got := verr.Values()[tt.wantKey]; got != tt.wantMsg {
				t.Fatalf("expected %q for %s, got %q", tt.wantMsg, tt.wantKey, got)
			}
		})
	}
}

func TestV10ValidatorSnakeCaseKeys(t *testing.T) {
	type form struct {
		EmailAddress string `validate:"required"`
		OTPCode      string `validate:"otp"`
	}
	v, err := NewV10Validator()
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}

	err = v.Validate(form{OTPCode: "abc"})

	var verr V10ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected V10ValidationError, got %v", err)
	}
	if _, ok := verr["email_address"]; !ok {
		t.Fatalf("missing email_address key: %v", verr)
	}
	if verr["otp_code"] != "OTP must be 6 digits" {
		t.Fatalf("unexpected otp_code message: %v", verr)
	}
}
