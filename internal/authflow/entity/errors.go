package entity

import "errors"

// User-visible messages.
const (
	MsgInvalidCredentials = "Invalid email or password"
	MsgInvalidOTP         = "Invalid OTP. Please try again."
	MsgOTPExpired         = "OTP has expired. Please request a new one."
	MsgTooManyAttempts    = "Too many failed attempts. Please request a new OTP."
	MsgResendFailed       = "Failed to resend OTP. Please try again."
	MsgNetwork            = "Network error. Please check your connection."
	MsgGeneric            = "Something went wrong. Please try again."
	MsgLoggedOut          = "Logged out successfully!"
	MsgOTPResent          = "New OTP sent successfully"
	MsgOTPVerified        = "OTP verified successfully"
)

var (
	ErrInvalidCredentials = errors.New("authflow: invalid credentials")
	ErrInvalidOTP         = errors.New("authflow: invalid otp")
	ErrOTPExpired         = errors.New("authflow: otp expired")
	ErrTooManyAttempts    = errors.New("authflow: too many otp attempts")
	ErrResendFailed       = errors.New("authflow: resend otp failed")
	ErrRemoteUnavailable  = errors.New("authflow: remote service unavailable")
	ErrStorageCorrupted   = errors.New("authflow: persisted record is corrupted")
	ErrInvalidState       = errors.New("authflow: operation not allowed in current state")
	ErrStepCancelled      = errors.New("authflow: step was cancelled")
	ErrBusy               = errors.New("authflow: another request is in flight")
)
