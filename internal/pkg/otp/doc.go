// Package otp provides helpers for generating and validating one-time
// passwords (OTP).
//
// TOTP (time-based OTP) backs authenticator-app style codes, while RandomCode
// issues the short numeric codes of an emailed or displayed challenge.
package otp
