package entity

// ProvisionalCredential is the login result staged under "temp-auth" until
// the OTP challenge completes.
type ProvisionalCredential struct {
	Token       string `json:"token"`
	User        *User  `json:"user"`
	RequiresOTP bool   `json:"requiresOTP"`
	OTPExpiry   int64  `json:"otpExpiry,omitempty"`
	// DevCode is the code a development backend issued for this login.
	DevCode string `json:"devCode,omitempty"`
}

// Verification is the remote answer to an OTP submission.
type Verification struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	User    *User  `json:"user,omitempty"`
	Message string `json:"message,omitempty"`
}

// Resend is the remote answer to a request for a new code.
type Resend struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	OTPExpiry int64  `json:"otpExpiry,omitempty"`
	DevCode   string `json:"devCode,omitempty"`
}
