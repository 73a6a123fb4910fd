package inbound

type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token       string `json:"token"`
	User        User   `json:"user"`
	RequiresOTP bool   `json:"requiresOTP"`
	OTPExpiry   int64  `json:"otpExpiry"`
	DevCode     string `json:"devCode,omitempty"`
}

func (LoginResponse) Message() string {
	return "OTP has been sent"
}

type VerifyOTPRequest struct {
	Token string `json:"token"`
	OTP   string `json:"otp"`
}

type VerifyOTPResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	User    User   `json:"user"`
	Msg     string `json:"message"`
}

func (r VerifyOTPResponse) Message() string {
	return r.Msg
}

type ResendOTPRequest struct {
	Token string `json:"token"`
}

type ResendOTPResponse struct {
	Success   bool   `json:"success"`
	Msg       string `json:"message"`
	OTPExpiry int64  `json:"otpExpiry"`
	DevCode   string `json:"devCode,omitempty"`
}

func (r ResendOTPResponse) Message() string {
	return r.Msg
}

type SessionResponse struct {
	User      User  `json:"user"`
	ExpiresAt int64 `json:"expiresAt"`
}

func (SessionResponse) Message() string {
	return "Session is active"
}
