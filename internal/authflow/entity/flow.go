package entity

// FlowStep is the screen the authentication flow is showing.
type FlowStep int

const (
	StepLogin FlowStep = iota
	StepOTPChallenge
)

func (s FlowStep) String() string {
	if s == StepOTPChallenge {
		return "OTP_CHALLENGE"
	}
	return "LOGIN"
}
