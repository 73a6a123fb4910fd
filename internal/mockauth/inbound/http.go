package inbound

import (
	"context"

	"github.com/shandysiswandi/authgate/internal/mockauth/usecase"
	"github.com/shandysiswandi/authgate/internal/pkg/router"
)

type uc interface {
	Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)
	VerifyOTP(ctx context.Context, in usecase.VerifyOTPInput) (*usecase.VerifyOTPOutput, error)
	ResendOTP(ctx context.Context, in usecase.ResendOTPInput) (*usecase.ResendOTPOutput, error)
	Session(ctx context.Context, in usecase.SessionInput) (*usecase.SessionOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/auth/login", end.Login)
	r.POST("/api/v1/auth/otp/verify", end.VerifyOTP)
	r.POST("/api/v1/auth/otp/resend", end.ResendOTP)
	r.GET("/api/v1/auth/session", end.Session)
}
