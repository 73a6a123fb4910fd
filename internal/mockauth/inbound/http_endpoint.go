package inbound

import (
	"strings"

	"github.com/shandysiswandi/authgate/internal/mockauth/entity"
	"github.com/shandysiswandi/authgate/internal/mockauth/usecase"
	"github.com/shandysiswandi/authgate/internal/pkg/router"
)

// HTTPEndpoint exposes the login and OTP routes the client flow talks to.
type HTTPEndpoint struct {
	uc uc
}

func toUser(u entity.User) User {
	return User{ID: u.ID, Email: u.Email, Name: u.Name}
}

// Login checks credentials and opens an OTP challenge.
func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Login(r.Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}

	return LoginResponse{
		Token:       resp.Token,
		User:        toUser(resp.User),
		RequiresOTP: resp.RequiresOTP,
		OTPExpiry:   resp.OTPExpiry.UnixMilli(),
		DevCode:     resp.DevCode,
	}, nil
}

// VerifyOTP completes a pending login and issues the session token.
func (h *HTTPEndpoint) VerifyOTP(r *router.Request) (any, error) {
	var req VerifyOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyOTP(r.Context(), usecase.VerifyOTPInput{
		Token: req.Token,
		OTP:   req.OTP,
	})
	if err != nil {
		return nil, err
	}

	return VerifyOTPResponse{
		Success: true,
		Token:   resp.Token,
		User:    toUser(resp.User),
		Msg:     "OTP verified successfully",
	}, nil
}

func (h *HTTPEndpoint) ResendOTP(r *router.Request) (any, error) {
	var req ResendOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.ResendOTP(r.Context(), usecase.ResendOTPInput{Token: req.Token})
	if err != nil {
		return nil, err
	}

	return ResendOTPResponse{
		Success:   true,
		Msg:       "New OTP sent successfully",
		OTPExpiry: resp.OTPExpiry.UnixMilli(),
		DevCode:   resp.DevCode,
	}, nil
}

// Session reports the user behind a bearer session token.
func (h *HTTPEndpoint) Session(r *router.Request) (any, error) {
	token, _ := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")

	resp, err := h.uc.Session(r.Context(), usecase.SessionInput{Token: strings.TrimSpace(token)})
	if err != nil {
		return nil, err
	}

	return SessionResponse{
		User:      toUser(resp.User),
		ExpiresAt: resp.ExpiresAt.UnixMilli(),
	}, nil
}
