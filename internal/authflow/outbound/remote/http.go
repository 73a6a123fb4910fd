package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shandysiswandi/authgate/internal/authflow/entity"
	"github.com/shandysiswandi/authgate/internal/pkg/instrument"
	"github.com/shandysiswandi/authgate/internal/pkg/router"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Routes served by the mock backend.
const (
	PathLogin  = "/api/v1/auth/login"
	PathVerify = "/api/v1/auth/otp/verify"
	PathResend = "/api/v1/auth/otp/resend"
)

// DefaultTimeout bounds a single HTTP attempt.
const DefaultTimeout = 10 * time.Second

type HTTPConfig struct {
	BaseURL    string
	Timeout    time.Duration
	Client     *http.Client
	Instrument instrument.Instrumentation
}

// HTTP talks to the auth backend with JSON requests and the {message, data}
// response envelope. Client errors are rejections, everything else that fails
// wraps entity.ErrRemoteUnavailable.
type HTTP struct {
	baseURL string
	client  *http.Client
	ins     instrument.Instrumentation
}

func NewHTTP(cfg HTTPConfig) *HTTP {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Instrument == nil {
		cfg.Instrument = instrument.NewNoop()
	}

	return &HTTP{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  cfg.Client,
		ins:     cfg.Instrument,
	}
}

type envelope struct {
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Error   map[string]string `json:"error"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyRequest struct {
	Token string `json:"token"`
	OTP   string `json:"otp"`
}

type resendRequest struct {
	Token string `json:"token"`
}

func (h *HTTP) Login(ctx context.Context, email, password string) (*entity.ProvisionalCredential, error) {
	var out entity.ProvisionalCredential
	err := h.post(ctx, PathLogin, loginRequest{Email: email, Password: password}, &out, func(int) error {
		return entity.ErrInvalidCredentials
	})
	if err != nil {
		return nil, err
	}

	return &out, nil
}

func (h *HTTP) VerifyOTP(ctx context.Context, token, code string) (*entity.Verification, error) {
	var out entity.Verification
	err := h.post(ctx, PathVerify, verifyRequest{Token: token, OTP: code}, &out, func(status int) error {
		switch status {
		case http.StatusGone:
			return entity.ErrOTPExpired
		case http.StatusTooManyRequests:
			return entity.ErrTooManyAttempts
		default:
			return entity.ErrInvalidOTP
		}
	})
	if err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, fmt.Errorf("%w: %s", entity.ErrInvalidOTP, out.Message)
	}

	return &out, nil
}

func (h *HTTP) ResendOTP(ctx context.Context, token string) (*entity.Resend, error) {
	var out entity.Resend
	err := h.post(ctx, PathResend, resendRequest{Token: token}, &out, func(int) error {
		return entity.ErrResendFailed
	})
	if err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, fmt.Errorf("%w: %s", entity.ErrResendFailed, out.Message)
	}

	return &out, nil
}

func (h *HTTP) post(ctx context.Context, path string, body, out any, rejection func(status int) error) (err error) {
	ctx, span := h.ins.Tracer("authflow.outbound.remote").Start(ctx, "POST "+path)
	defer func() {
		if err != nil && errors.Is(err, entity.ErrRemoteUnavailable) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if cid := instrument.GetCorrelationID(ctx); cid != "" {
		req.Header.Set(router.HeaderCorrelationID, cid)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", entity.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", entity.ErrRemoteUnavailable, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusRequestTimeout:
		return fmt.Errorf("%w: status %d", entity.ErrRemoteUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return fmt.Errorf("%w: %s (status %d)", rejection(resp.StatusCode), env.Message, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: unexpected status %d", entity.ErrRemoteUnavailable, resp.StatusCode)
	}

	if decodeErr != nil || len(env.Data) == 0 {
		return fmt.Errorf("%w: malformed response body", entity.ErrRemoteUnavailable)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: malformed response data: %v", entity.ErrRemoteUnavailable, err)
	}

	return nil
}
