package usecase

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/shandysiswandi/authgate/internal/mockauth/entity"
	"github.com/shandysiswandi/authgate/internal/pkg/clock"
	"github.com/shandysiswandi/authgate/internal/pkg/config"
	"github.com/shandysiswandi/authgate/internal/pkg/goerror"
	"github.com/shandysiswandi/authgate/internal/pkg/hash"
	"github.com/shandysiswandi/authgate/internal/pkg/instrument"
	"github.com/shandysiswandi/authgate/internal/pkg/jwt"
	"github.com/shandysiswandi/authgate/internal/pkg/otp"
	"github.com/shandysiswandi/authgate/internal/pkg/storage"
	"github.com/shandysiswandi/authgate/internal/pkg/uid"
	"github.com/shandysiswandi/authgate/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

const (
	msgInvalidCredentials = "Invalid email or password"
	msgInvalidSession     = "Invalid or expired session"
	msgInvalidOTP         = "Invalid OTP. Please try again."
	msgOTPExpired         = "OTP has expired. Please request a new one."
)

const challengeKeyPrefix = "mockauth:challenge:"

// defaultOTPExpiry applies when modules.mockauth.otp_expiry_minutes is unset.
const defaultOTPExpiry = 5 * time.Minute

type Usecase struct {
	storage   storage.Storage
	validator validator.Validator
	cfg       config.Config
	password  hash.Hash
	hmac      hash.Hash
	uid       uid.NumberID
	tokens    uid.StringID
	totp      otp.OTP
	codes     otp.CodeGenerator
	clock     clock.Clocker
	jwt       jwt.JWT
	ins       instrument.Instrumentation

	mu       sync.Mutex
	accounts map[string]entity.Account
	guests   map[string]int64
}

type Dependency struct {
	Storage    storage.Storage
	Validator  validator.Validator
	Config     config.Config
	Password   hash.Hash
	HMAC       hash.Hash
	UID        uid.NumberID
	Tokens     uid.StringID
	Totp       otp.OTP
	Codes      otp.CodeGenerator
	Clock      clock.Clocker
	JWT        jwt.JWT
	Instrument instrument.Instrumentation
}

// New seeds the accounts listed in modules.mockauth.accounts ("email:password"
// pairs), hashing every password with dep.Password.
func New(dep Dependency) (*Usecase, error) {
	s := &Usecase{
		storage:   dep.Storage,
		validator: dep.Validator,
		cfg:       dep.Config,
		password:  dep.Password,
		hmac:      dep.HMAC,
		uid:       dep.UID,
		tokens:    dep.Tokens,
		totp:      dep.Totp,
		codes:     dep.Codes,
		clock:     dep.Clock,
		jwt:       dep.JWT,
		ins:       dep.Instrument,
		accounts:  make(map[string]entity.Account),
		guests:    make(map[string]int64),
	}

	for email, password := range dep.Config.GetMap("modules.mockauth.accounts") {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" {
			continue
		}

		hashed, err := s.password.Hash(password)
		if err != nil {
			return nil, fmt.Errorf("hash password of %s: %w", email, err)
		}

		name, _, _ := strings.Cut(email, "@")
		s.accounts[email] = entity.Account{
			ID:           s.uid.Generate(),
			Email:        email,
			Name:         name,
			PasswordHash: string(hashed),
		}
	}

	return s, nil
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("mockauth.usecase").Start(ctx, name)
}

func (s *Usecase) policy() entity.CodePolicy {
	return entity.CodePolicyFromString(s.cfg.GetString("modules.mockauth.code_policy"))
}

func (s *Usecase) otpExpiry() time.Duration {
	if d := s.cfg.GetMinute("modules.mockauth.otp_expiry_minutes"); d > 0 {
		return d
	}
	return defaultOTPExpiry
}

func (s *Usecase) devMode() bool {
	return s.cfg.GetBool("modules.mockauth.dev_mode")
}

// guestID returns a stable id for an email that has no configured account.
func (s *Usecase) guestID(email string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.guests[email]; ok {
		return id
	}
	id := s.uid.Generate()
	s.guests[email] = id

	return id
}

func (s *Usecase) account(email string) (entity.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[email]
	return acc, ok
}

func (s *Usecase) challengeKey(token string) (string, error) {
	sum, err := s.hmac.Hash(token)
	if err != nil {
		return "", err
	}
	return challengeKeyPrefix + string(sum), nil
}

// issueChallenge creates a new code for user and stores it under token,
// replacing any earlier challenge. It returns the challenge and, in
// development mode, the code to hand back to the client.
func (s *Usecase) issueChallenge(ctx context.Context, token string, user entity.User) (*entity.Challenge, string, error) {
	now := s.clock.Now()
	expiry := s.otpExpiry()

	ch := &entity.Challenge{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		IssuedAt:  now.UnixMilli(),
		ExpiresAt: now.Add(expiry).UnixMilli(),
	}

	var code string
	switch s.policy() {
	case entity.CodePolicyFixed:
		ch.Code = s.cfg.GetString("modules.mockauth.fixed_code")
		code = ch.Code
	case entity.CodePolicyTOTP:
		secret, _, err := s.totp.Generate(user.Email)
		if err != nil {
			return nil, "", err
		}
		ch.Secret = secret

		code, err = s.totp.GenerateCode(secret, now)
		if err != nil {
			return nil, "", err
		}
	default:
		var err error
		code, err = s.codes.NewCode()
		if err != nil {
			return nil, "", err
		}
	}

	key, err := s.challengeKey(token)
	if err != nil {
		return nil, "", err
	}

	data, err := json.Marshal(ch)
	if err != nil {
		return nil, "", err
	}

	// kept past its deadline so late submissions are told it expired
	if err := s.storage.Set(ctx, key, data, 2*expiry); err != nil {
		return nil, "", err
	}

	if !s.devMode() {
		return ch, "", nil
	}

	slog.InfoContext(ctx, "development mode otp issued", "email", user.Email, "dev_code", code, "policy", s.policy().String())
	return ch, code, nil
}

func (s *Usecase) loadChallenge(ctx context.Context, token string) (*entity.Challenge, string, error) {
	key, err := s.challengeKey(token)
	if err != nil {
		return nil, "", err
	}

	data, err := s.storage.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, key, entity.ErrChallengeNotFound
	}
	if err != nil {
		return nil, key, err
	}

	var ch entity.Challenge
	if err := json.Unmarshal(data, &ch); err != nil {
		return nil, key, err
	}

	return &ch, key, nil
}

func (s *Usecase) accepts(ch *entity.Challenge, code string, now time.Time) bool {
	switch s.policy() {
	case entity.CodePolicyFixed:
		return ch.Code != "" && subtle.ConstantTimeCompare([]byte(ch.Code), []byte(code)) == 1
	case entity.CodePolicyTOTP:
		return s.totp.Validate(code, ch.Secret, now)
	default:
		return true
	}
}

func challengeError(ctx context.Context, err error) error {
	if errors.Is(err, entity.ErrChallengeNotFound) {
		slog.WarnContext(ctx, "otp challenge not found")
		return goerror.NewBusinessCause(err, msgInvalidSession, goerror.CodeUnauthorized)
	}

	slog.ErrorContext(ctx, "failed to load otp challenge", "error", err)
	return goerror.NewServer(err)
}
