package inbound

import (
	"bufio"
	"context"
	"errors"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shandysiswandi/authgate/internal/authflow/entity"
	"github.com/shandysiswandi/authgate/internal/pkg/clock"
	"github.com/shandysiswandi/authgate/internal/pkg/goerror"
	"github.com/shandysiswandi/authgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/authgate/internal/pkg/validator"
)

// Commands accepted at the OTP prompt.
const (
	CmdResend = ":resend"
	CmdBack   = ":back"
	CmdQuit   = ":quit"
)

// DefaultDebounce is the minimum spacing between two countdown redraws.
const DefaultDebounce = 300 * time.Millisecond

// ErrQuit is returned by Run when the user leaves before signing in.
var ErrQuit = errors.New("authflow: login aborted")

type flow interface {
	Step() entity.FlowStep
	Email() string
	Authenticated() bool
	SubmitCredentials(ctx context.Context, email, password string) error
	Verify(ctx context.Context, code string) error
	Resend(ctx context.Context) error
	Back(ctx context.Context) error
}

type challenge interface {
	Subscribe(fn func(entity.OTPView)) func()
}

type session interface {
	Snapshot() entity.Session
	Logout(ctx context.Context) error
}

// LoginForm holds what the login prompt collects. The password length rule
// lives here, in front of the remote call.
type LoginForm struct {
	Email    string `validate:"required,email_address"`
	Password string `validate:"required,password"`
}

type Config struct {
	Flow      flow
	Challenge challenge
	Session   session
	Validator validator.Validator
	Clock     clock.Clocker
	Goroutine *goroutine.Manager
	Printer   *Printer
	In        io.Reader
	Debounce  time.Duration
}

// Terminal drives the login flow from line based input.
type Terminal struct {
	flow     flow
	otp      challenge
	session  session
	val      validator.Validator
	clock    clock.Clocker
	gor      *goroutine.Manager
	out      *Printer
	in       io.Reader
	debounce time.Duration

	mu       sync.Mutex
	lastDraw time.Time
	lastView entity.OTPView
}

func NewTerminal(cfg Config) *Terminal {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}

	return &Terminal{
		flow:     cfg.Flow,
		otp:      cfg.Challenge,
		session:  cfg.Session,
		val:      cfg.Validator,
		clock:    cfg.Clock,
		gor:      cfg.Goroutine,
		out:      cfg.Printer,
		in:       cfg.In,
		debounce: cfg.Debounce,
	}
}

// Run prompts until the session is authenticated, the input ends or the
// user quits.
func (t *Terminal) Run(ctx context.Context) error {
	if s := t.session.Snapshot(); s.IsAuthenticated {
		t.out.Printf("Already signed in as %s\n", s.User.Email)
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := t.readLines(ctx)

	unsubscribe := t.otp.Subscribe(t.drawCountdown)
	defer unsubscribe()

	for !t.flow.Authenticated() {
		var err error
		switch t.flow.Step() {
		case entity.StepLogin:
			err = t.loginStep(ctx, lines)
		case entity.StepOTPChallenge:
			err = t.otpStep(ctx, lines)
		}
		if err != nil {
			return err
		}
	}

	s := t.session.Snapshot()
	t.out.Printf("Welcome, %s! You are signed in.\n", displayName(s.User))

	return nil
}

func (t *Terminal) readLines(ctx context.Context) <-chan string {
	lines := make(chan string)

	err := t.gor.Go(ctx, "stdin-reader", func(ctx context.Context) error {
		defer close(lines)

		sc := bufio.NewScanner(t.in)
		for sc.Scan() {
			select {
			case lines <- strings.TrimSpace(sc.Text()):
			case <-ctx.Done():
				return nil
			}
		}

		return sc.Err()
	})
	if err != nil {
		close(lines)
	}

	return lines
}

func (t *Terminal) prompt(ctx context.Context, lines <-chan string, label string) (string, error) {
	t.out.Printf("%s: ", label)

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-lines:
		if !ok {
			t.out.Println()
			return "", ErrQuit
		}
		if line == CmdQuit {
			return "", ErrQuit
		}
		return line, nil
	}
}

func (t *Terminal) loginStep(ctx context.Context, lines <-chan string) error {
	email, err := t.prompt(ctx, lines, "Email")
	if err != nil {
		return err
	}
	password, err := t.prompt(ctx, lines, "Password")
	if err != nil {
		return err
	}

	form := LoginForm{Email: email, Password: password}
	if err := t.val.Validate(form); err != nil {
		t.printValidation(err)
		return nil
	}

	if err := t.flow.SubmitCredentials(ctx, email, password); err != nil {
		t.printError(err)
		return nil
	}

	t.out.Printf("A verification code was sent to %s. Type %s, %s or %s at any time.\n", t.flow.Email(), CmdResend, CmdBack, CmdQuit)

	return nil
}

func (t *Terminal) otpStep(ctx context.Context, lines <-chan string) error {
	line, err := t.prompt(ctx, lines, "OTP")
	if err != nil {
		return err
	}

	switch line {
	case CmdBack:
		if err := t.flow.Back(ctx); err != nil {
			t.printError(err)
		}
		return nil

	case CmdResend:
		if err := t.flow.Resend(ctx); err != nil {
			t.printError(err)
			return nil
		}
		t.out.Println(entity.MsgOTPResent)
		return nil
	}

	if err := t.flow.Verify(ctx, line); err != nil {
		t.printError(err)
	}

	return nil
}

// drawCountdown receives every challenge update. Redraws closer than the
// debounce interval are skipped unless the state or attempts changed or a
// new challenge restarted the countdown.
func (t *Terminal) drawCountdown(v entity.OTPView) {
	t.mu.Lock()
	now := t.clock.Now()
	changed := v.State != t.lastView.State ||
		v.AttemptCount != t.lastView.AttemptCount ||
		v.Remaining > t.lastView.Remaining
	if !changed && now.Sub(t.lastDraw) < t.debounce {
		t.mu.Unlock()
		return
	}
	t.lastDraw, t.lastView = now, v
	t.mu.Unlock()

	t.out.Println(countdownLine(v))
}

func countdownLine(v entity.OTPView) string {
	var b strings.Builder

	switch v.State {
	case entity.ChallengeActive:
		b.WriteString("Expires in " + v.Countdown + " [" + v.Band.String() + "]")
	case entity.ChallengeExpired:
		b.WriteString("Code expired, type " + CmdResend + " for a new one")
	case entity.ChallengeLocked:
		b.WriteString("Too many attempts, issuing a new code")
	default:
		b.WriteString("Verified")
	}
	b.WriteString(" · attempts " + strconv.Itoa(v.AttemptCount) + "/" + strconv.Itoa(v.MaxAttempts))

	if v.DevCode != "" {
		b.WriteString(" · Development Mode: OTP is " + v.DevCode)
	}

	return b.String()
}

func (t *Terminal) printError(err error) {
	var verr validator.V10ValidationError
	if errors.As(err, &verr) {
		t.printValidation(err)
		return
	}

	if s := t.session.Snapshot(); s.Error != "" {
		t.out.Println("✗ " + s.Error)
		return
	}

	var gerr *goerror.Error
	if errors.As(err, &gerr) {
		t.out.Println("✗ " + gerr.Msg())
		return
	}
	t.out.Println("✗ " + entity.MsgGeneric)
}

func (t *Terminal) printValidation(err error) {
	var verr validator.V10ValidationError
	if !errors.As(err, &verr) {
		t.out.Println("✗ " + err.Error())
		return
	}

	fields := verr.Values()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		t.out.Println("✗ " + fields[k])
	}
}

// Status prints the hydrated session.
func (t *Terminal) Status() {
	s := t.session.Snapshot()
	if !s.IsAuthenticated {
		t.out.Println("Not signed in")
		return
	}

	t.out.Printf("Signed in as %s (%s)\n", displayName(s.User), s.User.Email)
}

func (t *Terminal) Logout(ctx context.Context) error {
	if err := t.session.Logout(ctx); err != nil {
		t.printError(err)
		return err
	}
	return nil
}

func displayName(u *entity.User) string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
