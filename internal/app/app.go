package app

import (
	"context"
	"io"
	"net/http"

	"github.com/shandysiswandi/authgate/internal/authflow"
	"github.com/shandysiswandi/authgate/internal/pkg/clock"
	"github.com/shandysiswandi/authgate/internal/pkg/config"
	"github.com/shandysiswandi/authgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/authgate/internal/pkg/hash"
	"github.com/shandysiswandi/authgate/internal/pkg/instrument"
	"github.com/shandysiswandi/authgate/internal/pkg/jwt"
	"github.com/shandysiswandi/authgate/internal/pkg/otp"
	"github.com/shandysiswandi/authgate/internal/pkg/router"
	"github.com/shandysiswandi/authgate/internal/pkg/storage"
	"github.com/shandysiswandi/authgate/internal/pkg/uid"
	"github.com/shandysiswandi/authgate/internal/pkg/validator"
)

// Mode selects which side of the system the process runs.
type Mode int

const (
	// ModeClient runs the interactive login client.
	ModeClient Mode = iota
	// ModeServer runs the mock auth backend.
	ModeServer
)

func (m Mode) String() string {
	if m == ModeServer {
		return "server"
	}
	return "client"
}

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc
	mode   Mode

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clock
	hmac      hash.Hash
	password  hash.Hash
	uid       uid.NumberID
	tokens    uid.StringID
	uuid      uid.StringID
	totp      otp.OTP
	codes     otp.CodeGenerator
	jwt       jwt.JWT

	// resources
	storage storage.Storage

	// client
	in     io.Reader
	out    io.Writer
	client *authflow.Module

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// NewClient initializes the login client reading from in and writing to out.
func NewClient(in io.Reader, out io.Writer) *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
		mode:   ModeClient,
		in:     in,
		out:    out,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initStorage("authflow.storage")
	app.initClient()
	app.initClosers()

	return app
}

// NewServer initializes the mock auth backend.
func NewServer() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
		mode:   ModeServer,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initStorage("modules.mockauth.storage")
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
