package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	libOTP "github.com/pquerna/otp"
	"github.com/rs/cors"
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

func (a *App) initConfig() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}

	cfg, err := config.NewViper(path)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	if tz := cfg.GetString("app.tz"); tz != "" {
		//nolint:errcheck,gosec // ignore error
		os.Setenv("TZ", tz)
	}

	a.config = cfg
}

func (a *App) initInstrument() {
	// the client keeps stdout for prompts
	var logOut io.Writer = os.Stdout
	levelKey := "instrument.log_level"
	if a.mode == ModeClient {
		logOut = os.Stderr
		levelKey = "instrument.client_log_level"
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(a.config.GetString(levelKey))); err != nil {
		level = slog.LevelInfo
	}

	ins, err := instrument.New(context.Background(), &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
		LogOutput:        logOut,
		LogLevel:         level,
	})
	if err != nil {
		slog.Error("failed to init instrumentation", "error", err)
		os.Exit(1)
	}
	a.ins = ins
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.max_goroutine"))
	a.hmac = hash.NewHMACSHA256(a.config.GetString("hash.hmac.secret"))
	a.codes = otp.NewRandomCode(a.config.GetInt("authflow.otp.digits"))

	switch strings.ToLower(a.config.GetString("hash.password")) {
	case "argon2id":
		a.password = hash.NewArgon2id(a.config.GetString("hash.argon2id.pepper"))
	default:
		a.password = hash.NewBcrypt(a.config.GetInt("hash.bcrypt.cost"), a.config.GetString("hash.bcrypt.pepper"))
	}

	validator, err := validator.NewV10Validator()
	if err != nil {
		slog.Error("failed to init validation v10 validator", "error", err)
		os.Exit(1)
	}
	a.validator = validator

	snow, err := uid.NewSnowflake()
	if err != nil {
		slog.Error("failed to init uid number snowflake", "error", err)
		os.Exit(1)
	}
	a.uid = snow

	a.tokens = uid.NewToken("tmp_")

	a.totp = otp.NewTOTP(
		a.config.GetString("totp.issuer"),
		a.config.GetUint("totp.period"),
		a.config.GetUint("totp.skew"),
		libOTP.DigitsSix,
	)
}

func (a *App) initJWT() {
	defaultJWT, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(a.config.GetString("jwt.secret")),
		Issuer:    a.config.GetString("jwt.issuer"),
		Audiences: a.config.GetArray("jwt.audiences"),
		TTL:       a.config.GetMinute("jwt.ttl_minutes"),
		Clock:     a.clock,
		UUID:      a.uuid,
	})
	if err != nil {
		slog.Error("failed to init jwt token", "error", err)
		os.Exit(1)
	}
	a.jwt = defaultJWT
}

func (a *App) initStorage(prefix string) {
	driver := strings.TrimSpace(a.config.GetString(prefix + ".driver"))

	stg, err := storage.NewFromDriver(a.ctx, driver, storage.FactoryOptions{
		Memory: storage.MemoryOptions{Clock: a.clock},
		Redis: storage.RedisOptions{
			URL:         a.config.GetString(prefix + ".redis.url"),
			Prefix:      a.config.GetString(prefix + ".redis.prefix"),
			PingTimeout: a.config.GetSecond(prefix + ".redis.ping_timeout_seconds"),
		},
		SQLite: storage.SQLiteOptions{
			Path:  a.config.GetString(prefix + ".sqlite.path"),
			Clock: a.clock,
		},
	})
	if err != nil {
		slog.Error("failed to init storage", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.storage = stg
}

func (a *App) initClient() {
	mod, err := authflow.New(authflow.Dependency{
		Ctx:        a.ctx,
		Storage:    a.storage,
		Config:     a.config,
		Instrument: a.ins,
		Clock:      a.clock,
		Validator:  a.validator,
		Goroutine:  a.goroutine,
		Codes:      a.codes,
		Totp:       a.totp,
		In:         a.in,
		Out:        a.out,
	})
	if err != nil {
		slog.Error("failed to init module authflow", "error", err)
		os.Exit(1)
	}

	a.client = mod
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		Instrument: a.ins,
	})

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("app.server.cors"),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.http.address"),
		Handler:           routerWithCORS,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}
}

func (a *App) initClosers() {
	a.closers = []struct {
		name string
		fn   func(context.Context) error
	}{
		{
			name: "Client",
			fn: func(context.Context) error {
				if a.client != nil {
					a.client.Close()
				}

				return nil
			},
		},
		{
			name: "Instrument",
			fn: func(ctx context.Context) error {
				return a.ins.Shutdown(ctx)
			},
		},
		{
			name: "Storage",
			fn: func(context.Context) error {
				return a.storage.Close()
			},
		},
		{
			name: "Config",
			fn: func(context.Context) error {
				return a.config.Close()
			},
		},
	}
}
