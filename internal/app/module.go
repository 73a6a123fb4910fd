package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/authgate/internal/mockauth"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.mockauth.enabled") {
		if err := mockauth.New(mockauth.Dependency{
			Router:     a.router,
			Storage:    a.storage,
			Config:     a.config,
			Instrument: a.ins,
			UID:        a.uid,
			Tokens:     a.tokens,
			HMAC:       a.hmac,
			Password:   a.password,
			Clock:      a.clock,
			Totp:       a.totp,
			Codes:      a.codes,
			Validator:  a.validator,
			JWT:        a.jwt,
		}); err != nil {
			slog.Error("failed to init module mockauth", "error", err)
			os.Exit(1)
		}
	}
}
