package mockauth

import (
	"github.com/shandysiswandi/authgate/internal/mockauth/inbound"
	"github.com/shandysiswandi/authgate/internal/mockauth/usecase"
	"github.com/shandysiswandi/authgate/internal/pkg/clock"
	"github.com/shandysiswandi/authgate/internal/pkg/config"
	"github.com/shandysiswandi/authgate/internal/pkg/hash"
	"github.com/shandysiswandi/authgate/internal/pkg/instrument"
	"github.com/shandysiswandi/authgate/internal/pkg/jwt"
	"github.com/shandysiswandi/authgate/internal/pkg/otp"
	"github.com/shandysiswandi/authgate/internal/pkg/router"
	"github.com/shandysiswandi/authgate/internal/pkg/storage"
	"github.com/shandysiswandi/authgate/internal/pkg/uid"
	"github.com/shandysiswandi/authgate/internal/pkg/validator"
)

type Dependency struct {
	Router     *router.Router             `validate:"required"`
	Storage    storage.Storage            `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	Tokens     uid.StringID               `validate:"required"`
	HMAC       hash.Hash                  `validate:"required"`
	Password   hash.Hash                  `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Totp       otp.OTP                    `validate:"required"`
	Codes      otp.CodeGenerator          `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	JWT        jwt.JWT                    `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	uc, err := usecase.New(usecase.Dependency{
		Storage:    dep.Storage,
		Validator:  dep.Validator,
		Config:     dep.Config,
		Password:   dep.Password,
		HMAC:       dep.HMAC,
		UID:        dep.UID,
		Tokens:     dep.Tokens,
		Totp:       dep.Totp,
		Codes:      dep.Codes,
		Clock:      dep.Clock,
		JWT:        dep.JWT,
		Instrument: dep.Instrument,
	})
	if err != nil {
		return err
	}

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
