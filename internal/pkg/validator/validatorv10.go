package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"unicode/utf8"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/shandysiswandi/authgate/internal/pkg/strcase"
)

// PasswordMinLength is enforced by the "password" tag.
const PasswordMinLength = 8

var (
	reEmailAddress = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	reOTP          = regexp.MustCompile(`^\d{6}$`)
)

var ErrTranslatorNotFound = errors.New("translator not found")

// rule is a custom tag together with its English message.
type rule struct {
	tag   string
	check func(string) bool
	msg   string
}

var rules = []rule{
	{tag: "email_address", check: reEmailAddress.MatchString, msg: "Must be a valid email address"},
	{
		tag:   "password",
		check: func(s string) bool { return utf8.RuneCountInString(s) >= PasswordMinLength },
		msg:   fmt.Sprintf("Password must be at least %d characters", PasswordMinLength),
	},
	{tag: "otp", check: reOTP.MatchString, msg: "OTP must be 6 digits"},
}

// V10ValidationError maps snake_case field names to messages.
type V10ValidationError map[string]string

func (vs V10ValidationError) Error() string {
	if len(vs) == 0 {
		return "validation error"
	}

	b, err := json.Marshal(map[string]string(vs))
	if err != nil {
		return fmt.Sprintf("validation error: %v", err)
	}
	return string(b)
}

func (vs V10ValidationError) Values() map[string]string {
	return vs
}

// V10Validator is the go-playground/validator implementation of Validator.
type V10Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// NewV10Validator registers the English translations and the custom rules.
func NewV10Validator() (*V10Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	lang := en.New()
	trans, ok := ut.New(lang, lang).GetTranslator("en")
	if !ok {
		return nil, ErrTranslatorNotFound
	}
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	for _, r := range rules {
		if err := register(validate, trans, r); err != nil {
			return nil, fmt.Errorf("register %s: %w", r.tag, err)
		}
	}
	if err := translate(validate, trans, "required", "{0} is required", true); err != nil {
		return nil, err
	}

	return &V10Validator{validate: validate, translator: trans}, nil
}

func (v *V10Validator) Validate(data any) error {
	err := v.validate.Struct(data)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(V10ValidationError, len(fieldErrs))
	for _, fe := range fieldErrs {
		key := strcase.ToLowerSnake(fe.Field())
		if _, seen := out[key]; !seen {
			out[key] = fe.Translate(v.translator)
		}
	}

	return out
}

func register(validate *validator.Validate, trans ut.Translator, r rule) error {
	err := validate.RegisterValidation(r.tag, func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		return ok && r.check(s)
	})
	if err != nil {
		return err
	}

	return translate(validate, trans, r.tag, r.msg, false)
}

func translate(validate *validator.Validate, trans ut.Translator, tag, text string, override bool) error {
	return validate.RegisterTranslation(tag, trans,
		func(t ut.Translator) error { return t.Add(tag, text, override) },
		func(t ut.Translator, fe validator.FieldError) string {
			msg, err := t.T(fe.Tag(), fe.Field())
			if err != nil {
				slog.Warn("validation message missing", "tag", fe.Tag(), "field", fe.Field(), "error", err)
				return fe.Error()
			}
			return msg
		},
	)
}
