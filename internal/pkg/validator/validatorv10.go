package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/shandysiswandi/verimail/internal/pkg/strcase"
)

// ErrTranslatorNotFound reports a missing locale in the translator
// bundle.
var ErrTranslatorNotFound = errors.New("translator not found")

var (
	// Length bounds per NIST 800-63B; 72 is the bcrypt input limit.
	rePassword = regexp.MustCompile(`^.{8,72}$`)

	reAlphaSpace = regexp.MustCompile(`^[a-zA-Z ]+$`)
)

// V10ValidationError maps snake_case field names to translated
// messages. It is an error so usecases can return it directly.
type V10ValidationError map[string]string

func (vs V10ValidationError) Error() string {
	if len(vs) == 0 {
		return "validation error"
	}

	b, err := json.Marshal(vs)
	if err != nil {
		return fmt.Sprintf("validation error (failed to marshal: %v)", err)
	}
	return string(b)
}

// Values returns the field error map for the HTTP error envelope.
func (vs V10ValidationError) Values() map[string]string {
	return vs
}

// V10Validator is the go-playground/validator backed implementation.
type V10Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// NewV10Validator builds the validator with English translations and
// the custom password and alphaspace rules registered.
func NewV10Validator() (*V10Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	locale := en.New()
	trans, ok := ut.New(locale, locale).GetTranslator("en")
	if !ok {
		return nil, ErrTranslatorNotFound
	}
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}
	if err := registerCustomRules(validate, trans); err != nil {
		return nil, err
	}

	return &V10Validator{validate: validate, translator: trans}, nil
}

// Validate checks data and converts field failures into a
// V10ValidationError. Non-field errors (bad tags, nil input) pass
// through untouched.
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
		out[strcase.ToLowerSnake(fe.Field())] = fe.Translate(v.translator)
	}
	return out
}

func registerCustomRules(validate *validator.Validate, trans ut.Translator) error {
	rules := []struct {
		tag     string
		message string
		re      *regexp.Regexp
	}{
		{"password", "{0} must be 8-72 characters", rePassword},
		{"alphaspace", "{0} can contain only letters and spaces", reAlphaSpace},
	}

	for _, rule := range rules {
		re := rule.re
		err := validate.RegisterValidation(rule.tag, func(fl validator.FieldLevel) bool {
			s, ok := fl.Field().Interface().(string)
			return ok && re.MatchString(s)
		})
		if err != nil {
			return err
		}

		tag, message := rule.tag, rule.message
		err = validate.RegisterTranslation(tag, trans,
			func(ut ut.Translator) error {
				// Override: the default translation bundle may already
				// hold a key for this tag.
				return ut.Add(tag, message, true)
			},
			func(ut ut.Translator, fe validator.FieldError) string {
				t, err := ut.T(fe.Tag(), fe.Field())
				if err != nil {
					return fe.Tag() + " validation failed"
				}
				return t
			},
		)
		if err != nil {
			return err
		}
	}

	return nil
}
