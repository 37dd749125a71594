package validator

import (
	"testing"
)

type registerInput struct {
	Email     string `validate:"required,email"`
	Password  string `validate:"required,password"`
	FirstName string `validate:"required,alphaspace"`
}

func TestNewV10Validator(t *testing.T) {

	// Act: construction registers the default translations plus the
	// custom rules; a translation key clash would surface here.
	v, err := NewV10Validator()

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if v == nil {
		t.Fatalf("expected a validator instance")
	}
}

func TestV10ValidatorValidate(t *testing.T) {
	v, err := NewV10Validator()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	t.Run("Valid", func(t *testing.T) {

		// Act
		err := v.Validate(registerInput{
			Email:     "ana@example.com",
			Password:  "correct horse battery",
			FirstName: "Ana Maria",
		})

		// Assert
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("CustomRulesTranslate", func(t *testing.T) {

		// Act
		err := v.Validate(registerInput{
			Email:     "ana@example.com",
			Password:  "short",
			FirstName: "Ana99",
		})

		// Assert
		verr, ok := err.(V10ValidationError)
		if !ok {
			t.Fatalf("expected a V10ValidationError, got %v", err)
		}
		if verr["password"] != "Password must be 8-72 characters" {
			t.Fatalf("unexpected password message: %q", verr["password"])
		}
		if verr["first_name"] != "FirstName can contain only letters and spaces" {
			t.Fatalf("unexpected first_name message: %q", verr["first_name"])
		}
	})
}
