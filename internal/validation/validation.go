package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError is a user-facing input problem on a single field
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidationError reports whether err (or anything it wraps) is a ValidationError
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Registration is the teacher sign-up form
type Registration struct {
	Email    string `validate:"required,email,max=255"`
	Password string `validate:"required,min=8,max=72"`
	FullName string `validate:"required,min=2,max=100"`
}

// ValidateRegistration trims and checks a sign-up form, returning the first problem found
func ValidateRegistration(r *Registration) error {
	r.Email = strings.TrimSpace(r.Email)
	r.FullName = strings.TrimSpace(r.FullName)
	if err := validate.Struct(r); err != nil {
		return firstFieldError(err)
	}
	return nil
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if err := validate.Var(email, "email"); err != nil {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if err := validate.Var(password, "min=8,max=72"); err != nil {
		return ValidationError{Field: "password", Message: "password must be between 8 and 72 characters"}
	}
	return nil
}

// ValidateTitle trims a word set title and requires it to be non-blank
func ValidateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ValidationError{Field: "title", Message: "title is required"}
	}
	if err := validate.Var(title, "max=200"); err != nil {
		return "", ValidationError{Field: "title", Message: "title must be at most 200 characters"}
	}
	return title, nil
}

// CleanWords trims every entry and drops the blank ones, keeping order
func CleanWords(words []string) []string {
	cleaned := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			cleaned = append(cleaned, w)
		}
	}
	return cleaned
}

// SplitWordLines turns a textarea body into one candidate word per line
func SplitWordLines(body string) []string {
	return strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n")
}

func firstFieldError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	field := strings.ToLower(fe.Field())
	if fe.Field() == "FullName" {
		field = "name"
	}
	switch fe.Tag() {
	case "required":
		return ValidationError{Field: field, Message: field + " is required"}
	case "email":
		return ValidationError{Field: field, Message: "invalid email format"}
	case "min":
		return ValidationError{Field: field, Message: fmt.Sprintf("%s must be at least %s characters", field, fe.Param())}
	case "max":
		return ValidationError{Field: field, Message: fmt.Sprintf("%s must be at most %s characters", field, fe.Param())}
	default:
		return ValidationError{Field: field, Message: "is invalid"}
	}
}
