package validators

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v4"
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidationError is returned when a field fails its shape check.
// It is raised before any request leaves the process.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err (or anything it wraps) is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// CustomValidator adapts go-playground/validator to echo.Validator.
type CustomValidator struct {
	validate *validator.Validate
}

var shared = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("instaid", func(fl validator.FieldLevel) bool {
		return idPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("nonblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// NewValidator returns the validator installed on the echo instance.
func NewValidator() *CustomValidator {
	return &CustomValidator{validate: shared}
}

// Validate checks a request struct against its `validate` tags.
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validate.Struct(i)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return invalid(fe.Field(), "Invalid %s: failed %q check.", strings.ToLower(fe.Field()), fe.Tag())
	}
	return err
}

func ValidateID(id string) error {
	if !idPattern.MatchString(id) {
		return invalid("id", "Invalid id format.")
	}
	return nil
}

func ValidateText(text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return invalid("text", "Text must contain at least one non-space character.")
	}
	if utf8.RuneCountInString(trimmed) > 2000 {
		return invalid("text", "Text must be at most 2000 characters.")
	}
	return nil
}

func ValidateName(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n < 2 || n > 50 {
		return invalid("name", "Name must be between 2 and 50 characters.")
	}
	return nil
}

func ValidateEmail(email string) error {
	if err := shared.Var(email, "required,email"); err != nil {
		return invalid("email", "Invalid email format.")
	}
	return nil
}

func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < 8 || n > 64 {
		return invalid("password", "Password must be between 8 and 64 characters.")
	}
	if strings.ContainsAny(password, " \t\r\n") {
		return invalid("password", "Password must not contain spaces.")
	}
	return nil
}

// ValidateAction accepts only one of the allowed action names.
func ValidateAction(action string, allowed ...string) error {
	for _, a := range allowed {
		if action == a {
			return nil
		}
	}
	return invalid("action", "Unknown action %q.", action)
}

func ValidateImage(image string) error {
	u, err := url.Parse(strings.TrimSpace(image))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return invalid("image", "Invalid image URL.")
	}
	return nil
}

// ValidateToken checks that a session token looks like a JWT and has not expired.
// The signature is not verified here: only the remote API holds the key.
func ValidateToken(token string) error {
	if token == "" {
		return invalid("token", "Invalid session token.")
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return invalid("token", "Invalid session token.")
	}
	if claims.ExpiresAt != nil && !claims.ExpiresAt.After(time.Now()) {
		return invalid("token", "Session token has expired.")
	}
	return nil
}
