package util

import (
	stderrors "errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/zfogg/chirp/internal/errors"
)

// Content limits
const (
	MaxTweetLength   = 280
	MaxMessageLength = 1000
	MaxBioLength     = 160
	MaxLocationLen   = 30
	MaxWebsiteLen    = 100
	MinPasswordLen   = 6
)

var (
	usernamePattern = regexp.MustCompile(`^[a-z0-9_]{3,30}$`)
	validate        = validator.New()
)

// BindingError converts a ShouldBind* error into an API error.
// Validator failures name the first offending field.
func BindingError(err error) *errors.APIError {
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := lowerFirst(fe.Field())
		return errors.ValidationError(field, describeFieldError(field, fe))
	}
	return errors.BadRequest("invalid request body").WithDetails(err.Error())
}

func describeFieldError(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "invalid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// IsValidEmail checks an address with the same rules as the `email` binding tag
func IsValidEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}

// IsValidUsername checks a lowercase handle
func IsValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

// ValidateTweetContent trims and checks tweet text
func ValidateTweetContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", errors.ValidationError("content", "content is required")
	}
	if utf8.RuneCountInString(content) > MaxTweetLength {
		return "", errors.ValidationError("content", fmt.Sprintf("content must be at most %d characters", MaxTweetLength))
	}
	return content, nil
}
