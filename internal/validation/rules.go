// Package validation provides custom validation rules for the application.
package validation

import (
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	authDomain "github.com/acm-uiuc/authcore/internal/auth/domain"
	apperrors "github.com/acm-uiuc/authcore/internal/errors"
)

var (
	// emailRegex is a basic email validation pattern
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// Email validates email format using regex
var Email = validation.NewStringRuleWithError(
	func(s string) bool {
		return emailRegex.MatchString(s)
	},
	validation.NewError("validation_email_format", "must be a valid email address"),
)

// NoWhitespace validates that string doesn't contain leading/trailing whitespace
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// APIKeyRoles validates a role list granted to an organization API key.
var APIKeyRoles = validation.By(func(value interface{}) error {
	return validateRoleList(value, authDomain.ValidateAPIKeyRoles)
})

// MappingRoles validates a role list stored on a group or user mapping.
var MappingRoles = validation.By(func(value interface{}) error {
	return validateRoleList(value, authDomain.ValidateMappingRoles)
})

func validateRoleList(value interface{}, check func([]authDomain.Role) error) error {
	var roles []authDomain.Role
	switch v := value.(type) {
	case []authDomain.Role:
		roles = v
	case []string:
		roles = make([]authDomain.Role, len(v))
		for i, s := range v {
			roles[i] = authDomain.Role(s)
		}
	default:
		return validation.NewError("validation_roles_type", "must be a list of roles")
	}
	if err := check(roles); err != nil {
		return validation.NewError("validation_roles", err.Error())
	}
	return nil
}
