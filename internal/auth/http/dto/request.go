// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"fmt"

	validation "github.com/jellydator/validation"

	authDomain "github.com/acm-uiuc/authcore/internal/auth/domain"
	"github.com/acm-uiuc/authcore/internal/policy"
	customValidation "github.com/acm-uiuc/authcore/internal/validation"
)

// CreateAPIKeyRequest contains the parameters for issuing an organization API key.
type CreateAPIKeyRequest struct {
	Roles        []string                       `json:"roles"`
	Description  string                         `json:"description"`
	ExpiresAt    *int64                         `json:"expiresAt,omitempty"`
	Restrictions []authDomain.PolicyRestriction `json:"restrictions,omitempty"`
}

// Validate checks if the create API key request is valid. Expiry in the past is
// rejected by the use case, which owns the clock.
func (r *CreateAPIKeyRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Roles, customValidation.APIKeyRoles),
		validation.Field(&r.Description,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 1024),
		),
		validation.Field(&r.Restrictions, validation.Each(validation.By(validateRestriction))),
	)
}

// ToInput converts the request into use case input.
func (r *CreateAPIKeyRequest) ToInput(owner, requestID string) *authDomain.CreateAPIKeyInput {
	return &authDomain.CreateAPIKeyInput{
		Roles:        toRoles(r.Roles),
		Description:  r.Description,
		Owner:        owner,
		ExpiresAt:    r.ExpiresAt,
		Restrictions: r.Restrictions,
		RequestID:    requestID,
	}
}

// validateRestriction rejects restrictions naming a policy that is not registered or
// carrying params the policy cannot use.
func validateRestriction(value interface{}) error {
	restriction, ok := value.(authDomain.PolicyRestriction)
	if !ok {
		return validation.NewError("validation_restriction_type", "must be a policy restriction")
	}
	p, found := policy.DefaultRegistry().Lookup(restriction.Name)
	if !found {
		return validation.NewError(
			"validation_restriction_name",
			fmt.Sprintf("policy %q is not recognized", restriction.Name),
		)
	}
	if err := p.ValidateParams(restriction.Params); err != nil {
		return validation.NewError(
			"validation_restriction_params",
			fmt.Sprintf("invalid params for policy %q: %v", restriction.Name, err),
		)
	}
	return nil
}

// SetRolesRequest replaces the roles of a group or user mapping.
type SetRolesRequest struct {
	Roles []string `json:"roles"`
}

// Validate checks if the set roles request is valid.
func (r *SetRolesRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Roles, customValidation.MappingRoles),
	)
}

// ToInput converts the request into use case input for target.
func (r *SetRolesRequest) ToInput(target, actor, requestID string) *authDomain.SetRolesInput {
	return &authDomain.SetRolesInput{
		Target:    target,
		Roles:     toRoles(r.Roles),
		Actor:     actor,
		RequestID: requestID,
	}
}

// ValidateGroupID checks a group id taken from a path or flag.
func ValidateGroupID(groupID string) error {
	return customValidation.WrapValidationError(
		validation.Validate(groupID, validation.Required, customValidation.NoWhitespace),
	)
}

// ValidateUserEmail checks a user email taken from a path or flag.
func ValidateUserEmail(email string) error {
	return customValidation.WrapValidationError(
		validation.Validate(email, validation.Required, customValidation.Email),
	)
}

func toRoles(values []string) []authDomain.Role {
	roles := make([]authDomain.Role, len(values))
	for i, v := range values {
		roles[i] = authDomain.Role(v)
	}
	return roles
}
