package domain

import (
	"fmt"
	"slices"
	"strings"

	"github.com/acm-uiuc/authcore/internal/errors"
)

// Role list validation messages.
const (
	MsgRolesRequired  = "At least one role is required."
	MsgRolesNotUnique = "All roles must be unique, no duplicate values allowed"
)

// ValidateAPIKeyRoles checks that roles is a non-empty, duplicate-free subset of
// APIKeyAllowedRoles. The returned error message is client-safe.
func ValidateAPIKeyRoles(roles []Role) error {
	return validateRoles(roles, APIKeyAllowedRoles)
}

// ValidateMappingRoles checks a group or user mapping. Either a non-empty,
// duplicate-free list of known roles or the single "all" pointer is accepted.
func ValidateMappingRoles(roles []Role) error {
	if len(roles) == 1 && roles[0] == AllRolesPointer {
		return nil
	}
	return validateRoles(roles, AllRoles)
}

func validateRoles(roles []Role, allowed []Role) error {
	if len(roles) == 0 {
		return errors.New(MsgRolesRequired)
	}
	seen := make(map[Role]struct{}, len(roles))
	for _, r := range roles {
		if !slices.Contains(allowed, r) {
			return errors.New(fmt.Sprintf("Invalid role %q. Expected one of: %s.", r, joinRoles(allowed)))
		}
		if _, dup := seen[r]; dup {
			return errors.New(MsgRolesNotUnique)
		}
		seen[r] = struct{}{}
	}
	return nil
}

func joinRoles(roles []Role) string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return strings.Join(out, ", ")
}
