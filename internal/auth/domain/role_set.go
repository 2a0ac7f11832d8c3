package domain

import (
	"encoding/json"
	"slices"
)

// RoleSet is an unordered set of roles.
type RoleSet map[Role]struct{}

// NewRoleSet builds a set from roles, collapsing duplicates.
func NewRoleSet(roles ...Role) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		s[r] = struct{}{}
	}
	return s
}

// ExpandRoles converts a stored role list into a set. A list consisting only of the
// "all" pointer expands to every application role.
func ExpandRoles(stored []string) RoleSet {
	if len(stored) == 1 && stored[0] == AllRolesPointer {
		return NewRoleSet(AllRoles...)
	}
	s := make(RoleSet, len(stored))
	for _, r := range stored {
		s[Role(r)] = struct{}{}
	}
	return s
}

// Add inserts roles into the set.
func (s RoleSet) Add(roles ...Role) {
	for _, r := range roles {
		s[r] = struct{}{}
	}
}

// Merge adds every role of other.
func (s RoleSet) Merge(other RoleSet) {
	for r := range other {
		s[r] = struct{}{}
	}
}

// Has reports whether r is in the set.
func (s RoleSet) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

// Intersect returns the roles present in both sets.
func (s RoleSet) Intersect(other RoleSet) RoleSet {
	out := make(RoleSet)
	for r := range other {
		if s.Has(r) {
			out[r] = struct{}{}
		}
	}
	return out
}

// Satisfies reports whether the set grants at least one of the required roles.
// An empty requirement is always satisfied.
func (s RoleSet) Satisfies(required RoleSet) bool {
	return len(required) == 0 || len(s.Intersect(required)) > 0
}

// Slice returns the roles sorted for stable output.
func (s RoleSet) Slice() []Role {
	out := make([]Role, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	slices.Sort(out)
	return out
}

// Strings returns the sorted roles as strings.
func (s RoleSet) Strings() []string {
	out := make([]string, 0, len(s))
	for _, r := range s.Slice() {
		out = append(out, string(r))
	}
	return out
}

func (s RoleSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

func (s *RoleSet) UnmarshalJSON(data []byte) error {
	var roles []string
	if err := json.Unmarshal(data, &roles); err != nil {
		return err
	}
	*s = ExpandRoles(roles)
	return nil
}
