package domain

// GroupRoles maps an identity-provider group to application roles.
type GroupRoles struct {
	GroupID string
	Roles   []string
}

// UserRoles is a direct per-user role override.
type UserRoles struct {
	UserEmail string
	Roles     []string
}

// SetRolesInput replaces the roles of a group or user. Target is the group id or the
// user email.
type SetRolesInput struct {
	Target    string
	Roles     []Role
	Actor     string
	RequestID string
}
