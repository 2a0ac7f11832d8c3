// Package domain defines the authentication and authorization domain model: application
// roles, API key records, verified token claims, policy restrictions and audit entries.
package domain

// Role is an application permission tag checked against a route's required roles.
type Role string

const (
	RoleEventsManager     Role = "manage:events"
	RoleSigleadManager    Role = "manage:siglead"
	RoleTicketsScanner    Role = "scan:tickets"
	RoleTicketsManager    Role = "manage:tickets"
	RoleIAMAdmin          Role = "admin:iam"
	RoleIAMInviteOnly     Role = "invite:iam"
	RoleLinksManager      Role = "manage:links"
	RoleLinksAdmin        Role = "admin:links"
	RoleStripeLinkCreator Role = "create:stripeLink"
	RoleBypassObjectLevel Role = "bypass:ola"
	RoleRoomRequestCreate Role = "create:roomRequest"
	RoleRoomRequestUpdate Role = "update:roomRequest"
	RoleAuditLogViewer    Role = "view:auditLog"
	RoleManageOrgAPIKeys  Role = "manage:orgApiKey"
)

// AllRolesPointer is a stored role list entry that expands to every role.
const AllRolesPointer = "all"

// AllRoles lists every application role.
var AllRoles = []Role{
	RoleEventsManager,
	RoleSigleadManager,
	RoleTicketsScanner,
	RoleTicketsManager,
	RoleIAMAdmin,
	RoleIAMInviteOnly,
	RoleLinksManager,
	RoleLinksAdmin,
	RoleStripeLinkCreator,
	RoleBypassObjectLevel,
	RoleRoomRequestCreate,
	RoleRoomRequestUpdate,
	RoleAuditLogViewer,
	RoleManageOrgAPIKeys,
}

// APIKeyAllowedRoles are the roles that may be granted to an organization API key.
var APIKeyAllowedRoles = []Role{
	RoleEventsManager,
	RoleTicketsManager,
	RoleTicketsScanner,
	RoleRoomRequestCreate,
	RoleStripeLinkCreator,
	RoleLinksManager,
}

// IsValid reports whether r is a known application role.
func (r Role) IsValid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

// RunEnvironment identifies the deployment stage.
type RunEnvironment string

const (
	RunEnvironmentDev  RunEnvironment = "dev"
	RunEnvironmentProd RunEnvironment = "prod"
)
