package authz

// Role is a project-scoped membership role. The set is closed: any string
// outside AllRoles is rejected at the boundary, never stored.
type Role string

const (
	// RoleAdministrator is the project owner role with full control,
	// including membership changes and project deletion.
	RoleAdministrator Role = "administrator"

	// RoleProjectAdmin manages tasks and subtasks but not the project
	// itself or its membership.
	RoleProjectAdmin Role = "project-administrator"

	// RoleMember has read access plus subtask completion toggling and
	// project notes reading.
	RoleMember Role = "member"
)

// AllRoles lists every valid role, for validation and API enumeration.
var AllRoles = []Role{RoleAdministrator, RoleProjectAdmin, RoleMember}

// ParseRole validates a wire string against the closed role set.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdministrator, RoleProjectAdmin, RoleMember:
		return Role(s), true
	}
	return "", false
}

func (r Role) String() string { return string(r) }
