package domain

import "fmt"

// Role is the coarse permission tier of a user. Every user holds exactly
// one role; scopes are derived from it at token issuance time.
type Role string

const (
	RoleClient    Role = "client"
	RoleDeveloper Role = "developer"
	RoleEmployer  Role = "employer"
	RoleAdmin     Role = "admin"
)

// ParseRole validates a raw role string.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleClient, RoleDeveloper, RoleEmployer, RoleAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) String() string { return string(r) }

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleDeveloper, RoleEmployer, RoleAdmin:
		return true
	}
	return false
}

// Grantable reports whether r may be assigned through the role-request
// flow. Admin is never grantable through self-service.
func (r Role) Grantable() bool {
	switch r {
	case RoleDeveloper, RoleEmployer:
		return true
	}
	return false
}

// Scope identifiers embedded in session tokens.
const (
	ScopeProfileRead  = "profile:read"
	ScopeTwoFAManage  = "2fa:manage"
	ScopeTasksRead    = "tasks:read"
	ScopeTasksWrite   = "tasks:write"
	ScopeLogsRead     = "logs:read"
	ScopeLogsWrite    = "logs:write"
	ScopeRolesManage  = "roles:manage"
	ScopeUsersManage  = "users:manage"
	ScopeReportsRead  = "reports:read"
	ScopeSupportWrite = "support:write"
)

// SetupScopes is the reduced scope set issued to a session that still has
// to complete mandatory 2FA enrolment. It can manage the enrolment and
// read the profile, nothing else.
func SetupScopes() []string {
	return []string{ScopeTwoFAManage, ScopeProfileRead}
}

// Scopes returns the full scope set for a role.
func (r Role) Scopes() []string {
	base := []string{
		ScopeProfileRead,
		ScopeTwoFAManage,
		ScopeTasksRead,
		ScopeLogsRead,
		ScopeSupportWrite,
	}
	switch r {
	case RoleDeveloper:
		return append(base, ScopeTasksWrite, ScopeLogsWrite)
	case RoleEmployer:
		return append(base, ScopeReportsRead)
	case RoleAdmin:
		return append(base,
			ScopeTasksWrite,
			ScopeLogsWrite,
			ScopeReportsRead,
			ScopeRolesManage,
			ScopeUsersManage,
		)
	default:
		return base
	}
}
