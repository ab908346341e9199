// Package rbac holds the closed set of roles, their static permission
// lists and the tenant scoping rule applied to every business-owned
// resource.
package rbac

import "strings"

// Role is the numeric role id stored in users.role_id and carried in the
// access token.  The values are stable and seeded into the roles table.
type Role uint8

const (
	SuperAdmin    Role = 1
	BusinessAdmin Role = 2
	User          Role = 3
)

var roleNames = map[Role]string{
	SuperAdmin:    "SuperAdmin",
	BusinessAdmin: "BusinessAdmin",
	User:          "User",
}

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

func (r Role) Name() string {
	if n, ok := roleNames[r]; ok {
		return n
	}
	return "Unknown"
}

func (r Role) String() string { return r.Name() }

// ParseRole accepts a role name case-insensitively.
func ParseRole(s string) (Role, bool) {
	for r, n := range roleNames {
		if strings.EqualFold(n, strings.TrimSpace(s)) {
			return r, true
		}
	}
	return 0, false
}

// Principal is the authenticated caller as resolved from the token and the
// users table.  BusinessID is nil only for platform-level accounts.
type Principal struct {
	UserID     uint64
	Role       Role
	Username   string
	BusinessID *uint64
}

func (p Principal) IsSuperAdmin() bool { return p.Role == SuperAdmin }

// IsOperations reports whether the caller replies on behalf of the platform
// operations team rather than a business.
func (p Principal) IsOperations() bool { return p.Role == SuperAdmin }

// OwnBusiness returns the caller's business id, or 0 when there is none.
func (p Principal) OwnBusiness() uint64 {
	if p.BusinessID == nil {
		return 0
	}
	return *p.BusinessID
}
