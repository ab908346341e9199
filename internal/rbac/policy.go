package rbac

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

// Objects and actions named in the permission lists.
const (
	ObjSheets        = "sheets"
	ObjAttachments   = "attachments"
	ObjEnquiries     = "enquiries"
	ObjNotifications = "notifications"
	ObjStats         = "stats"
	ObjCredentials   = "credentials"
	ObjLabels        = "labels"
	ObjUsers         = "users"
	ObjBusinesses    = "businesses"

	ActRead  = "read"
	ActWrite = "write"
)

// Permission is one (object, action) grant.
type Permission struct {
	Object string
	Action string
}

var rolePermissions = map[Role][]Permission{
	SuperAdmin: {
		{ObjSheets, ActRead}, {ObjSheets, ActWrite},
		{ObjAttachments, ActRead}, {ObjAttachments, ActWrite},
		{ObjEnquiries, ActRead}, {ObjEnquiries, ActWrite},
		{ObjNotifications, ActRead}, {ObjNotifications, ActWrite},
		{ObjStats, ActRead},
		{ObjCredentials, ActRead}, {ObjCredentials, ActWrite},
		{ObjLabels, ActRead}, {ObjLabels, ActWrite},
		{ObjUsers, ActRead}, {ObjUsers, ActWrite},
		{ObjBusinesses, ActRead}, {ObjBusinesses, ActWrite},
	},
	BusinessAdmin: {
		{ObjSheets, ActRead}, {ObjSheets, ActWrite},
		{ObjAttachments, ActRead}, {ObjAttachments, ActWrite},
		{ObjEnquiries, ActRead}, {ObjEnquiries, ActWrite},
		{ObjNotifications, ActRead}, {ObjNotifications, ActWrite},
		{ObjStats, ActRead},
		{ObjCredentials, ActRead}, {ObjCredentials, ActWrite},
		{ObjLabels, ActRead}, {ObjLabels, ActWrite},
		{ObjUsers, ActRead}, {ObjUsers, ActWrite},
		{ObjBusinesses, ActRead},
	},
	User: {
		{ObjSheets, ActRead}, {ObjSheets, ActWrite},
		{ObjAttachments, ActRead}, {ObjAttachments, ActWrite},
		{ObjEnquiries, ActRead}, {ObjEnquiries, ActWrite},
		{ObjNotifications, ActRead}, {ObjNotifications, ActWrite},
		{ObjStats, ActRead},
		{ObjLabels, ActRead}, {ObjLabels, ActWrite},
		{ObjBusinesses, ActRead},
	},
}

// Permissions returns a copy of the role's static permission list.
func (r Role) Permissions() []Permission {
	return append([]Permission(nil), rolePermissions[r]...)
}

const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj && r.act == p.act
`

// Enforcer answers "may this role do act on obj" from the static lists.
type Enforcer struct {
	e *casbin.Enforcer
}

// NewEnforcer loads every role's permission list into an in-memory casbin
// enforcer.  There is no adapter: the lists are code, not data.
func NewEnforcer() (*Enforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("rbac model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("rbac enforcer: %w", err)
	}
	for role, perms := range rolePermissions {
		for _, p := range perms {
			if _, err := e.AddPolicy(role.Name(), p.Object, p.Action); err != nil {
				return nil, fmt.Errorf("rbac policy %s %s %s: %w", role.Name(), p.Object, p.Action, err)
			}
		}
	}
	return &Enforcer{e: e}, nil
}

// Allowed reports whether role may perform act on obj.  Unknown roles and
// enforcer errors deny.
func (en *Enforcer) Allowed(role Role, obj, act string) bool {
	if !role.Valid() {
		return false
	}
	ok, err := en.e.Enforce(role.Name(), obj, act)
	return err == nil && ok
}
