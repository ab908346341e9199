package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func u64(v uint64) *uint64 { return &v }

func TestAssertBusinessScope(t *testing.T) {
	admin5 := Principal{UserID: 10, Role: BusinessAdmin, BusinessID: u64(5)}
	user5 := Principal{UserID: 11, Role: User, BusinessID: u64(5)}
	super := Principal{UserID: 1, Role: SuperAdmin}
	orphan := Principal{UserID: 12, Role: User}

	assert.NoError(t, AssertBusinessScope(admin5, 5))
	assert.NoError(t, AssertBusinessScope(user5, 5))
	assert.ErrorIs(t, AssertBusinessScope(admin5, 6), ErrForbidden)
	assert.ErrorIs(t, AssertBusinessScope(user5, 4), ErrForbidden)
	assert.ErrorIs(t, AssertBusinessScope(orphan, 5), ErrForbidden)
	assert.ErrorIs(t, AssertBusinessScope(orphan, 0), ErrForbidden)

	for _, id := range []uint64{1, 5, 6, 999} {
		assert.NoError(t, AssertBusinessScope(super, id))
	}
}

func TestScopeFilter(t *testing.T) {
	assert.Nil(t, ScopeFilter(Principal{Role: SuperAdmin, BusinessID: u64(3)}))
	f := ScopeFilter(Principal{Role: User, BusinessID: u64(3)})
	require.NotNil(t, f)
	assert.Equal(t, uint64(3), *f)
}

func TestRoleNames(t *testing.T) {
	assert.Equal(t, "SuperAdmin", SuperAdmin.Name())
	assert.Equal(t, "Unknown", Role(9).Name())
	r, ok := ParseRole("businessadmin")
	assert.True(t, ok)
	assert.Equal(t, BusinessAdmin, r)
	_, ok = ParseRole("root")
	assert.False(t, ok)
}

func TestEnforcer(t *testing.T) {
	en, err := NewEnforcer()
	require.NoError(t, err)

	assert.True(t, en.Allowed(SuperAdmin, ObjCredentials, ActWrite))
	assert.True(t, en.Allowed(BusinessAdmin, ObjCredentials, ActRead))
	assert.True(t, en.Allowed(User, ObjSheets, ActWrite))
	assert.False(t, en.Allowed(User, ObjCredentials, ActRead))
	assert.False(t, en.Allowed(User, ObjUsers, ActWrite))
	assert.False(t, en.Allowed(BusinessAdmin, ObjBusinesses, ActWrite))
	assert.False(t, en.Allowed(Role(0), ObjSheets, ActRead))
}

func TestPermissionsIsCopy(t *testing.T) {
	p := User.Permissions()
	p[0] = Permission{"x", "y"}
	assert.NotEqual(t, "x", User.Permissions()[0].Object)
}
