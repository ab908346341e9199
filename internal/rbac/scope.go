package rbac

import "errors"

// ErrForbidden is returned when a valid caller targets another tenant.
var ErrForbidden = errors.New("forbidden")

// AssertBusinessScope allows SuperAdmin on any business and everyone else
// only on their own.  A non-super caller without a business never passes.
func AssertBusinessScope(p Principal, businessID uint64) error {
	if p.IsSuperAdmin() {
		return nil
	}
	if p.BusinessID == nil || *p.BusinessID != businessID || businessID == 0 {
		return ErrForbidden
	}
	return nil
}

// ScopeFilter returns the business id a tenant-scoped query must filter by,
// or nil when the caller may see every business.
func ScopeFilter(p Principal) *uint64 {
	if p.IsSuperAdmin() {
		return nil
	}
	id := p.OwnBusiness()
	return &id
}
