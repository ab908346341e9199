package middleware

// identity.go holds the context helpers shared by the auth, scope and rate
// limit middleware and by handlers.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/returns-desk/internal/rbac"
)

const principalKey = "principal"

// SetPrincipal stores the authenticated caller on the request context.
func SetPrincipal(c echo.Context, p rbac.Principal) {
	c.Set(principalKey, p)
}

// Principal returns the caller stored by JWTAuth.
func Principal(c echo.Context) (rbac.Principal, bool) {
	p, ok := c.Get(principalKey).(rbac.Principal)
	return p, ok
}

// userID identifies the caller for rate limiting.  It returns "guest" when
// no principal is present.
func userID(c echo.Context) string {
	if p, ok := Principal(c); ok {
		return strconv.FormatUint(p.UserID, 10)
	}
	return "guest"
}
