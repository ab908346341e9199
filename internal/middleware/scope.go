package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/returns-desk/internal/rbac"
)

// BusinessScope rejects requests whose path parameter names a business the
// caller may not touch.  A non-numeric id is a 400.
func BusinessScope(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := Principal(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			id, err := strconv.ParseUint(c.Param(param), 10, 64)
			if err != nil || id == 0 {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid " + param})
			}
			if rbac.AssertBusinessScope(p, id) != nil {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
