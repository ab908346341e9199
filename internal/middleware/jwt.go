package middleware // middleware holds the request processing shared by every route group

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/returns-desk/internal/rbac"
)

// Authenticator resolves a raw bearer token to the caller.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (rbac.Principal, error)
}

// JWTAuth validates the Bearer access token and stores the resolved
// principal in the context.  Missing, malformed, expired and revoked
// tokens all get the same 401 so callers learn nothing about why.
//
// streamRoutes lists the route paths (as registered, e.g.
// "/api/notifications/stream") where a GET may carry the token in the
// access_token query parameter instead; EventSource clients cannot set
// headers.  Every other route ignores the parameter.
func JWTAuth(auth Authenticator, streamRoutes ...string) echo.MiddlewareFunc {
	allowQuery := make(map[string]bool, len(streamRoutes))
	for _, r := range streamRoutes {
		allowQuery[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c.Request(), allowQuery[c.Path()])
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			p, err := auth.Authenticate(c.Request().Context(), raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			SetPrincipal(c, p)
			return next(c)
		}
	}
}

// bearerToken reads the Authorization header, falling back to the
// access_token query parameter on GETs when query is set.
func bearerToken(r *http.Request, query bool) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	if query && r.Method == http.MethodGet {
		return strings.TrimSpace(r.URL.Query().Get("access_token"))
	}
	return ""
}
