package router // package router registers every HTTP route and the middleware guarding it

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/returns-desk/internal/handler"
	"github.com/iliyamo/returns-desk/internal/middleware"
	"github.com/iliyamo/returns-desk/internal/rbac"
)

// Handlers bundles the route targets built in main.
type Handlers struct {
	Auth          *handler.AuthHandler
	Businesses    *handler.BusinessHandler
	Sheets        *handler.SheetHandler
	Enquiries     *handler.EnquiryHandler
	Notifications *handler.NotificationHandler
	Stats         *handler.StatsHandler
	Credentials   *handler.CredentialsHandler
	Attachments   *handler.AttachmentHandler
	Labels        *handler.LabelHandler
}

// Deps are the cross-cutting pieces routes are guarded with.
type Deps struct {
	Auth     middleware.Authenticator
	Enforcer *rbac.Enforcer
	// Limiter runs on /api after authentication so buckets are per user.
	Limiter echo.MiddlewareFunc
	DB      handler.Pinger
}

// RegisterRoutes registers the unauthenticated health endpoints.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health)
	if db != nil {
		e.GET("/readyz", handler.Ready(db))
	}
}

// StreamRoute is the only route that accepts the token as a query
// parameter.
const StreamRoute = "/api/notifications/stream"

// Register wires the whole /api surface.  Login is the only public route;
// everything else runs JWTAuth, the rate limiter, a permission check and,
// where the path names a business, the tenant scope check.
func Register(e *echo.Echo, h Handlers, d Deps) {
	RegisterRoutes(e, d.DB)

	public := e.Group("/api")
	public.POST("/auth/login", h.Auth.Login)

	api := e.Group("/api", middleware.JWTAuth(d.Auth, StreamRoute))
	if d.Limiter != nil {
		api.Use(d.Limiter)
	}
	perm := func(obj, act string) echo.MiddlewareFunc {
		return middleware.RequirePermission(d.Enforcer, obj, act)
	}

	api.GET("/auth/me", h.Auth.Me)
	api.GET("/users", h.Auth.ListUsers, perm(rbac.ObjUsers, rbac.ActRead))
	api.POST("/users", h.Auth.CreateUser, perm(rbac.ObjUsers, rbac.ActWrite))

	registerBusinessRoutes(api, h, perm)
	registerEnquiryRoutes(api, h, perm)
	registerFileRoutes(api, h, perm)
}
