package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/returns-desk/internal/middleware"
	"github.com/iliyamo/returns-desk/internal/rbac"
)

type permFunc func(obj, act string) echo.MiddlewareFunc

// registerBusinessRoutes covers every route keyed by :businessId.  Scope is
// checked in middleware so a foreign tenant gets 403 before any lookup.
func registerBusinessRoutes(api *echo.Group, h Handlers, perm permFunc) {
	scope := middleware.BusinessScope("businessId")

	api.GET("/businesses", h.Businesses.List, perm(rbac.ObjBusinesses, rbac.ActRead))
	api.POST("/businesses", h.Businesses.Create, perm(rbac.ObjBusinesses, rbac.ActWrite))
	api.GET("/businesses/:businessId", h.Businesses.Get, perm(rbac.ObjBusinesses, rbac.ActRead), scope)

	sheets := api.Group("/sheets/:businessId", scope)
	sheets.GET("", h.Sheets.List, perm(rbac.ObjSheets, rbac.ActRead))
	sheets.POST("", h.Sheets.Create, perm(rbac.ObjSheets, rbac.ActWrite))
	sheets.PUT("", h.Sheets.Update, perm(rbac.ObjSheets, rbac.ActWrite))
	sheets.DELETE("", h.Sheets.Delete, perm(rbac.ObjSheets, rbac.ActWrite))

	stats := api.Group("/stats/:businessId", scope, perm(rbac.ObjStats, rbac.ActRead))
	stats.POST("", h.Stats.Basic)
	stats.POST("/advanced", h.Stats.Advanced)

	bm := api.Group("/businesses/:businessId/backmarket", scope)
	bm.GET("/credentials", h.Credentials.Get, perm(rbac.ObjCredentials, rbac.ActRead))
	bm.PUT("/credentials", h.Credentials.Put, perm(rbac.ObjCredentials, rbac.ActWrite))
	bm.DELETE("/credentials", h.Credentials.Delete, perm(rbac.ObjCredentials, rbac.ActWrite))
	bm.GET("/orders/:orderId", h.Credentials.LookupOrder, perm(rbac.ObjCredentials, rbac.ActRead))
}
