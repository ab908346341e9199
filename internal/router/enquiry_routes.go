package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/returns-desk/internal/rbac"
)

// registerEnquiryRoutes covers enquiries and notifications.  These are keyed
// by their own ids; the services resolve the owning business and hide
// other tenants' rows as not found.
func registerEnquiryRoutes(api *echo.Group, h Handlers, perm permFunc) {
	read := perm(rbac.ObjEnquiries, rbac.ActRead)
	write := perm(rbac.ObjEnquiries, rbac.ActWrite)

	enq := api.Group("/enquiries")
	enq.GET("", h.Enquiries.List, read)
	enq.POST("", h.Enquiries.Create, write)
	enq.GET("/:id", h.Enquiries.Get, read)
	enq.POST("/:id/messages", h.Enquiries.Reply, write)
	enq.PUT("/:id/status", h.Enquiries.UpdateStatus, write)
	enq.POST("/:id/attachments", h.Enquiries.Upload, write)
	enq.GET("/:id/attachments/:filename", h.Enquiries.Download, read)

	n := api.Group("/notifications")
	n.GET("", h.Notifications.List, perm(rbac.ObjNotifications, rbac.ActRead))
	n.GET("/since", h.Notifications.Since, perm(rbac.ObjNotifications, rbac.ActRead))
	n.GET("/stream", h.Notifications.Stream, perm(rbac.ObjNotifications, rbac.ActRead))
	n.PUT("/read-all", h.Notifications.MarkAllRead, perm(rbac.ObjNotifications, rbac.ActWrite))
	n.PUT("/:id/read", h.Notifications.MarkRead, perm(rbac.ObjNotifications, rbac.ActWrite))
}

// registerFileRoutes covers sheet attachments and shipping labels, both
// keyed by sheet or attachment id.
func registerFileRoutes(api *echo.Group, h Handlers, perm permFunc) {
	att := api.Group("/attachments")
	att.POST("/upload/:sheetId", h.Attachments.Upload, perm(rbac.ObjAttachments, rbac.ActWrite))
	att.GET("/sheet/:sheetId", h.Attachments.List, perm(rbac.ObjAttachments, rbac.ActRead))
	att.GET("/download/:attachmentId", h.Attachments.Download, perm(rbac.ObjAttachments, rbac.ActRead))
	att.GET("/view/:attachmentId", h.Attachments.View, perm(rbac.ObjAttachments, rbac.ActRead))
	att.DELETE("/:attachmentId", h.Attachments.Delete, perm(rbac.ObjAttachments, rbac.ActWrite))

	lbl := api.Group("/labels")
	lbl.POST("/:sheetId", h.Labels.Create, perm(rbac.ObjLabels, rbac.ActWrite))
	lbl.GET("/sheet/:sheetId", h.Labels.List, perm(rbac.ObjLabels, rbac.ActRead))
}
