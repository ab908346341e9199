package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/returns-desk/internal/model"
	"github.com/iliyamo/returns-desk/internal/rbac"
	"github.com/iliyamo/returns-desk/internal/service"
)

type NotificationAPI interface {
	List(ctx context.Context, p rbac.Principal, limit int) (*service.NotificationList, error)
	Since(ctx context.Context, p rbac.Principal, ts time.Time, limit int) (*service.NotificationList, error)
	MarkRead(ctx context.Context, p rbac.Principal, id uint64) error
	MarkAllRead(ctx context.Context, p rbac.Principal) (int64, error)
}

// Subscriber streams live notifications; *notify.Hub implements it.
type Subscriber interface {
	Enabled() bool
	Subscribe(ctx context.Context, channels ...string) (<-chan model.Notification, error)
}

type NotificationHandler struct {
	Notifications NotificationAPI
	Live          Subscriber
	// Heartbeat is the idle interval between SSE keep-alive comments.
	Heartbeat time.Duration
}

func NewNotificationHandler(n NotificationAPI, live Subscriber) *NotificationHandler {
	return &NotificationHandler{Notifications: n, Live: live, Heartbeat: 25 * time.Second}
}

func (h *NotificationHandler) List(c echo.Context) error {
	out, err := h.Notifications.List(c.Request().Context(), principal(c), queryInt(c, "limit", 0))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Since handles GET /api/notifications/since?ts=<RFC3339>.
func (h *NotificationHandler) Since(c echo.Context) error {
	raw := c.QueryParam("ts")
	if raw == "" {
		return respondError(c, service.Missing("ts"))
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return respondError(c, service.Validation("ts must be an RFC3339 timestamp"))
	}
	out, err := h.Notifications.Since(c.Request().Context(), principal(c), ts, queryInt(c, "limit", 0))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.Notifications.MarkRead(c.Request().Context(), principal(c), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	n, err := h.Notifications.MarkAllRead(c.Request().Context(), principal(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": n})
}

// Stream handles GET /api/notifications/stream as server-sent events.
// It is a convenience on top of polling: rows are already stored, so a
// dropped stream loses nothing.
func (h *NotificationHandler) Stream(c echo.Context) error {
	if h.Live == nil || !h.Live.Enabled() {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "live notifications unavailable"})
	}
	channels := service.StreamChannels(principal(c))
	if len(channels) == 0 {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	ctx := c.Request().Context()
	events, err := h.Live.Subscribe(ctx, channels...)
	if err != nil {
		return respondError(c, service.Upstream("live notifications unavailable", err))
	}

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	beat := time.NewTicker(h.Heartbeat)
	defer beat.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-beat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return nil
			}
			w.Flush()
		case n, ok := <-events:
			if !ok {
				return nil
			}
			b, err := json.Marshal(n)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "id: %d\nevent: notification\ndata: %s\n\n", n.ID, b); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}
