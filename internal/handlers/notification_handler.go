package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/instaflan/web/internal/workspace"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	registry *workspace.Registry
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(registry *workspace.Registry) *NotificationHandler {
	return &NotificationHandler{registry: registry}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.DELETE("/notifications/:id", h.DeleteNotification)
	g.DELETE("/notifications", h.DeleteAllNotifications)
}

func (h *NotificationHandler) respond(c echo.Context, ws *workspace.Workspace) error {
	info, _ := ws.UserInfo.Snapshot()
	return success(c, echo.Map{
		"notifications": ws.Notifications.Items(),
		"unreadCount":   info.UnreadNotifications,
	})
}

// GetNotifications returns the notifications of the current user
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	ws, err := getWorkspace(c, h.registry)
	if err != nil {
		return err
	}
	if err := ws.Notifications.Load(c.Request().Context()); err != nil {
		return httpError(err)
	}
	return h.respond(c, ws)
}

// DeleteNotification removes one notification and refreshes the unread counters
func (h *NotificationHandler) DeleteNotification(c echo.Context) error {
	ws, err := getWorkspace(c, h.registry)
	if err != nil {
		return err
	}
	id, err := validID(c, "id")
	if err != nil {
		return err
	}
	if err := ws.Notifications.Delete(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return h.respond(c, ws)
}

// DeleteAllNotifications clears every notification
func (h *NotificationHandler) DeleteAllNotifications(c echo.Context) error {
	ws, err := getWorkspace(c, h.registry)
	if err != nil {
		return err
	}
	if err := ws.Notifications.DeleteAll(c.Request().Context()); err != nil {
		return httpError(err)
	}
	return h.respond(c, ws)
}
