package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/instaflan/web/internal/workspace"
)

// UserInfoHandler serves the header badge counters
type UserInfoHandler struct {
	registry *workspace.Registry
}

// NewUserInfoHandler creates a new UserInfoHandler
func NewUserInfoHandler(registry *workspace.Registry) *UserInfoHandler {
	return &UserInfoHandler{registry: registry}
}

// RegisterUserInfoRoutes registers user info routes
func (h *UserInfoHandler) RegisterUserInfoRoutes(g *echo.Group) {
	g.GET("/ui/userinfo", h.GetUserInfo)
	g.POST("/ui/userinfo/refresh", h.RefreshUserInfo)
}

// GetUserInfo returns the last snapshot, loading one on first use.
func (h *UserInfoHandler) GetUserInfo(c echo.Context) error {
	ws, err := getWorkspace(c, h.registry)
	if err != nil {
		return err
	}
	info, ok := ws.UserInfo.Snapshot()
	if !ok {
		if err := ws.UserInfo.Load(c.Request().Context()); err != nil {
			return httpError(err)
		}
		info, _ = ws.UserInfo.Snapshot()
	}
	return success(c, info)
}

// RefreshUserInfo re-reads the counters from the API
func (h *UserInfoHandler) RefreshUserInfo(c echo.Context) error {
	ws, err := getWorkspace(c, h.registry)
	if err != nil {
		return err
	}
	if err := ws.UserInfo.Refresh(c.Request().Context()); err != nil {
		return httpError(err)
	}
	info, _ := ws.UserInfo.Snapshot()
	return success(c, info)
}
