package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/instaflan/web/internal/workspace"
)

// FollowHandler toggles following the profile on screen
type FollowHandler struct {
	registry *workspace.Registry
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(registry *workspace.Registry) *FollowHandler {
	return &FollowHandler{registry: registry}
}

// RegisterFollowRoutes registers follow routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.PUT("/profile/:id/follow", h.ToggleFollow)
}

// ToggleFollow flips the follow state before the API confirms it.
func (h *FollowHandler) ToggleFollow(c echo.Context) error {
	ws, err := getWorkspace(c, h.registry)
	if err != nil {
		return err
	}
	userID, err := validID(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if owner, loaded := ws.Profile.User(); !loaded || owner.ID != userID {
		if err := ws.Profile.Load(ctx, userID); err != nil {
			return httpError(err)
		}
	}
	if ws.Profile.Own() {
		return echo.NewHTTPError(http.StatusBadRequest, "You cannot follow yourself.")
	}
	if err := ws.Profile.ToggleFollow(ctx); err != nil {
		return httpError(err)
	}

	user, _ := ws.Profile.User()
	return success(c, echo.Map{"user": user})
}
