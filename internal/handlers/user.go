package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/instaflan/web/internal/workspace"
)

// UserHandler serves profile pages
type UserHandler struct {
	registry *workspace.Registry
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(registry *workspace.Registry) *UserHandler {
	return &UserHandler{registry: registry}
}

// RegisterProfileRoutes registers profile routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile/:id", h.GetProfile)
	g.GET("/profile/:id/posts", h.tab(false))
	g.GET("/profile/:id/fav-posts", h.tab(true))
}

// GetProfile loads the profile owner and reports whether it is the current user.
func (h *UserHandler) GetProfile(c echo.Context) error {
	ws, err := getWorkspace(c, h.registry)
	if err != nil {
		return err
	}
	userID, err := validID(c, "id")
	if err != nil {
		return err
	}

	if err := ws.Profile.Load(c.Request().Context(), userID); err != nil {
		return httpError(err)
	}
	user, _ := ws.Profile.User()
	return success(c, echo.Map{
		"user": user,
		"own":  ws.Profile.Own(),
	})
}

// tab loads the posts or favorite posts of the profile, loading the profile first if needed.
func (h *UserHandler) tab(fav bool) echo.HandlerFunc {
	return func(c echo.Context) error {
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
		list, err := ws.Profile.Tab(fav)
		if err != nil {
			return httpError(err)
		}
		if err := list.Load(ctx); err != nil {
			return httpError(err)
		}
		return success(c, echo.Map{"posts": list.Posts()})
	}
}
