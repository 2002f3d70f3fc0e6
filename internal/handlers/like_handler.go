package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/instaflan/web/internal/workspace"
)

// LikeHandler toggles the favorite flag of posts on every list screen
type LikeHandler struct {
	registry *workspace.Registry
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(registry *workspace.Registry) *LikeHandler {
	return &LikeHandler{registry: registry}
}

// RegisterLikeRoutes registers favorite toggles for each list
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.PUT("/home/posts/:id/favorite", h.toggle("home"))
	g.PUT("/explorer/posts/:id/favorite", h.toggle("explorer"))
	g.PUT("/profile/:user/posts/:id/favorite", h.toggle("profile"))
	g.PUT("/profile/:user/fav-posts/:id/favorite", h.toggle("fav-posts"))
}

// toggle flips the post locally first, then asks the API. The list is returned
// either way so the client redraws whatever state the toggle left.
func (h *LikeHandler) toggle(screen string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ws, err := getWorkspace(c, h.registry)
		if err != nil {
			return err
		}
		postID, err := validID(c, "id")
		if err != nil {
			return err
		}
		list, found := ws.ListFor(screen)
		if found && c.Param("user") != "" {
			owner, _ := ws.Profile.User()
			found = owner.ID == c.Param("user")
		}
		if !found {
			return echo.NewHTTPError(http.StatusNotFound, "List is not loaded.")
		}

		if err := list.ToggleFavorite(c.Request().Context(), postID); err != nil {
			return httpError(err)
		}
		for _, p := range list.Posts() {
			if p.ID == postID {
				return success(c, echo.Map{"post": p})
			}
		}
		return success(c, echo.Map{"posts": list.Posts()})
	}
}
