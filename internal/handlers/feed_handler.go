package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/instaflan/web/internal/workspace"
)

// FeedHandler serves the home feed and the explorer
type FeedHandler struct {
	registry *workspace.Registry
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(registry *workspace.Registry) *FeedHandler {
	return &FeedHandler{registry: registry}
}

// RegisterFeedRoutes registers feed and explorer routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/home", h.GetHome)
	g.GET("/explorer", h.GetExplorer)
	g.GET("/explorer/search", h.SearchUsers)
}

// GetHome reloads the feed of followed users.
func (h *FeedHandler) GetHome(c echo.Context) error {
	ws, err := getWorkspace(c, h.registry)
	if err != nil {
		return err
	}
	if err := ws.Home.Load(c.Request().Context()); err != nil {
		return httpError(err)
	}
	return success(c, echo.Map{"posts": ws.Home.Posts()})
}

// GetExplorer loads suggested users and posts together.
func (h *FeedHandler) GetExplorer(c echo.Context) error {
	ws, err := getWorkspace(c, h.registry)
	if err != nil {
		return err
	}
	if err := ws.Explorer.Load(c.Request().Context()); err != nil {
		return httpError(err)
	}
	return success(c, echo.Map{
		"users": ws.Explorer.People(),
		"posts": ws.Explorer.Posts.Posts(),
	})
}

// SearchUsers looks users up by name (?q=).
func (h *FeedHandler) SearchUsers(c echo.Context) error {
	ws, err := getWorkspace(c, h.registry)
	if err != nil {
		return err
	}
	results, err := ws.Explorer.Search(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return httpError(err)
	}
	query, _ := ws.Explorer.Results()
	return success(c, echo.Map{
		"query":   query,
		"results": results,
	})
}
