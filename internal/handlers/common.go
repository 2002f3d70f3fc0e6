package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/instaflan/web/internal/apiclient"
	"github.com/instaflan/web/internal/dialogs"
	"github.com/instaflan/web/internal/middleware"
	"github.com/instaflan/web/internal/modal"
	"github.com/instaflan/web/internal/screens"
	"github.com/instaflan/web/internal/workspace"
	"github.com/instaflan/web/validators"
)

// getWorkspace returns the UI state of the signed-in session.
func getWorkspace(c echo.Context, registry *workspace.Registry) (*workspace.Workspace, error) {
	token, ok := middleware.Token(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, apiclient.ErrUnauthenticated.Error())
	}
	return registry.Get(token), nil
}

// httpError maps a domain error onto a status code, keeping its message verbatim.
func httpError(err error) error {
	var apiErr *apiclient.APIError
	var statusErr *apiclient.StatusError

	status := http.StatusInternalServerError
	switch {
	case validators.IsValidationError(err), errors.As(err, &apiErr):
		status = http.StatusBadRequest
	case apiclient.IsSessionError(err):
		status = http.StatusUnauthorized
	case errors.Is(err, modal.ErrNoActiveModal), errors.Is(err, dialogs.ErrNotListing):
		status = http.StatusConflict
	case errors.Is(err, screens.ErrPostNotListed), errors.Is(err, screens.ErrProfileNotLoaded):
		status = http.StatusNotFound
	case errors.As(err, &statusErr):
		status = http.StatusBadGateway
	}
	return echo.NewHTTPError(status, err.Error())
}

func success(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    data,
	})
}

func validID(c echo.Context, name string) (string, error) {
	id := c.Param(name)
	if err := validators.ValidateID(id); err != nil {
		return "", httpError(err)
	}
	return id, nil
}
