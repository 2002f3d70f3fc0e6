package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/instaflan/web/internal/dialogs"
	"github.com/instaflan/web/internal/modal"
	"github.com/instaflan/web/internal/workspace"
	"github.com/instaflan/web/validators"
)

// ModalHandler drives the single dialog slot of a session
type ModalHandler struct {
	registry *workspace.Registry
}

// NewModalHandler creates a new ModalHandler
func NewModalHandler(registry *workspace.Registry) *ModalHandler {
	return &ModalHandler{registry: registry}
}

type openModalRequest struct {
	Kind   string `json:"kind" form:"kind" validate:"required"`
	PostID string `json:"postId" form:"postId"`
	UserID string `json:"userId" form:"userId"`
}

// RegisterModalRoutes registers dialog routes
func (h *ModalHandler) RegisterModalRoutes(g *echo.Group) {
	g.GET("/ui/modal", h.GetModal)
	g.POST("/ui/modal/open", h.OpenModal)
	g.POST("/ui/modal/close", h.CloseModal)
	g.POST("/ui/modal/submit", h.SubmitModal)
	g.GET("/ui/modal/listing", h.GetListing)
}

func describe(ws *workspace.Workspace) echo.Map {
	m, ok := ws.Modals.Active()
	if !ok {
		return echo.Map{"modal": nil}
	}
	return echo.Map{"modal": modal.Describe(m)}
}

// GetModal returns the open dialog, if any
func (h *ModalHandler) GetModal(c echo.Context) error {
	ws, err := getWorkspace(c, h.registry)
	if err != nil {
		return err
	}
	return success(c, describe(ws))
}

// OpenModal opens a dialog, replacing whichever one was open.
func (h *ModalHandler) OpenModal(c echo.Context) error {
	ws, err := getWorkspace(c, h.registry)
	if err != nil {
		return err
	}
	var req openModalRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return httpError(err)
	}

	needPost := func() error { return validators.ValidateID(req.PostID) }
	needUser := func() error { return validators.ValidateID(req.UserID) }

	switch modal.Kind(req.Kind) {
	case modal.KindCreatePost:
		ws.OpenCreatePost()
	case modal.KindCreateComment:
		if err := needPost(); err != nil {
			return httpError(err)
		}
		ws.OpenCreateComment(req.PostID)
	case modal.KindDeletePost:
		if err := needPost(); err != nil {
			return httpError(err)
		}
		ws.OpenDeletePost(req.PostID)
	case modal.KindEditPost:
		if err := needPost(); err != nil {
			return httpError(err)
		}
		ws.OpenEditPost(req.PostID)
	case modal.KindEditUser:
		if err := ws.OpenEditUser(c.Request().Context()); err != nil {
			return httpError(err)
		}
	case modal.KindShowFollowers, "followers":
		if err := needUser(); err != nil {
			return httpError(err)
		}
		ws.OpenFollowers(req.UserID)
	case modal.KindShowFollowing, "following":
		if err := needUser(); err != nil {
			return httpError(err)
		}
		ws.OpenFollowing(req.UserID)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "Unknown dialog: "+req.Kind)
	}
	return success(c, describe(ws))
}

// CloseModal dismisses the open dialog without running its continuation
func (h *ModalHandler) CloseModal(c echo.Context) error {
	ws, err := getWorkspace(c, h.registry)
	if err != nil {
		return err
	}
	ws.Modals.Close()
	return success(c, describe(ws))
}

// SubmitModal submits the open dialog's form. Validation failures keep it open.
func (h *ModalHandler) SubmitModal(c echo.Context) error {
	ws, err := getWorkspace(c, h.registry)
	if err != nil {
		return err
	}
	var form dialogs.Form
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	if err := ws.Dialogs.Submit(c.Request().Context(), form); err != nil {
		if validators.IsValidationError(err) || errors.Is(err, modal.ErrNoActiveModal) {
			return httpError(err)
		}
		// the error dialog has replaced the form
		return c.JSON(http.StatusOK, echo.Map{
			"success": false,
			"error":   err.Error(),
			"data":    describe(ws),
		})
	}
	return success(c, describe(ws))
}

// GetListing returns the users listed by an open followers or following dialog
func (h *ModalHandler) GetListing(c echo.Context) error {
	ws, err := getWorkspace(c, h.registry)
	if err != nil {
		return err
	}
	users, err := ws.Dialogs.Listing(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return success(c, echo.Map{"users": users})
}
