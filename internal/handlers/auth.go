package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/instaflan/web/internal/models"
	"github.com/instaflan/web/internal/repositories"
	"github.com/instaflan/web/internal/session"
	"github.com/instaflan/web/internal/workspace"
)

// AuthHandler handles sign-in, sign-up and sign-out
type AuthHandler struct {
	userRepository repositories.UserRepository
	sessions       *session.Store
	registry       *workspace.Registry
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userRepo repositories.UserRepository, sessions *session.Store, registry *workspace.Registry) *AuthHandler {
	return &AuthHandler{
		userRepository: userRepo,
		sessions:       sessions,
		registry:       registry,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.GET("/", h.screen("landing"))
	g.GET("/login", h.screen("login"))
	g.GET("/register", h.screen("register"))
	g.POST("/login", h.Login)
	g.POST("/register", h.Register)
	g.POST("/logout", h.Logout)
}

// screen describes a signed-out page. Signed-in visitors never reach it.
func (h *AuthHandler) screen(name string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return success(c, echo.Map{"screen": name})
	}
}

// Login exchanges credentials for a session token and stores it in the cookie.
// API failures are returned with their message untouched.
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return httpError(err)
	}

	token, err := h.userRepository.Authenticate(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		c.Logger().Infof("login failed for %s: %v", req.Email, err)
		return httpError(err)
	}

	h.sessions.Create(c, token)
	return c.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"redirect": "/home",
	})
}

// Register creates the account; the user signs in afterwards.
func (h *AuthHandler) Register(c echo.Context) error {
	var req models.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return httpError(err)
	}

	if err := h.userRepository.Register(c.Request().Context(), req.Name, req.Email, req.Password); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"success":  true,
		"redirect": "/login",
	})
}

// Logout forgets the session's UI state and clears the cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	if token, ok := h.sessions.Token(c); ok {
		h.registry.Drop(token)
	}
	h.sessions.Delete(c)
	return c.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"redirect": "/login",
	})
}
