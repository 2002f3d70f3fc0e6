package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/instaflan/web/internal/apiclient"
	"github.com/instaflan/web/internal/repositories"
	"github.com/instaflan/web/internal/session"
	"github.com/instaflan/web/internal/workspace"
	"github.com/instaflan/web/pkg/config"
	"github.com/instaflan/web/validators"
)

func TestSetupRoutes(t *testing.T) {
	client := apiclient.New("http://api.invalid")
	users := repositories.NewAPIUserRepository(client)
	chats := repositories.NewAPIChatRepository(client)
	registry := workspace.NewRegistry(workspace.Deps{
		Users:         users,
		Posts:         repositories.NewAPIPostRepository(client),
		Chats:         chats,
		Notifications: repositories.NewAPINotificationRepository(client),
	})
	defer registry.Close()

	e := echo.New()
	e.Validator = validators.NewValidator()
	deps := Deps{
		Config:   &config.Config{MetricsPath: "/metrics", AllowOrigins: []string{"https://app.test"}},
		Users:    users,
		Sessions: session.NewStore(false),
		Registry: registry,
	}
	SetupMiddleware(e, deps)
	SetupRoutes(e, deps)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	assert.Equal(t, http.StatusOK, get("/health").Code)
	assert.Equal(t, http.StatusSeeOther, get("/messages").Code)
	assert.Equal(t, http.StatusOK, get("/login").Code)

	metrics := get("/metrics")
	assert.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), "active_workspaces")
	assert.Contains(t, metrics.Body.String(), "http_requests_total")
}
