package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/instaflan/web/internal/apiclient"
	"github.com/instaflan/web/internal/session"
	"github.com/instaflan/web/internal/testutil"
	"github.com/instaflan/web/validators"
)

func newServer(opts ...GuardOption) *echo.Echo {
	e := echo.New()
	e.Use(SessionGuard(session.NewStore(false), opts...))
	handler := func(c echo.Context) error {
		token, _ := apiclient.TokenFrom(c.Request().Context())
		return c.JSON(http.StatusOK, map[string]string{"token": token, "user": UserID(c)})
	}
	e.GET("/", handler)
	e.GET("/login", handler)
	e.POST("/login", handler)
	e.GET("/home", handler)
	e.GET("/profile/:id", handler)
	e.PUT("/home/posts/:id/favorite", handler)
	e.GET("/health", handler)
	return e
}

func do(e *echo.Echo, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestGuardRedirectsSignedOut(t *testing.T) {
	e := newServer()

	for _, path := range []string{"/home", "/profile/u1"} {
		rec := do(e, http.MethodGet, path, "")
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	}

	rec := do(e, http.MethodPut, "/home/posts/p1/favorite", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/login", "").Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/health", "").Code)
}

func TestGuardRedirectsSignedInAwayFromLogin(t *testing.T) {
	e := newServer()
	token := testutil.SessionToken(t, "u1")

	for _, path := range []string{"/", "/login"} {
		rec := do(e, http.MethodGet, path, token)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/home", rec.Header().Get("Location"))
	}
	assert.Equal(t, http.StatusOK, do(e, http.MethodPost, "/login", token).Code)
}

func TestGuardPassesTokenAndSubject(t *testing.T) {
	e := newServer()
	token := testutil.SessionToken(t, "u1")

	rec := do(e, http.MethodGet, "/home", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), token)
	assert.Contains(t, rec.Body.String(), `"user":"u1"`)
}

func TestGuardClearsBadCookie(t *testing.T) {
	e := newServer()

	rec := do(e, http.MethodGet, "/home", "not-a-jwt")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, session.CookieName, cookies[0].Name)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestGuardHandsClearedTokenToHook(t *testing.T) {
	var stale []string
	e := newServer(OnStaleToken(func(token string) { stale = append(stale, token) }))

	do(e, http.MethodGet, "/home", testutil.SessionToken(t, "u1"))
	assert.Empty(t, stale)

	rec := do(e, http.MethodPost, "/login", "not-a-jwt")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"not-a-jwt"}, stale)
}

func TestPrometheusMiddlewareRecordsErrors(t *testing.T) {
	e := echo.New()
	e.Use(PrometheusMiddleware("test"))
	e.GET("/boom", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "short and stout")
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestErrorType(t *testing.T) {
	assert.Equal(t, "validation", errorType(validators.ValidateText(" ")))
	assert.Equal(t, "session", errorType(apiclient.ErrSessionExpired))
	assert.Equal(t, "api", errorType(&apiclient.APIError{Message: "nope"}))
	assert.Equal(t, "status", errorType(&apiclient.StatusError{Context: "x", Status: 500}))
	assert.Equal(t, "unknown", errorType(errors.New("other")))
}
