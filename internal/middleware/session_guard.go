package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/instaflan/web/internal/apiclient"
	"github.com/instaflan/web/internal/session"
	"github.com/instaflan/web/validators"
)

const (
	tokenKey  = "sessionToken"
	userIDKey = "userID"
)

var (
	protectedPrefixes = []string{"/home", "/profile", "/messages", "/explorer", "/notifications", "/ui"}
	publicPaths       = []string{"/", "/login", "/register"}
)

func isProtected(path string) bool {
	for _, p := range protectedPrefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

func isPublic(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}

type guardOptions struct {
	onStale func(token string)
}

type GuardOption func(*guardOptions)

// OnStaleToken runs fn with the token of every cookie the guard clears.
func OnStaleToken(fn func(token string)) GuardOption {
	return func(o *guardOptions) { o.onStale = fn }
}

// SessionGuard keeps signed-out visitors away from the app screens and signed-in
// ones away from the login pages. A cookie holding an unusable token is cleared.
// For authenticated requests the token is put on the request context for the API client.
func SessionGuard(store *session.Store, opts ...GuardOption) echo.MiddlewareFunc {
	var o guardOptions
	for _, opt := range opts {
		opt(&o)
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path

			token, ok := store.Token(c)
			if ok && validators.ValidateToken(token) != nil {
				store.Delete(c)
				if o.onStale != nil {
					o.onStale(token)
				}
				ok = false
			}

			if !ok {
				if isProtected(path) {
					if req.Method == http.MethodGet {
						return c.Redirect(http.StatusSeeOther, "/login")
					}
					return echo.NewHTTPError(http.StatusUnauthorized, apiclient.ErrUnauthenticated.Error())
				}
				return next(c)
			}

			if isPublic(path) && req.Method == http.MethodGet {
				return c.Redirect(http.StatusSeeOther, "/home")
			}

			c.SetRequest(req.WithContext(apiclient.WithToken(req.Context(), token)))
			c.Set(tokenKey, token)

			// The signature was issued by the API; only the subject is read here.
			claims := &jwt.RegisteredClaims{}
			if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
				c.Set(userIDKey, claims.Subject)
			}

			return next(c)
		}
	}
}

// Token returns the session token attached by SessionGuard.
func Token(c echo.Context) (string, bool) {
	token, ok := c.Get(tokenKey).(string)
	return token, ok && token != ""
}

// UserID returns the subject of the session token, when it carries one.
func UserID(c echo.Context) string {
	id, _ := c.Get(userIDKey).(string)
	return id
}
