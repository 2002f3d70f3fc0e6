// Package session stores the API bearer token in the browser cookie.
package session

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	CookieName = "session"
	MaxAge     = 7 * 24 * time.Hour
)

// Store writes and reads the session cookie.
type Store struct {
	secure bool
	now    func() time.Time
}

func NewStore(secure bool) *Store {
	return &Store{secure: secure, now: time.Now}
}

// Create sets the session cookie to token for the next seven days.
func (s *Store) Create(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  s.now().Add(MaxAge),
		MaxAge:   int(MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Delete expires the session cookie.
func (s *Store) Delete(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Token returns the raw cookie value, if any.
func (s *Store) Token(c echo.Context) (string, bool) {
	cookie, err := c.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}
