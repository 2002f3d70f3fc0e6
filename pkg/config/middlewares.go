package config

import (
	"log"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// SetupMiddleware installs the request logger, panic recovery and CORS.
// Credentials are allowed so the session cookie survives cross-origin calls,
// which needs an explicit origin list. Without one no CORS headers are sent.
func SetupMiddleware(e *echo.Echo, cfg *Config) {
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())

	origins := credentialedOrigins(cfg.AllowOrigins)
	if len(origins) == 0 {
		return
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     origins,
		AllowCredentials: true,
	}))
}

// Browsers reject a wildcard origin on credentialed requests.
func credentialedOrigins(origins []string) []string {
	var out []string
	for _, o := range origins {
		if o == "*" {
			log.Println("Ignoring ALLOW_ORIGINS=*: list the allowed origins explicitly.")
			continue
		}
		out = append(out, o)
	}
	return out
}
