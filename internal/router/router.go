package router

import (
	"log"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/instaflan/web/internal/handlers"
	"github.com/instaflan/web/internal/middleware"
	"github.com/instaflan/web/internal/repositories"
	"github.com/instaflan/web/internal/session"
	"github.com/instaflan/web/internal/workspace"
	"github.com/instaflan/web/pkg/config"
)

const serviceName = "instaflan-web"

// Deps are the long-lived objects the handlers are built from.
type Deps struct {
	Config   *config.Config
	Users    repositories.UserRepository
	Sessions *session.Store
	Registry *workspace.Registry
}

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo, deps Deps) {
	config.SetupMiddleware(e, deps.Config)
	e.Use(middleware.PrometheusMiddleware(serviceName))
	e.Use(middleware.SessionGuard(deps.Sessions, middleware.OnStaleToken(deps.Registry.Drop)))
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Deps) {
	e.GET("/health", handlers.HealthCheck)
	e.GET(deps.Config.MetricsPath, echo.WrapHandler(promhttp.Handler()))
	middleware.RegisterWorkspaceGauge(serviceName, deps.Registry.Len)
	log.Printf("Metrics exposed on %s.", deps.Config.MetricsPath)

	root := e.Group("")

	authHandler := handlers.NewAuthHandler(deps.Users, deps.Sessions, deps.Registry)
	authHandler.RegisterAuthRoutes(root)
	log.Println("Auth routes configured.")

	// Everything below sits behind SessionGuard's protected prefixes.
	feedHandler := handlers.NewFeedHandler(deps.Registry)
	feedHandler.RegisterFeedRoutes(root)
	log.Println("Feed routes configured.")

	likeHandler := handlers.NewLikeHandler(deps.Registry)
	likeHandler.RegisterLikeRoutes(root)
	log.Println("Favorite routes configured.")

	userHandler := handlers.NewUserHandler(deps.Registry)
	userHandler.RegisterProfileRoutes(root)
	log.Println("Profile routes configured.")

	followHandler := handlers.NewFollowHandler(deps.Registry)
	followHandler.RegisterFollowRoutes(root)
	log.Println("Follow routes configured.")

	notificationHandler := handlers.NewNotificationHandler(deps.Registry)
	notificationHandler.RegisterNotificationRoutes(root)
	log.Println("Notification routes configured.")

	chatHandler := handlers.NewChatHandler(deps.Registry)
	chatHandler.RegisterChatRoutes(root)
	log.Println("Chat routes configured.")

	modalHandler := handlers.NewModalHandler(deps.Registry)
	modalHandler.RegisterModalRoutes(root)
	userInfoHandler := handlers.NewUserInfoHandler(deps.Registry)
	userInfoHandler.RegisterUserInfoRoutes(root)
	log.Println("UI state routes configured.")

	log.Println("All routes configured.")
}
