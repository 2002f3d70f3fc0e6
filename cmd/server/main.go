package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/labstack/echo/v4"

	"github.com/instaflan/web/internal/apiclient"
	"github.com/instaflan/web/internal/chat"
	"github.com/instaflan/web/internal/repositories"
	"github.com/instaflan/web/internal/router"
	"github.com/instaflan/web/internal/session"
	"github.com/instaflan/web/internal/userinfo"
	"github.com/instaflan/web/internal/workspace"
	"github.com/instaflan/web/pkg/config"
	"github.com/instaflan/web/validators"
)

const userInfoTTL = 10 * time.Minute

func main() {
	// Load configuration
	cfg := config.Load()
	if cfg.APIURL == "" {
		log.Fatal("API_URL must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// REST API client and repositories
	client := apiclient.New(cfg.APIURL, apiclient.WithTimeout(cfg.APITimeout))
	users := repositories.NewAPIUserRepository(client)
	deps := workspace.Deps{
		Users:            users,
		Posts:            repositories.NewAPIPostRepository(client),
		Chats:            repositories.NewAPIChatRepository(client),
		Notifications:    repositories.NewAPINotificationRepository(client),
		FavoriteRollback: cfg.FavoriteRollback,
	}
	log.Printf("Using REST API at %s.", cfg.APIURL)

	// User info cache
	if cfg.RedisURL != "" {
		rdb, err := userinfo.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer rdb.Close()
		deps.Cache = userinfo.NewRedisCache(rdb, userInfoTTL)
		log.Println("User info cached in Redis.")
	}

	// Chat updates
	switch cfg.ChatUpdates {
	case "push":
		logger := watermill.NewSlogLogger(slog.Default())
		pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, logger)
		defer pubSub.Close()
		deps.ChatSource = chat.NewPushSource(pubSub, logger)
		deps.Publisher = chat.NewAnnouncer(pubSub)
		log.Println("Chat updates pushed in-process.")
	default:
		deps.ChatSource = chat.NewPollingSource(deps.Chats.ByID, cfg.ChatPollInterval)
		log.Printf("Chat updates polled every %s.", cfg.ChatPollInterval)
	}

	registry := workspace.NewRegistry(deps)
	defer registry.Close()
	go registry.Sweep(ctx, time.Minute, cfg.WorkspaceIdleTTL)
	log.Printf("Idle workspaces evicted after %s.", cfg.WorkspaceIdleTTL)

	// Create Echo instance
	e := echo.New()
	e.Validator = validators.NewValidator()

	routes := router.Deps{
		Config:   cfg,
		Users:    users,
		Sessions: session.NewStore(cfg.CookieSecure),
		Registry: registry,
	}
	router.SetupMiddleware(e, routes)
	router.SetupRoutes(e, routes)

	// Start server
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server stopped: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down.")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
