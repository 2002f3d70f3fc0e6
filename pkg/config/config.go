package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             string
	Env              string
	APIURL           string
	APITimeout       time.Duration
	ChatPollInterval time.Duration
	ChatUpdates      string
	CookieSecure     bool
	FavoriteRollback bool
	RedisURL         string
	MetricsPath      string
	AllowOrigins     []string
	WorkspaceIdleTTL time.Duration
}

// Load reads the configuration from the environment, merging a .env file when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}

	return &Config{
		Port:             getEnv("PORT", "8080"),
		Env:              getEnv("ENV", "development"),
		APIURL:           getEnv("API_URL", ""),
		APITimeout:       getDuration("API_TIMEOUT", 15*time.Second),
		ChatPollInterval: getDuration("CHAT_POLL_INTERVAL", 2*time.Second),
		ChatUpdates:      getEnv("CHAT_UPDATES", "poll"),
		CookieSecure:     getBool("COOKIE_SECURE", true),
		FavoriteRollback: getBool("FAVORITE_ROLLBACK", true),
		RedisURL:         getEnv("REDIS_URL", ""),
		MetricsPath:      getEnv("METRICS_PATH", "/metrics"),
		AllowOrigins:     getList("ALLOW_ORIGINS", nil),
		WorkspaceIdleTTL: getDuration("WORKSPACE_IDLE_TTL", 30*time.Minute),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		log.Printf("Ignoring invalid %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Ignoring invalid %s=%q, using %t", key, value, defaultValue)
		return defaultValue
	}
	return b
}

func getList(key string, defaultValue []string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
