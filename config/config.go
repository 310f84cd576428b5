package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the guest-services gateway
type Config struct {
	Port     string
	LogLevel string

	// Backend is the REST backend that owns menu, orders and admins.
	BackendURL     string
	BackendTimeout time.Duration

	MenuRefreshInterval time.Duration

	SessionSecret string
	SessionTTL    time.Duration

	// TelegramBotToken verifies the WebApp initData admins sign requests with.
	TelegramBotToken string
	AdminAuthMaxAge  time.Duration

	// DatabaseURL is optional; sessions are kept in memory when empty.
	DatabaseURL string

	// RabbitMQURL is optional; confirmed orders are not published when empty.
	RabbitMQURL string

	// GoogleCredentialsPath enables the Drive dish-photo sync.
	GoogleCredentialsPath string

	ChromePath string
	PublicURL  string
}

// LoadEnvFile loads .env outside production. Values in the file override
// the process environment.
func LoadEnvFile(path string) {
	if os.Getenv("ENV") == "production" {
		return
	}
	if err := godotenv.Overload(path); err != nil {
		log.Printf("Warning: %s not loaded, using system environment variables: %v", path, err)
		return
	}
	log.Printf("Loaded environment variables from %s", path)
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Port:          strings.TrimPrefix(getEnv("PORT", "8080"), ":"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		BackendURL:    strings.TrimRight(os.Getenv("BACKEND_URL"), "/"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		DatabaseURL:   databaseURL(),
		RabbitMQURL:   os.Getenv("RABBITMQ_URL"),

		TelegramBotToken:      os.Getenv("TELEGRAM_BOT_TOKEN"),
		GoogleCredentialsPath: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		ChromePath:            os.Getenv("CHROME_PATH"),
	}

	if cfg.BackendURL == "" {
		return nil, fmt.Errorf("BACKEND_URL environment variable is not set")
	}

	var err error
	if cfg.BackendTimeout, err = getDuration("BACKEND_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.MenuRefreshInterval, err = getDuration("MENU_REFRESH_INTERVAL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.AdminAuthMaxAge, err = getDuration("ADMIN_AUTH_MAX_AGE", 24*time.Hour); err != nil {
		return nil, err
	}

	if cfg.SessionSecret == "" {
		log.Printf("Warning: SESSION_SECRET is not set, using development secret")
		cfg.SessionSecret = "dev-secret-please-change"
	}

	if cfg.TelegramBotToken == "" {
		log.Printf("Warning: TELEGRAM_BOT_TOKEN is not set, admin endpoints will refuse every request")
	}

	cfg.PublicURL = strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:"+cfg.Port), "/")
	return cfg, nil
}

// databaseURL builds the Postgres connection string from DATABASE_URL or
// the individual DB_* variables. It returns "" when neither is configured.
func databaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := os.Getenv("DB_HOST")
	user := os.Getenv("DB_USER")
	dbname := os.Getenv("DB_NAME")
	if host == "" || user == "" || dbname == "" {
		return ""
	}

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, getEnv("DB_PORT", "5432"), user, os.Getenv("DB_PASSWORD"), dbname, getEnv("DB_SSLMODE", "disable"))
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s value %q: must be positive", key, raw)
	}
	return d, nil
}
