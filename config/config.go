// config/config.go - Environment configuration
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config carries every tunable the service reads from the environment.
type Config struct {
	Port        string
	AppEnv      string
	CORSOrigins string

	JWTSecret       string
	SessionTTL      time.Duration
	ManagerPassword string

	// Snapshot store. Backend is "postgres", "redis" or "memory".
	StoreBackend string
	DatabaseURL  string
	RedisAddr    string
	RedisPass    string
	RedisDB      int

	// Mission provider.
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
	GeminiTimeout time.Duration
}

// Load reads .env (when present) and the environment, then validates the
// critical settings. It returns an error rather than exiting so tests
// can exercise it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Warn(".env file not found, using system environment variables")
	}

	cfg := &Config{
		Port:        getEnv("PORT", "3000"),
		AppEnv:      getEnv("APP_ENV", "development"),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),

		JWTSecret:       os.Getenv("JWT_SECRET"),
		SessionTTL:      getEnvDuration("SESSION_TTL", 12*time.Hour),
		ManagerPassword: os.Getenv("MANAGER_PASSWORD"),

		StoreBackend: getEnv("STORE_BACKEND", "postgres"),
		DatabaseURL:  buildDatabaseURL(),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:    os.Getenv("REDIS_PASSWORD"),
		RedisDB:      getEnvInt("REDIS_DB", 0),

		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiTimeout: getEnvDuration("GEMINI_TIMEOUT", 30*time.Second),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable must be set. Generate one with: openssl rand -base64 64")
	}
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters long")
	}
	if cfg.ManagerPassword == "" {
		return nil, fmt.Errorf("MANAGER_PASSWORD environment variable must be set")
	}

	switch cfg.StoreBackend {
	case "postgres", "redis", "memory":
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q (want postgres, redis or memory)", cfg.StoreBackend)
	}

	if cfg.AppEnv == "production" {
		if cfg.CORSOrigins == "http://localhost:3000" {
			logrus.Warn("CORS_ORIGINS not properly configured for production")
		}
		if cfg.StoreBackend == "memory" {
			logrus.Warn("memory store selected in production; scores will not survive restarts")
		}
	}

	return cfg, nil
}

// buildDatabaseURL prefers DATABASE_URL and falls back to the individual
// connection parameters.
func buildDatabaseURL() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "postgres")
	password := os.Getenv("DB_PASSWORD")
	dbname := getEnv("DB_NAME", "gemscore")
	sslmode := getEnv("DB_SSLMODE", "disable")

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
