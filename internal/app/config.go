package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer        string // Optional: issuer claim for session tokens (default: taskd)
	SessionSecret string // Required: HS256 secret for session tokens

	DatabaseFile         string        // Optional: path to SQLite database file (default: ./taskd.db)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired-token sweep interval (default: 1h)

	SessionTTL time.Duration // Session token lifetime (default: 24h)
	TokenTTL   time.Duration // Confirmation/reset code lifetime (default: 10m)

	// SMTP relay for account-lifecycle email. Leaving Host empty switches
	// to the log-only mailer (dev).
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	EmailFrom    string
	FrontendURL  string // Linked in email bodies
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:        getEnvOrDefault("TASKD_ISSUER", "taskd"),
		SessionSecret: os.Getenv("TASKD_SESSION_SECRET"),

		DatabaseFile:         getEnvOrDefault("TASKD_DATABASE_FILE", "taskd.db"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),

		SessionTTL: getEnvDurationOrDefault("TASKD_SESSION_TTL", 24*time.Hour),
		TokenTTL:   getEnvDurationOrDefault("TASKD_TOKEN_TTL", 10*time.Minute),

		SMTPHost:     os.Getenv("TASKD_SMTP_HOST"),
		SMTPPort:     getEnvIntOrDefault("TASKD_SMTP_PORT", 587),
		SMTPUser:     os.Getenv("TASKD_SMTP_USER"),
		SMTPPassword: os.Getenv("TASKD_SMTP_PASSWORD"),
		EmailFrom:    getEnvOrDefault("TASKD_EMAIL_FROM", "taskd <no-reply@localhost>"),
		FrontendURL:  getEnvOrDefault("TASKD_FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Integer values are taken as minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
