package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer  string // Issuer claim for access tokens (default: authd)
	AppName string // Display name used in emails and TOTP provisioning (default: Authd)

	DatabaseFile   string // Path to SQLite database file (default: ./authd.db)
	PepperFile     string // Path to file containing pepper for password hashing (default: ./pepper)
	SigningKeyFile string // Optional: path to a PEM-encoded Ed25519 private key; ephemeral keys when unset

	TokenStore string // Verification token backend (sqlite, redis) (default: sqlite)
	RedisAddr  string // Redis address, required when TokenStore is redis
	RedisDB    int    // Redis database number (default: 0)

	FrontendURL     string        // Base URL used to build verification links (default: http://localhost:3000)
	AccessTTL       time.Duration // Access token lifetime (default: 1h)
	VerificationTTL time.Duration // Email verification link lifetime (default: 24h)

	SMTPHost     string // SMTP relay host; mail is logged instead of sent when unset
	SMTPPort     int    // SMTP relay port (default: 587)
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string // From address (default: no-reply@localhost)
	SMTPFromName string // Display name for the From header
	SMTPUseTLS   bool   // Use implicit TLS instead of plaintext/STARTTLS

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:         getEnvOrDefault("AUTHD_ISSUER", "authd"),
		AppName:        getEnvOrDefault("AUTHD_APP_NAME", "Authd"),
		DatabaseFile:   getEnvOrDefault("AUTHD_DATABASE_FILE", "authd.db"),
		PepperFile:     getEnvOrDefault("AUTHD_PEPPER_FILE", "pepper"),
		SigningKeyFile: os.Getenv("AUTHD_SIGNING_KEY_FILE"),

		TokenStore: getEnvOrDefault("AUTHD_TOKEN_STORE", "sqlite"),
		RedisAddr:  getEnvOrDefault("AUTHD_REDIS_ADDR", "localhost:6379"),
		RedisDB:    getEnvIntOrDefault("AUTHD_REDIS_DB", 0),

		FrontendURL:     getEnvOrDefault("AUTHD_FRONTEND_URL", "http://localhost:3000"),
		AccessTTL:       getEnvDurationOrDefault("AUTHD_ACCESS_TTL", 1*time.Hour),
		VerificationTTL: getEnvDurationOrDefault("AUTHD_VERIFICATION_TTL", 24*time.Hour),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnvIntOrDefault("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     getEnvOrDefault("SMTP_FROM", "no-reply@localhost"),
		SMTPFromName: os.Getenv("SMTP_FROM_NAME"),
		SMTPUseTLS:   getEnvOrDefault("SMTP_USE_TLS", "false") == "true",

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
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

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
