package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Issuer string // Issuer claim stamped into every token

	AccessSecret  string // Required outside dev: HMAC secret for access tokens
	RefreshSecret string // Required outside dev: HMAC secret for refresh tokens
	StageSecret   string // Required outside dev: HMAC secret for 2FA stage tokens
	ActionSecret  string // Required outside dev: HMAC secret for role action links

	AccessTTL  time.Duration // Access token lifetime (default: 15m)
	RefreshTTL time.Duration // Refresh token lifetime (default: 720h)
	ActionTTL  time.Duration // Role action link lifetime (default: 48h)

	BaseURL        string   // Public URL action/reset links point at
	AllowedOrigins []string // CORS origins (default: *)

	SMTPHost     string // Empty disables SMTP; mail is logged instead
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
	SMTPStartTLS bool

	ReviewerEmail string // Mailbox that receives role requests
	SupportEmail  string // Mailbox behind the contact form

	DatabaseFile         string        // Path to SQLite database file (default: ./itas.db)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired reset-token purge interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		Issuer: getEnvOrDefault("ITAS_ISSUER", "itas"),

		AccessSecret:  getEnvOrDefault("ITAS_ACCESS_SECRET", "dev-access-secret"),
		RefreshSecret: getEnvOrDefault("ITAS_REFRESH_SECRET", "dev-refresh-secret"),
		StageSecret:   getEnvOrDefault("ITAS_STAGE_SECRET", "dev-stage-secret"),
		ActionSecret:  getEnvOrDefault("ITAS_ACTION_SECRET", "dev-action-secret"),

		AccessTTL:  getEnvDurationOrDefault("ITAS_ACCESS_TTL", 15*time.Minute),
		RefreshTTL: getEnvDurationOrDefault("ITAS_REFRESH_TTL", 30*24*time.Hour),
		ActionTTL:  getEnvDurationOrDefault("ITAS_ACTION_TTL", 48*time.Hour),

		BaseURL:        getEnvOrDefault("ITAS_BASE_URL", "http://localhost:8080"),
		AllowedOrigins: splitList(getEnvOrDefault("ITAS_ALLOWED_ORIGINS", "*")),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnvIntOrDefault("SMTP_PORT", 587),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     getEnvOrDefault("SMTP_FROM", "no-reply@itas.local"),
		SMTPStartTLS: getEnvOrDefault("SMTP_STARTTLS", "true") == "true",

		ReviewerEmail: getEnvOrDefault("ITAS_REVIEWER_EMAIL", "reviewer@itas.local"),
		SupportEmail:  getEnvOrDefault("ITAS_SUPPORT_EMAIL", "support@itas.local"),

		DatabaseFile:         getEnvOrDefault("ITAS_DATABASE_FILE", "itas.db"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

// DevSecrets reports which signing secrets are still the dev defaults.
// Used to log a loud warning outside dev.
func (c Config) DevSecrets() []string {
	var out []string
	for name, val := range map[string]string{
		"ITAS_ACCESS_SECRET":  c.AccessSecret,
		"ITAS_REFRESH_SECRET": c.RefreshSecret,
		"ITAS_STAGE_SECRET":   c.StageSecret,
		"ITAS_ACTION_SECRET":  c.ActionSecret,
	} {
		if strings.HasPrefix(val, "dev-") {
			out = append(out, name)
		}
	}
	return out
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
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

	return defaultValue
}
