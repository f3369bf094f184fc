package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config keeps runtime settings for the server, the bot and telemetry.
type Config struct {
	DatabaseURL    string
	TelegramToken  string
	ReportInterval time.Duration
	CleanupAt      string
	ServerPort     string
	Location       *time.Location
	CORSOrigins    []string
	LogLevel       string

	// OpenTelemetry settings. An empty endpoint disables export.
	OTLPEndpoint string
	ServiceName  string
	Environment  string
}

// BotEnabled reports whether a Telegram token was configured.
func (c Config) BotEnabled() bool {
	return c.TelegramToken != ""
}

// TelemetryEnabled reports whether an OTLP endpoint was configured.
func (c Config) TelemetryEnabled() bool {
	return c.OTLPEndpoint != ""
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		DatabaseURL:    getEnv("DATABASE_URL", "todo_planner.db"),
		TelegramToken:  strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		ReportInterval: parseInterval(strings.TrimSpace(os.Getenv("REPORT_INTERVAL_HOURS"))),
		CleanupAt:      getEnv("CLEANUP_AT", "03:00"),
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		CORSOrigins:    parseList(getEnv("CORS_ORIGINS", "*")),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		OTLPEndpoint:   strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
		ServiceName:    getEnv("OTEL_SERVICE_NAME", "todo-planner"),
		Environment:    getEnv("ENVIRONMENT", "development"),
	}

	if cfg.ReportInterval == 0 {
		cfg.ReportInterval = 24 * time.Hour
	}

	loc, err := parseLocation(strings.TrimSpace(os.Getenv("TIMEZONE")))
	if err != nil {
		return cfg, err
	}
	cfg.Location = loc

	if _, err := time.Parse("15:04", cfg.CleanupAt); err != nil {
		return cfg, fmt.Errorf("CLEANUP_AT must be HH:MM, got %q", cfg.CleanupAt)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseInterval(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}

func parseLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE: %w", err)
	}
	return loc, nil
}

func parseList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
