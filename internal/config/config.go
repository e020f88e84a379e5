package config

import (
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

const (
	defaultSiteURL       = "https://www.lichess4545.com"
	defaultEventsTopic   = "league-events"
	defaultPaceInterval  = time.Second
	defaultRoundLockWait = 5 * time.Minute
)

// Load reads configuration from environment variables and .env file.
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Info("No .env file found, reading from environment variables")
	}

	// A helper function to get a required env var. It will fail if the env var is not set.
	getEnv := func(key string) string {
		if value, ok := os.LookupEnv(key); ok {
			return value
		}
		log.Fatalf("Error: Required environment variable %s is not set.", key)
		return "" // This line is never reached
	}

	cfg := Config{
		DBName:      getEnv("DB_NAME"),
		Port:        getEnv("PORT"),
		ProjectID:   getEnv("GCP_PROJECT"),
		SiteURL:     getEnvOr("SITE_URL", defaultSiteURL),
		EventsTopic: getEnvOr("EVENTS_TOPIC", defaultEventsTopic),
		Slack: SlackConfig{
			Token:   getEnv("SLACK_BOT_TOKEN"),
			Host:    getEnvOr("SLACK_HOST", ""),
			BotName: getEnvOr("SLACK_BOT_NAME", "chesster"),
		},
		Lichess: LichessConfig{
			BaseURL: getEnvOr("LICHESS_BASE_URL", ""),
			Token:   getEnvOr("LICHESS_TOKEN", ""),
		},
		Turso: TursoConfig{
			PrimaryURL: getEnvOr("TURSO_PRIMARY_URL", ""),
			AuthToken:  getEnvOr("TURSO_AUTH_TOKEN", ""),
		},
		Dispatch: DispatchConfig{
			PaceInterval:  getDuration("PACE_INTERVAL", defaultPaceInterval),
			RoundLockWait: getDuration("ROUND_LOCK_WAIT", defaultRoundLockWait),
		},
	}
	return cfg
}

func getEnvOr(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

// getDuration parses values like "1s" or "5m". Invalid values keep the default.
func getDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		log.Warn("Invalid duration, using default", "key", key, "value", value, "default", fallback)
		return fallback
	}
	return d
}
