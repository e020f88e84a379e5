package config

import "time"

// Config holds all configuration for the application.
type Config struct {
	DBName    string
	Port      string
	SiteURL   string
	ProjectID string
	// EventsTopic is the Pub/Sub topic the cli publishes events to.
	EventsTopic string
	Slack       SlackConfig
	Lichess     LichessConfig
	Turso       TursoConfig
	Dispatch    DispatchConfig
}

type SlackConfig struct {
	Token   string
	Host    string
	BotName string
}

type LichessConfig struct {
	BaseURL string
	Token   string
}

type TursoConfig struct {
	PrimaryURL string
	AuthToken  string
}

type DispatchConfig struct {
	// PaceInterval is the wait between sends of a batch notification.
	PaceInterval time.Duration
	// RoundLockWait bounds how long round start waits for the round lock.
	RoundLockWait time.Duration
}
