package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/league-notifier/internal/alternates"
	"github.com/mauv0809/league-notifier/internal/config"
	"github.com/mauv0809/league-notifier/internal/database"
	"github.com/mauv0809/league-notifier/internal/dispatch"
	"github.com/mauv0809/league-notifier/internal/events"
	server "github.com/mauv0809/league-notifier/internal/http"
	"github.com/mauv0809/league-notifier/internal/league"
	"github.com/mauv0809/league-notifier/internal/lichess"
	"github.com/mauv0809/league-notifier/internal/lock"
	"github.com/mauv0809/league-notifier/internal/metrics"
	"github.com/mauv0809/league-notifier/internal/notifier"
	"github.com/mauv0809/league-notifier/internal/notifier/slack"
	"github.com/mauv0809/league-notifier/internal/preference"
	"github.com/mauv0809/league-notifier/internal/pubsub"
	"github.com/mauv0809/league-notifier/internal/urls"
)

func main() {
	// Start profiling timer
	startTime := time.Now()
	log.SetFormatter(log.JSONFormatter)
	cfg := config.Load()
	db, dbTeardown, err := database.InitDB(cfg.DBName, cfg.Turso.PrimaryURL, cfg.Turso.AuthToken)
	dbInitDuration := time.Since(startTime)
	log.Info("Database initialization time recorded", "duration_ms", dbInitDuration.Milliseconds())
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer func() {
		log.Info("Closing database connection")
		dbTeardown()
	}()

	store := league.New(db)
	metricsSvc := metrics.NewService().WithStore(metrics.New(db))
	metricsHandler := metrics.NewMetricsHandler()
	sender := &notifier.Composite{
		Chat: slack.NewNotifier(cfg.Slack.Token),
		Mail: lichess.NewClient(cfg.Lichess.BaseURL, cfg.Lichess.Token),
	}
	pubsub := pubsub.New(cfg.ProjectID)
	defer pubsub.Close()

	resolver := preference.NewResolver(store)
	dispatchCfg := dispatch.Config{SlackHost: cfg.Slack.Host, BotName: cfg.Slack.BotName}
	dispatcher := dispatch.New(resolver, metricsSvc, dispatchCfg)
	builder := urls.New(cfg.SiteURL)
	orchestrator := alternates.New(store, dispatcher, resolver, builder, dispatchCfg)
	router := events.NewRouter(
		store,
		sender,
		metricsSvc,
		dispatcher,
		orchestrator,
		builder,
		lock.New(cfg.Dispatch.RoundLockWait),
		dispatch.NewPacer(cfg.Dispatch.PaceInterval),
	)

	s := server.NewServer(
		router,
		metricsSvc,
		metricsHandler,
		cfg,
		pubsub,
	)

	// --- Record startup time ---
	startupDuration := time.Since(startTime)
	metricsSvc.SetStartupTime(startupDuration.Seconds())
	log.Info("Startup time recorded", "duration_ms", startupDuration.Milliseconds(), "event_kinds", len(router.Kinds()))

	// --- Graceful shutdown setup ---
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: s,
	}

	// Channel to listen for errors coming from the server
	serverErrors := make(chan error, 1)

	go func() {
		log.Info("Server started", "port", cfg.Port)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", "signal", sig)

		// Round start waits on the pacer, so in-flight events get the full timeout.
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Server shutdown failed", "error", err)
		} else {
			log.Info("Server gracefully stopped")
		}
	}

	log.Info("Server process shutting down")
}
