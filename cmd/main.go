package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"patient-dashboard/internal/client"
	"patient-dashboard/internal/config"
	"patient-dashboard/internal/dashboard"
	"patient-dashboard/internal/database"
	"patient-dashboard/internal/events"
	"patient-dashboard/internal/models"
	"patient-dashboard/internal/web"

	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	log.Println("Starting Patient Dashboard...")
	cfg := config.LoadConfig()
	setupLogging(cfg.LogFile, cfg.LogToConsole)
	logConfiguration(cfg)

	sortBy, err := models.ParseSortField(cfg.DefaultSortBy)
	if err != nil {
		log.Fatalf("FATAL: DEFAULT_SORT_BY: %v", err)
	}
	order, err := models.ParseSortOrder(cfg.DefaultOrder)
	if err != nil {
		log.Fatalf("FATAL: DEFAULT_ORDER: %v", err)
	}

	var (
		repo     *database.Repository
		recorder client.Recorder
		journal  web.Journal
	)
	if cfg.JournalDBPath != "" {
		repo, err = database.NewRepository(cfg.JournalDBPath)
		if err != nil {
			log.Fatalf("Failed to initialize fetch journal: %v", err)
		}
		defer repo.Close()
		recorder, journal = repo, repo
	}

	publisher, err := events.NewPublisher(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize event sink: %v", err)
	}

	apiClient := client.NewClient(cfg.APIBase, cfg.RequestTimeout, recorder)
	store := dashboard.NewStore(apiClient, sortBy, order)
	server := web.NewServer(cfg, store, journal)

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout(cfg.RequestTimeout),
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Shutdown signal received, stopping dashboard...")
		cancel()
	}()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		server.Run(ctx)
	}()

	if publisher != nil {
		notifier := events.NewNotifier(publisher)
		unwatch := store.Watch(notifier.Observe)
		defer unwatch()
		wg.Add(1)
		go func() {
			defer wg.Done()
			notifier.Run(ctx)
		}()
	}

	if repo != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			repo.RunHousekeepingCycle(ctx, cfg.JournalRetention)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("Dashboard listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("HTTP server error: %v", err)
			cancel()
		}
	}()

	// Initial load. The outcome is on the dashboard either way.
	wg.Add(1)
	go func() {
		defer wg.Done()
		store.Start(ctx)
	}()

	log.Println("🚀 Dashboard started successfully.")
	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	// Form loads outlive their request; stop them before the journal closes.
	store.Shutdown()

	wg.Wait()
	log.Println("All services closed. Exiting.")
}

// writeTimeout leaves room for a form post to wait on the backend. Without
// a request timeout there is no bound to add to.
func writeTimeout(requestTimeout time.Duration) time.Duration {
	if requestTimeout <= 0 {
		return 0
	}
	return requestTimeout + 15*time.Second
}

func setupLogging(filename string, logToConsole bool) {
	logFile := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    5,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}
	if logToConsole {
		mw := io.MultiWriter(os.Stdout, logFile)
		log.SetOutput(mw)
	} else {
		log.SetOutput(logFile)
	}
}

func logConfiguration(cfg *config.Config) {
	log.Println("--- Dashboard Configuration ---")
	log.Printf("Patient API Base: %s", cfg.APIBase)
	log.Printf("Listen Address: %s", cfg.ListenAddr)
	log.Printf("Request Timeout: %s", cfg.RequestTimeout)
	log.Printf("Default Sort: %s/%s", cfg.DefaultSortBy, cfg.DefaultOrder)

	if cfg.JournalDBPath != "" {
		log.Printf("Fetch Journal: %s (retention %s)", cfg.JournalDBPath, cfg.JournalRetention)
	} else {
		log.Println("Fetch Journal: [DISABLED]")
	}

	log.Printf("Event Sink: %s", cfg.EventSink)
	switch cfg.EventSink {
	case "mqtt":
		log.Printf("MQTT Broker URL: %s", cfg.MQTTBroker)
		if cfg.MQTTPassword != "" {
			log.Println("MQTT Password: [SET]")
		} else {
			log.Println("MQTT Password: [NOT SET]")
		}
	case "kafka":
		log.Printf("Kafka Brokers: %s (topic %s)", cfg.KafkaBrokers, cfg.KafkaTopic)
	}
	log.Println("-------------------------------")
}
