package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"assetwatch/internal/alerts"
	"assetwatch/internal/config"
	"assetwatch/internal/engine"
	"assetwatch/internal/handlers"
	"assetwatch/internal/kafka"
	"assetwatch/internal/logger"
	"assetwatch/internal/metrics"
	"assetwatch/internal/middleware"
	"assetwatch/internal/models"
	"assetwatch/internal/notify"
	"assetwatch/internal/storage"
	"assetwatch/internal/thresholds"
	"assetwatch/internal/worker"
)

// Service is the high-level coordinator wiring storage, the ingestion
// engine, the notification dispatcher, and the HTTP surface together.
type Service struct {
	cfg *config.Config

	repo       storage.Repository
	dispatcher *notify.Dispatcher
	alerts     *alerts.Manager
	engine     *engine.Engine
	pool       *worker.Pool
	sink       *kafka.EventSink
	source     *kafka.SampleSource
	httpServer *http.Server
	sampleChan chan *models.Sample

	wg sync.WaitGroup
}

// New constructs a Service with the given config
func New(cfg *config.Config) *Service {
	return &Service{
		cfg:        cfg,
		sampleChan: make(chan *models.Sample, cfg.IngestQueueSize),
	}
}

// Run starts background goroutines and blocks until the context is
// cancelled
func (s *Service) Run(ctx context.Context) error {
	log := logger.WithComponent("service")
	log.Info().Msg("service starting")

	if err := s.initStorage(); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := s.initPipeline(); err != nil {
		return fmt.Errorf("failed to initialize pipeline: %w", err)
	}
	s.pool.Start()

	s.initHTTPServer()

	// Start HTTP server in background
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		log.Info().Str("addr", s.cfg.HTTPAddr).Msg("starting HTTP server")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server error")
		}
	}()

	// Maintenance sweep loop
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runSweeps(ctx)
	}()

	// Optional Kafka sample source
	if s.source != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.source.Run(ctx); err != nil {
				log.Error().Err(err).Msg("kafka sample source error")
			}
		}()
	}

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	return s.shutdown()
}

// initStorage selects and connects the configured repository backend
func (s *Service) initStorage() error {
	log := logger.WithComponent("service")

	switch s.cfg.StorageBackend {
	case "memory":
		s.repo = storage.NewMemoryRepository()
		log.Info().Msg("using in-memory storage")
	default:
		repo, err := storage.NewMongoRepository(s.cfg.MongoURI, s.cfg.MongoDatabase)
		if err != nil {
			return err
		}
		s.repo = repo
		log.Info().Str("database", s.cfg.MongoDatabase).Msg("connected to MongoDB")
	}
	return nil
}

// initPipeline wires the dispatcher, alert manager, engine, and workers
func (s *Service) initPipeline() error {
	log := logger.WithComponent("service")

	var email notify.EmailNotifier
	if s.cfg.SMTP.Host != "" {
		email = notify.NewSMTPNotifier(s.cfg.SMTP)
		log.Info().Str("host", s.cfg.SMTP.Host).Msg("email notifications enabled")
	}

	var sink notify.EventSink
	if s.cfg.Kafka.Enabled {
		kafkaSink, err := kafka.NewEventSink(s.cfg.Kafka.Brokers, s.cfg.Kafka.EventTopic)
		if err != nil {
			return err
		}
		s.sink = kafkaSink
		sink = kafkaSink
		log.Info().
			Strs("brokers", s.cfg.Kafka.Brokers).
			Str("topic", s.cfg.Kafka.EventTopic).
			Msg("kafka event sink enabled")
	}

	s.dispatcher = notify.NewDispatcher(notify.Config{
		Email:          email,
		EmailRecipient: s.cfg.SMTP.Recipient,
		Sink:           sink,
	})

	table := thresholds.Defaults()
	if s.cfg.ThresholdsFile != "" {
		loaded, err := thresholds.LoadFile(s.cfg.ThresholdsFile)
		if err != nil {
			return err
		}
		table = loaded
		log.Info().Str("file", s.cfg.ThresholdsFile).Msg("threshold overrides loaded")
	}

	s.alerts = alerts.NewManager(s.repo, s.dispatcher)
	s.engine = engine.New(engine.Config{
		Repo:        s.repo,
		Table:       table,
		Alerts:      s.alerts,
		Dispatcher:  s.dispatcher,
		HorizonDays: s.cfg.SweepHorizonDays,
	})

	s.pool = worker.NewPool(worker.Config{
		Ingestor:   s.engine,
		SampleChan: s.sampleChan,
		Workers:    s.cfg.IngestWorkers,
	})
	log.Info().Int("workers", s.cfg.IngestWorkers).Msg("worker pool initialized")

	if s.cfg.Kafka.Enabled {
		s.source = kafka.NewSampleSource(
			s.cfg.Kafka.Brokers,
			s.cfg.Kafka.SampleTopic,
			s.cfg.Kafka.GroupID,
			s.engine.Ingest,
		)
	}

	return nil
}

// initHTTPServer builds the HTTP surface
func (s *Service) initHTTPServer() {
	mux := http.NewServeMux()

	ingestHandler := handlers.NewIngestHandler(handlers.IngestConfig{
		SampleChan: s.sampleChan,
	})
	mux.Handle("/ingest", middleware.Chain(
		ingestHandler,
		middleware.Recovery,
		middleware.Logging,
	))

	alertsHandler := handlers.NewAlertsHandler(s.alerts)
	mux.Handle("/alerts/acknowledge", middleware.Chain(
		http.HandlerFunc(alertsHandler.Acknowledge),
		middleware.Recovery,
		middleware.Logging,
	))
	mux.Handle("/alerts/resolve", middleware.Chain(
		http.HandlerFunc(alertsHandler.Resolve),
		middleware.Recovery,
		middleware.Logging,
	))

	mux.Handle("/ws", handlers.NewWSHandler(s.dispatcher))

	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/stats", s.statsHandler)
	mux.Handle("/metrics", promhttp.Handler())

	metrics.IngestQueueCapacity.Set(float64(cap(s.sampleChan)))

	s.httpServer = &http.Server{
		Addr:         s.cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// runSweeps runs the maintenance sweep on an interval
func (s *Service) runSweeps(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	// First pass at startup
	s.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Service) sweep(ctx context.Context) {
	log := logger.WithComponent("service")

	sweepCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	if _, err := s.engine.Sweep(sweepCtx, time.Now().UTC()); err != nil {
		log.Error().Err(err).Msg("maintenance sweep failed")
	}
}

// shutdown performs graceful shutdown
func (s *Service) shutdown() error {
	log := logger.WithComponent("service")
	log.Info().Msg("initiating graceful shutdown")

	// 1. Stop accepting new HTTP requests
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Close the sample channel to signal no more incoming samples
	close(s.sampleChan)

	// 3. Wait for workers to finish (with timeout)
	done := make(chan struct{})
	go func() {
		s.pool.Stop()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("workers stopped gracefully")
	case <-time.After(15 * time.Second):
		log.Warn().Msg("worker shutdown timeout - forcing exit")
	}

	// 4. Drop subscribers and close sinks
	s.dispatcher.Shutdown()
	if s.sink != nil {
		if err := s.sink.Close(); err != nil {
			log.Error().Err(err).Msg("event sink close error")
		}
	}
	if s.source != nil {
		if err := s.source.Close(); err != nil {
			log.Error().Err(err).Msg("sample source close error")
		}
	}

	// 5. Close storage
	closeCtx, cancelClose := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelClose()
	if err := s.repo.Close(closeCtx); err != nil {
		log.Error().Err(err).Msg("storage close error")
	}

	s.wg.Wait()
	log.Info().Msg("service stopped gracefully")
	return nil
}

// healthHandler handles health check requests
func (s *Service) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":"%s"}`, time.Now().UTC().Format(time.RFC3339))
}

// statsHandler returns current statistics
func (s *Service) statsHandler(w http.ResponseWriter, r *http.Request) {
	stats := s.pool.Stats()

	payload := map[string]interface{}{
		"worker": map[string]uint64{
			"processed": stats.Processed,
			"failed":    stats.Failed,
		},
		"channel": map[string]int{
			"buffered": len(s.sampleChan),
			"capacity": cap(s.sampleChan),
		},
		"subscribers": s.dispatcher.SubscriberCount(),
	}
	if s.sink != nil {
		published, failed := s.sink.Stats()
		payload["sink"] = map[string]uint64{
			"published": published,
			"failed":    failed,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(payload)
}
