package worker

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"assetwatch/internal/logger"
	"assetwatch/internal/metrics"
	"assetwatch/internal/models"
)

// Ingestor runs the ingestion pipeline for one sample
type Ingestor interface {
	Ingest(ctx context.Context, sample *models.Sample) error
}

// Pool manages a pool of workers that drain the sample queue into the
// ingestion engine. The engine serializes per-asset work itself, so
// workers can run fully in parallel.
type Pool struct {
	ingestor   Ingestor
	sampleChan chan *models.Sample
	workers    int

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	// Metrics
	processed atomic.Uint64
	failed    atomic.Uint64
}

// Config holds worker pool configuration
type Config struct {
	Ingestor   Ingestor
	SampleChan chan *models.Sample
	Workers    int
}

// NewPool creates a new worker pool
func NewPool(cfg Config) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		ingestor:   cfg.Ingestor,
		sampleChan: cfg.SampleChan,
		workers:    cfg.Workers,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start begins processing samples
func (p *Pool) Start() {
	log := logger.WithComponent("worker_pool")
	log.Info().Int("workers", p.workers).Msg("starting worker pool")

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop gracefully stops all workers
func (p *Pool) Stop() {
	log := logger.WithComponent("worker_pool")
	log.Info().Msg("stopping worker pool")
	p.cancel()
	p.wg.Wait()
	log.Info().Msg("worker pool stopped")
}

// worker processes samples from the channel
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	log := logger.WithComponent("worker").With().Int("worker_id", id).Logger()

	// Panic recovery
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			log.Error().
				Interface("panic", r).
				Bytes("stack", stack).
				Msg("worker panic recovered")
			metrics.PanicsRecovered.WithLabelValues("worker").Inc()
		}
	}()

	log.Info().Msg("worker started")
	defer log.Info().Msg("worker stopped")

	for {
		select {
		case <-p.ctx.Done():
			return

		case sample, ok := <-p.sampleChan:
			if !ok {
				return
			}

			metrics.IngestQueueSize.Set(float64(len(p.sampleChan)))
			p.process(sample, log)
		}
	}
}

func (p *Pool) process(sample *models.Sample, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(p.ctx, 10*time.Second)
	defer cancel()

	if err := p.ingestor.Ingest(ctx, sample); err != nil {
		p.failed.Add(1)
		log.Error().
			Err(err).
			Str("asset_id", sample.AssetID).
			Str("metric_kind", string(sample.Kind)).
			Msg("failed to ingest sample")
		return
	}

	p.processed.Add(1)
}

// Stats returns worker pool statistics
func (p *Pool) Stats() Stats {
	return Stats{
		Processed: p.processed.Load(),
		Failed:    p.failed.Load(),
	}
}

// Stats holds worker pool metrics
type Stats struct {
	Processed uint64
	Failed    uint64
}
