package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"assetwatch/internal/alerts"
	"assetwatch/internal/health"
	"assetwatch/internal/logger"
	"assetwatch/internal/metrics"
	"assetwatch/internal/models"
	"assetwatch/internal/notify"
	"assetwatch/internal/storage"
	"assetwatch/internal/thresholds"
)

// Engine drives the metric-ingestion pipeline: evaluate the sample, create
// an alert on a breach, recompute the asset's health, and publish the
// metric update. Per-asset state is serialized through a keyed lock so two
// concurrent ingestions for the same asset cannot compute a health score
// from a partial alert set; different assets proceed fully in parallel.
type Engine struct {
	repo       storage.Repository
	table      thresholds.Table
	alerts     *alerts.Manager
	dispatcher *notify.Dispatcher

	// Maintenance sweep horizon in days
	horizonDays int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Config holds engine configuration
type Config struct {
	Repo        storage.Repository
	Table       thresholds.Table
	Alerts      *alerts.Manager
	Dispatcher  *notify.Dispatcher
	HorizonDays int
}

// New creates an ingestion engine
func New(cfg Config) *Engine {
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = 7
	}

	return &Engine{
		repo:        cfg.Repo,
		table:       cfg.Table,
		alerts:      cfg.Alerts,
		dispatcher:  cfg.Dispatcher,
		horizonDays: cfg.HorizonDays,
		locks:       make(map[string]*sync.Mutex),
	}
}

// lockAsset acquires the per-asset lock and returns its release func
func (e *Engine) lockAsset(assetID string) func() {
	e.mu.Lock()
	lock, ok := e.locks[assetID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[assetID] = lock
	}
	e.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// Ingest runs the full pipeline for one metric sample. Steps after the
// asset lookup fail independently: a failed metric write or alert creation
// is logged and the rest of the pipeline still runs.
func (e *Engine) Ingest(ctx context.Context, sample *models.Sample) error {
	start := time.Now()
	log := logger.WithComponent("engine")

	sample.Normalize()
	if err := sample.Validate(); err != nil {
		metrics.SamplesIngestedTotal.WithLabelValues(string(sample.Kind), "rejected").Inc()
		return err
	}

	unlock := e.lockAsset(sample.AssetID)
	defer unlock()

	asset, err := e.repo.GetAsset(ctx, sample.AssetID)
	if err != nil {
		metrics.SamplesIngestedTotal.WithLabelValues(string(sample.Kind), "failed").Inc()
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("asset %s: %w", sample.AssetID, err)
		}
		return err
	}

	// The previous sample is read before the new one is persisted, so the
	// repository contract stays "latest stored sample".
	var previous *float64
	if t, ok := e.table[sample.Kind]; ok && t.PercentChange() {
		prev, err := e.repo.GetPreviousMetric(ctx, sample.AssetID, sample.Kind)
		if err == nil {
			previous = &prev.Value
		} else if !errors.Is(err, storage.ErrNotFound) {
			log.Error().Err(err).Str("asset_id", sample.AssetID).Msg("failed to load previous metric")
		}
	}

	degraded := false
	if err := e.repo.SaveMetric(ctx, sample); err != nil {
		degraded = true
		log.Error().Err(err).Str("asset_id", sample.AssetID).Msg("failed to persist sample")
	}

	verdict := thresholds.Evaluate(asset, sample.Kind, sample.Value, previous, e.table)
	if verdict != nil {
		if _, err := e.alerts.CreateFromVerdict(ctx, asset, sample.Kind, verdict); err != nil {
			degraded = true
			log.Error().Err(err).Str("asset_id", sample.AssetID).Msg("failed to create breach alert")
		}
	}

	if _, _, err := e.recompute(ctx, asset, time.Now().UTC()); err != nil {
		degraded = true
		log.Error().Err(err).Str("asset_id", sample.AssetID).Msg("failed to recompute health score")
	}

	// Broadcast outcome is not awaited by the ingestion path; the event is
	// built here so it reads the asset under the lock
	go e.dispatcher.Broadcast(notify.MetricUpdate(sample, asset))

	status := "ok"
	if degraded {
		status = "degraded"
	}
	metrics.SamplesIngestedTotal.WithLabelValues(string(sample.Kind), status).Inc()
	metrics.IngestDuration.Observe(time.Since(start).Seconds())
	return nil
}

// recompute rederives the asset's health score and status from its active
// alerts and persists the result. The caller must hold the asset lock.
func (e *Engine) recompute(ctx context.Context, asset *models.Asset, now time.Time) (float64, models.AssetStatus, error) {
	active, err := e.repo.ListActiveAlerts(ctx, asset.ID, now.Add(-health.Window))
	if err != nil {
		// Scoring from a partial alert set would corrupt the score; keep
		// the previous value instead.
		return asset.HealthScore, asset.Status, err
	}

	score, status := health.Recompute(asset, active, now)
	asset.HealthScore = score
	asset.Status = status
	asset.UpdatedAt = now

	if err := e.repo.SaveAsset(ctx, asset); err != nil {
		return score, status, err
	}

	metrics.AssetHealthScore.WithLabelValues(asset.ID).Set(score)
	return score, status, nil
}
