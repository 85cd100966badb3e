package storage

import (
	"context"
	"sync"
	"time"

	"assetwatch/internal/models"
)

// MemoryRepository is an in-memory Repository for local development and
// tests. Safe for concurrent use.
type MemoryRepository struct {
	mu      sync.RWMutex
	assets  map[string]models.Asset
	metrics map[string][]models.Sample // keyed by assetID + "/" + kind
	alerts  map[string]models.Alert
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		assets:  make(map[string]models.Asset),
		metrics: make(map[string][]models.Sample),
		alerts:  make(map[string]models.Alert),
	}
}

func metricKey(assetID string, kind models.MetricKind) string {
	return assetID + "/" + string(kind)
}

func (r *MemoryRepository) GetAsset(ctx context.Context, id string) (*models.Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	asset, ok := r.assets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &asset, nil
}

func (r *MemoryRepository) SaveAsset(ctx context.Context, asset *models.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.assets[asset.ID] = *asset
	return nil
}

func (r *MemoryRepository) ListAssetsWithUpcomingMaintenance(ctx context.Context, now time.Time, horizonDays int) ([]models.Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	horizon := now.AddDate(0, 0, horizonDays)
	var assets []models.Asset
	for _, asset := range r.assets {
		if asset.Status != models.StatusActive || asset.NextMaintenanceDate == nil {
			continue
		}
		if !asset.NextMaintenanceDate.After(horizon) {
			assets = append(assets, asset)
		}
	}
	return assets, nil
}

func (r *MemoryRepository) SaveMetric(ctx context.Context, sample *models.Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := metricKey(sample.AssetID, sample.Kind)
	r.metrics[key] = append(r.metrics[key], *sample)
	return nil
}

func (r *MemoryRepository) GetPreviousMetric(ctx context.Context, assetID string, kind models.MetricKind) (*models.Sample, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	series := r.metrics[metricKey(assetID, kind)]
	if len(series) == 0 {
		return nil, ErrNotFound
	}

	latest := series[0]
	for _, s := range series[1:] {
		if s.Timestamp.After(latest.Timestamp) {
			latest = s
		}
	}
	return &latest, nil
}

func (r *MemoryRepository) SaveAlert(ctx context.Context, alert *models.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.alerts[alert.ID] = *alert
	return nil
}

func (r *MemoryRepository) GetAlert(ctx context.Context, id string) (*models.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	alert, ok := r.alerts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &alert, nil
}

func (r *MemoryRepository) DeleteAlert(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.alerts[id]; !ok {
		return ErrNotFound
	}
	delete(r.alerts, id)
	return nil
}

func (r *MemoryRepository) ListActiveAlerts(ctx context.Context, assetID string, since time.Time) ([]models.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var alerts []models.Alert
	for _, alert := range r.alerts {
		if alert.AssetID != assetID || !alert.Status.Active() {
			continue
		}
		if alert.CreatedAt.Before(since) {
			continue
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

func (r *MemoryRepository) Close(ctx context.Context) error { return nil }
