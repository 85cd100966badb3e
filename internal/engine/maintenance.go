package engine

import (
	"context"
	"math"
	"time"

	"assetwatch/internal/logger"
	"assetwatch/internal/metrics"
	"assetwatch/internal/models"
)

// Maintenance alerting boundaries, in days until the scheduled date.
// Assets inside the horizon but past alertWithin are observed only; the
// alert is created once the sweep finds them at or under alertWithin.
const (
	alertWithinDays = 3
	highWithinDays  = 1
)

// Sweep scans active assets with maintenance due inside the horizon and
// synthesizes maintenance alerts for those within the alerting window.
// At most one open maintenance alert exists per asset: a pass that finds
// one still active skips the asset instead of duplicating it. Per-asset
// failures are logged and do not stop the sweep.
func (e *Engine) Sweep(ctx context.Context, now time.Time) ([]*models.Alert, error) {
	start := time.Now()
	log := logger.WithComponent("sweep")

	assets, err := e.repo.ListAssetsWithUpcomingMaintenance(ctx, now, e.horizonDays)
	if err != nil {
		return nil, err
	}

	var created []*models.Alert
	for i := range assets {
		asset := &assets[i]
		if alert := e.sweepAsset(ctx, asset, now); alert != nil {
			created = append(created, alert)
		}
	}

	metrics.SweepDuration.Observe(time.Since(start).Seconds())
	log.Info().
		Int("assets_scanned", len(assets)).
		Int("alerts_created", len(created)).
		Msg("maintenance sweep completed")
	return created, nil
}

func (e *Engine) sweepAsset(ctx context.Context, asset *models.Asset, now time.Time) *models.Alert {
	log := logger.WithAsset(asset.ID)

	unlock := e.lockAsset(asset.ID)
	defer unlock()

	daysUntil := int(math.Floor(asset.NextMaintenanceDate.Sub(now).Hours() / 24))
	if daysUntil > alertWithinDays {
		log.Debug().Int("days_until", daysUntil).Msg("maintenance upcoming, not yet alerting")
		return nil
	}

	var alert *models.Alert
	if !e.hasOpenMaintenanceAlert(ctx, asset, now) {
		severity := models.SeverityMedium
		if daysUntil <= highWithinDays {
			severity = models.SeverityHigh
		}

		reason := "Maintenance scheduled for " + asset.NextMaintenanceDate.Format("2006-01-02")
		var err error
		alert, err = e.alerts.CreateMaintenance(ctx, asset, reason, severity)
		if err != nil {
			log.Error().Err(err).Msg("failed to create maintenance alert")
		} else {
			metrics.MaintenanceAlertsTotal.Inc()
		}
	}

	if _, _, err := e.recompute(ctx, asset, now); err != nil {
		log.Error().Err(err).Msg("failed to recompute health score during sweep")
	}
	return alert
}

// hasOpenMaintenanceAlert reports whether the asset already carries an
// active maintenance alert inside the scoring window.
func (e *Engine) hasOpenMaintenanceAlert(ctx context.Context, asset *models.Asset, now time.Time) bool {
	active, err := e.repo.ListActiveAlerts(ctx, asset.ID, now.AddDate(0, 0, -e.horizonDays))
	if err != nil {
		log := logger.WithAsset(asset.ID)
		log.Error().Err(err).Msg("failed to list active alerts for dedupe")
		return false
	}

	for _, a := range active {
		if a.IsMaintenance() {
			return true
		}
	}
	return false
}
