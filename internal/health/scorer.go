package health

import (
	"time"

	"assetwatch/internal/models"
)

// Window is the trailing period of active alerts that counts against an
// asset's health score.
const Window = 7 * 24 * time.Hour

// Score boundaries for status derivation
const (
	failedBelow      = 30
	maintenanceBelow = 70
)

// Penalty applied on top of the alert penalties when a manufacturing
// asset's scheduled maintenance is overdue.
const overduePenalty = 30

// Recompute derives an asset's health score and status from its active
// alerts in the trailing window and its maintenance schedule. Idempotent
// given the same inputs; the caller persists the result.
//
// The returned status follows the score: below 30 the asset is failed,
// below 70 it needs maintenance, and a healthy score only changes the
// status when it restores a previously failed asset. An externally-set
// inactive state is never overridden by a healthy score.
func Recompute(asset *models.Asset, activeAlerts []models.Alert, now time.Time) (float64, models.AssetStatus) {
	var penalty float64
	for _, alert := range activeAlerts {
		penalty += alert.Severity.HealthPenalty()
	}

	score := clamp(100 - penalty)

	if asset.Type == models.AssetManufacturing && asset.MaintenanceOverdue(now) {
		score = clamp(score - overduePenalty)
	}

	status := asset.Status
	switch {
	case score < failedBelow:
		status = models.StatusFailed
	case score < maintenanceBelow:
		status = models.StatusMaintenance
	case asset.Status == models.StatusFailed:
		status = models.StatusActive
	}

	return score, status
}

func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
