package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"assetwatch/internal/logger"
	"assetwatch/internal/metrics"
	"assetwatch/internal/models"
	"assetwatch/internal/notify"
	"assetwatch/internal/storage"
	"assetwatch/internal/thresholds"
)

// Manager owns alert creation and the status state machine. Every creation
// and every status-changing transition emits one notification event; the
// notification is best-effort and never rolls back the state change.
type Manager struct {
	repo       storage.Repository
	dispatcher *notify.Dispatcher
}

// NewManager creates an alert lifecycle manager
func NewManager(repo storage.Repository, dispatcher *notify.Dispatcher) *Manager {
	return &Manager{repo: repo, dispatcher: dispatcher}
}

// CreateFromVerdict materializes an open alert from a threshold breach
func (m *Manager) CreateFromVerdict(ctx context.Context, asset *models.Asset, kind models.MetricKind, verdict *thresholds.Verdict) (*models.Alert, error) {
	threshold := verdict.ThresholdValue
	actual := verdict.ActualValue

	alert := &models.Alert{
		ID:             uuid.NewString(),
		AssetID:        asset.ID,
		Title:          verdict.Title,
		Description:    verdict.Description,
		Severity:       verdict.Severity,
		Status:         models.AlertOpen,
		MetricKind:     kind,
		ThresholdValue: &threshold,
		ActualValue:    &actual,
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}

	return m.create(ctx, alert, asset.Name)
}

// CreateMaintenance materializes an open maintenance alert for an asset
func (m *Manager) CreateMaintenance(ctx context.Context, asset *models.Asset, reason string, severity models.Severity) (*models.Alert, error) {
	alert := &models.Alert{
		ID:          uuid.NewString(),
		AssetID:     asset.ID,
		Title:       fmt.Sprintf("Maintenance Required: %s", asset.Name),
		Description: fmt.Sprintf("Maintenance required: %s", reason),
		Severity:    severity,
		Status:      models.AlertOpen,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	return m.create(ctx, alert, asset.Name)
}

func (m *Manager) create(ctx context.Context, alert *models.Alert, assetName string) (*models.Alert, error) {
	if err := m.repo.SaveAlert(ctx, alert); err != nil {
		return nil, fmt.Errorf("create alert: %w", err)
	}

	metrics.AlertsCreatedTotal.WithLabelValues(string(alert.Severity)).Inc()
	log := logger.WithComponent("alerts")
	log.Info().
		Str("alert_id", alert.ID).
		Str("asset_id", alert.AssetID).
		Str("severity", string(alert.Severity)).
		Str("title", alert.Title).
		Msg("alert created")

	m.dispatcher.NotifyAlert(alert, assetName)
	return alert, nil
}

// Acknowledge transitions every matching open alert to acknowledged and
// returns the number of alerts actually transitioned. Alerts already past
// open, and ids that do not exist, are skipped without error; a persistence
// failure for one alert does not abort the rest of the batch.
func (m *Manager) Acknowledge(ctx context.Context, ids []string) (int, error) {
	log := logger.WithComponent("alerts")

	transitioned := 0
	for _, id := range ids {
		alert, err := m.repo.GetAlert(ctx, id)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				log.Error().Err(err).Str("alert_id", id).Msg("failed to load alert for acknowledge")
			}
			continue
		}

		if alert.Status != models.AlertOpen {
			continue
		}

		alert.Status = models.AlertAcknowledged
		alert.UpdatedAt = time.Now().UTC()
		if err := m.repo.SaveAlert(ctx, alert); err != nil {
			log.Error().Err(err).Str("alert_id", id).Msg("failed to acknowledge alert")
			continue
		}

		transitioned++
		metrics.AlertTransitionsTotal.WithLabelValues(string(models.AlertAcknowledged)).Inc()
		m.dispatcher.Broadcast(notify.AlertUpdated(alert))
	}

	if transitioned > 0 {
		m.dispatcher.Broadcast(notify.BatchUpdate("acknowledge", transitioned))
	}
	return transitioned, nil
}

// Resolve moves an alert from open or acknowledged to resolved, or to
// closed when close is set. Resolving an alert that is already terminal is
// a no-op that returns the alert unchanged. Returns storage.ErrNotFound
// when the id does not exist.
func (m *Manager) Resolve(ctx context.Context, id, resolvedBy, notes string, closeAlert bool) (*models.Alert, error) {
	alert, err := m.repo.GetAlert(ctx, id)
	if err != nil {
		return nil, err
	}

	if alert.Status.Terminal() {
		return alert, nil
	}

	target := models.AlertResolved
	if closeAlert {
		target = models.AlertClosed
	}

	if !alert.Status.CanTransition(target) {
		return nil, &models.InvalidTransitionError{From: alert.Status, To: target}
	}

	now := time.Now().UTC()
	alert.Status = target
	alert.ResolvedAt = &now
	alert.ResolvedBy = resolvedBy
	alert.ResolutionNotes = notes
	alert.UpdatedAt = now

	if err := m.repo.SaveAlert(ctx, alert); err != nil {
		return nil, fmt.Errorf("resolve alert: %w", err)
	}

	metrics.AlertTransitionsTotal.WithLabelValues(string(target)).Inc()
	log := logger.WithComponent("alerts")
	log.Info().
		Str("alert_id", alert.ID).
		Str("status", string(target)).
		Str("resolved_by", resolvedBy).
		Msg("alert resolved")

	m.dispatcher.Broadcast(notify.AlertUpdated(alert))
	return alert, nil
}

// Delete removes an alert permanently. Permitted from any state;
// permission gating lives outside the core.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.repo.DeleteAlert(ctx, id); err != nil {
		return err
	}

	log := logger.WithComponent("alerts")
	log.Info().Str("alert_id", id).Msg("alert deleted")
	return nil
}
