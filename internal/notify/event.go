package notify

import (
	"time"

	"assetwatch/internal/models"
)

// EventType tags a broadcast payload
type EventType string

const (
	EventMetricUpdate EventType = "metric_update"
	EventAlert        EventType = "alert"
	EventAlertUpdate  EventType = "alert_update"
	EventBatchUpdate  EventType = "batch_update"
)

// Event is the tagged payload fanned out to subscribers
type Event struct {
	Type EventType   `json:"type"`
	Data interface{} `json:"data"`
}

// MetricUpdate builds the event published for every ingested sample. The
// asset carries the freshly recomputed health score and status and prices
// the current-value field.
func MetricUpdate(sample *models.Sample, asset *models.Asset) Event {
	return Event{
		Type: EventMetricUpdate,
		Data: map[string]interface{}{
			"asset_id":      sample.AssetID,
			"metric_kind":   sample.Kind,
			"value":         sample.Value,
			"unit":          sample.Unit,
			"timestamp":     sample.Timestamp.Format(time.RFC3339),
			"health_score":  asset.HealthScore,
			"status":        asset.Status,
			"current_value": asset.CurrentValue(sample.Timestamp),
		},
	}
}

// AlertCreated builds the event published when an alert is created
func AlertCreated(alert *models.Alert, assetName string) Event {
	return Event{
		Type: EventAlert,
		Data: map[string]interface{}{
			"id":          alert.ID,
			"title":       alert.Title,
			"description": alert.Description,
			"severity":    alert.Severity,
			"asset_id":    alert.AssetID,
			"asset_name":  assetName,
			"timestamp":   alert.CreatedAt.Format(time.RFC3339),
		},
	}
}

// AlertUpdated builds the event published for a status transition
func AlertUpdated(alert *models.Alert) Event {
	data := map[string]interface{}{
		"id":     alert.ID,
		"status": alert.Status,
	}
	if alert.ResolvedAt != nil {
		data["resolved_at"] = alert.ResolvedAt.Format(time.RFC3339)
	}
	return Event{Type: EventAlertUpdate, Data: data}
}

// BatchUpdate builds the summary event published after a bulk operation
func BatchUpdate(operation string, count int) Event {
	return Event{
		Type: EventBatchUpdate,
		Data: map[string]interface{}{
			"operation": operation,
			"count":     count,
		},
	}
}
