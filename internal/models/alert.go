package models

import (
	"fmt"
	"time"
)

// Severity represents alert severity levels, totally ordered low < medium
// < high < critical.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// IsValid checks if the severity level is valid
func (s Severity) IsValid() bool {
	_, ok := severityRank[s]
	return ok
}

// AtLeast reports whether s is at least as severe as other
func (s Severity) AtLeast(other Severity) bool {
	return severityRank[s] >= severityRank[other]
}

// HealthPenalty returns the health-score penalty one active alert of this
// severity contributes inside the scoring window.
func (s Severity) HealthPenalty() float64 {
	switch s {
	case SeverityCritical:
		return 20
	case SeverityHigh:
		return 10
	case SeverityMedium:
		return 5
	case SeverityLow:
		return 2
	default:
		return 0
	}
}

// AlertStatus is the lifecycle state of an alert
type AlertStatus string

const (
	AlertOpen         AlertStatus = "open"
	AlertAcknowledged AlertStatus = "acknowledged"
	AlertResolved     AlertStatus = "resolved"
	AlertClosed       AlertStatus = "closed"
)

// alertTransitions is the closed transition table; anything outside it is
// rejected rather than silently written.
var alertTransitions = map[AlertStatus][]AlertStatus{
	AlertOpen:         {AlertAcknowledged, AlertResolved, AlertClosed},
	AlertAcknowledged: {AlertResolved, AlertClosed},
}

// CanTransition reports whether the status may move to next
func (s AlertStatus) CanTransition(next AlertStatus) bool {
	for _, allowed := range alertTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Active reports whether the alert still counts against health scoring
func (s AlertStatus) Active() bool {
	return s == AlertOpen || s == AlertAcknowledged
}

// Terminal reports whether the status is final
func (s AlertStatus) Terminal() bool {
	return s == AlertResolved || s == AlertClosed
}

// InvalidTransitionError is returned when a lifecycle operation would move
// an alert outside the transition table.
type InvalidTransitionError struct {
	From AlertStatus
	To   AlertStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid alert transition %s -> %s", e.From, e.To)
}

// Alert is a persisted record of a breach or maintenance condition.
// MetricKind is empty for maintenance alerts. ResolvedAt/ResolvedBy are set
// only by the resolve transition.
type Alert struct {
	ID          string      `json:"id" bson:"_id"`
	AssetID     string      `json:"asset_id,omitempty" bson:"asset_id,omitempty"`
	Title       string      `json:"title" bson:"title"`
	Description string      `json:"description,omitempty" bson:"description,omitempty"`
	Severity    Severity    `json:"severity" bson:"severity"`
	Status      AlertStatus `json:"status" bson:"status"`

	// Breach data, present when derived from a metric sample
	MetricKind     MetricKind `json:"metric_kind,omitempty" bson:"metric_kind,omitempty"`
	ThresholdValue *float64   `json:"threshold_value,omitempty" bson:"threshold_value,omitempty"`
	ActualValue    *float64   `json:"actual_value,omitempty" bson:"actual_value,omitempty"`

	// Resolution metadata
	ResolvedAt      *time.Time `json:"resolved_at,omitempty" bson:"resolved_at,omitempty"`
	ResolvedBy      string     `json:"resolved_by,omitempty" bson:"resolved_by,omitempty"`
	ResolutionNotes string     `json:"resolution_notes,omitempty" bson:"resolution_notes,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// IsMaintenance reports whether the alert was synthesized by a maintenance
// sweep rather than a metric breach.
func (a *Alert) IsMaintenance() bool {
	return a.MetricKind == ""
}
