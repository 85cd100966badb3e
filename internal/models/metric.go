package models

import (
	"errors"
	"math"
	"strings"
	"time"
)

// MetricKind identifies the type of a time-series observation
type MetricKind string

const (
	MetricTemperature    MetricKind = "temperature"
	MetricVibration      MetricKind = "vibration"
	MetricPressure       MetricKind = "pressure"
	MetricVoltage        MetricKind = "voltage"
	MetricCurrent        MetricKind = "current"
	MetricStockPrice     MetricKind = "stock_price"
	MetricPortfolioValue MetricKind = "portfolio_value"
	MetricRiskScore      MetricKind = "risk_score"
)

// Sample is one immutable timestamped observation for an asset
type Sample struct {
	AssetID   string                 `json:"asset_id" bson:"asset_id"`
	Kind      MetricKind             `json:"metric_kind" bson:"metric_kind"`
	Value     float64                `json:"value" bson:"value"`
	Unit      string                 `json:"unit,omitempty" bson:"unit,omitempty"`
	Timestamp time.Time              `json:"timestamp" bson:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty" bson:"metadata,omitempty"`
}

// Validation errors
var (
	ErrEmptyAssetID     = errors.New("sample asset ID cannot be empty")
	ErrEmptyMetricKind  = errors.New("metric kind cannot be empty")
	ErrZeroTimestamp    = errors.New("timestamp cannot be zero")
	ErrFutureTimestamp  = errors.New("timestamp cannot be in the future")
	ErrInvalidTimestamp = errors.New("invalid timestamp format")
	ErrNonFiniteValue   = errors.New("value must be a finite number")
	ErrTooManyMetadata  = errors.New("too many metadata keys")
)

const MaxMetadataKeys = 50

// Validate checks if the Sample has all required fields and valid values
func (s *Sample) Validate() error {
	if s.AssetID == "" {
		return ErrEmptyAssetID
	}

	if s.Kind == "" {
		return ErrEmptyMetricKind
	}

	if s.Timestamp.IsZero() {
		return ErrZeroTimestamp
	}

	if s.Timestamp.After(time.Now().Add(time.Minute)) {
		return ErrFutureTimestamp
	}

	if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
		return ErrNonFiniteValue
	}

	if len(s.Metadata) > MaxMetadataKeys {
		return ErrTooManyMetadata
	}

	return nil
}

// Normalize applies field normalization to a Sample
// - trims and lower-cases the metric kind
// - trims the asset ID and unit
func (s *Sample) Normalize() {
	s.AssetID = strings.TrimSpace(s.AssetID)
	s.Kind = MetricKind(strings.ToLower(strings.TrimSpace(string(s.Kind))))
	s.Unit = strings.TrimSpace(s.Unit)
}

// SupportedTimestampFormats lists formats we attempt to parse
var SupportedTimestampFormats = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC1123,
	time.UnixDate,
}

// ParseTimestamp attempts to parse a timestamp string into time.Time
func ParseTimestamp(ts string) (time.Time, error) {
	ts = strings.TrimSpace(ts)

	for _, format := range SupportedTimestampFormats {
		if t, err := time.Parse(format, ts); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, ErrInvalidTimestamp
}
