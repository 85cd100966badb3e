package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assetwatch_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assetwatch_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint", "status"},
	)

	// Ingestion metrics
	SamplesIngestedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assetwatch_samples_ingested_total",
			Help: "Total number of metric samples ingested",
		},
		[]string{"metric_kind", "status"}, // status: ok, degraded, rejected, failed
	)

	IngestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "assetwatch_ingest_duration_seconds",
			Help:    "Time taken to run the full ingestion pipeline for one sample",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	IngestQueueSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "assetwatch_ingest_queue_size",
			Help: "Current size of the ingest queue",
		},
	)

	IngestQueueCapacity = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "assetwatch_ingest_queue_capacity",
			Help: "Capacity of the ingest queue",
		},
	)

	// Alert metrics
	AlertsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assetwatch_alerts_created_total",
			Help: "Total number of alerts created",
		},
		[]string{"severity"},
	)

	AlertTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assetwatch_alert_transitions_total",
			Help: "Total number of alert status transitions",
		},
		[]string{"to"},
	)

	// Health metrics
	AssetHealthScore = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "assetwatch_asset_health_score",
			Help: "Latest computed health score per asset",
		},
		[]string{"asset_id"},
	)

	MaintenanceAlertsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assetwatch_maintenance_alerts_total",
			Help: "Total number of maintenance alerts created by sweeps",
		},
	)

	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "assetwatch_sweep_duration_seconds",
			Help:    "Time taken by a maintenance sweep pass",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	// Notification metrics
	EventsBroadcastTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assetwatch_events_broadcast_total",
			Help: "Total number of events broadcast to subscribers",
		},
		[]string{"type"},
	)

	SubscribersConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "assetwatch_subscribers_connected",
			Help: "Current number of live subscribers",
		},
	)

	SubscribersDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assetwatch_subscribers_dropped_total",
			Help: "Total number of subscribers dropped on failed sends",
		},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assetwatch_emails_sent_total",
			Help: "Total number of alert emails attempted",
		},
		[]string{"status"}, // status: sent, failed, rejected
	)

	// Kafka sink metrics
	KafkaPublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assetwatch_kafka_publish_total",
			Help: "Total number of events published to Kafka",
		},
		[]string{"status"}, // status: success, failed
	)

	// Panic recovery
	PanicsRecovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assetwatch_panics_recovered_total",
			Help: "Total number of panics recovered",
		},
		[]string{"component"},
	)
)
