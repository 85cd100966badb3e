package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration for the monitor service.
type Config struct {
	HTTPAddr string
	LogLevel string

	// Storage backend: mongo or memory
	StorageBackend string
	MongoURI       string
	MongoDatabase  string

	Kafka KafkaConfig
	SMTP  SMTPConfig

	// Ingest pipeline
	IngestWorkers   int
	IngestQueueSize int

	// Maintenance sweep
	SweepInterval    time.Duration
	SweepHorizonDays int

	// Optional YAML file overriding the built-in threshold table
	ThresholdsFile string
}

// KafkaConfig configures the optional Kafka event sink and sample source.
type KafkaConfig struct {
	Enabled     bool
	Brokers     []string
	EventTopic  string
	SampleTopic string
	GroupID     string
}

// SMTPConfig configures the alert email notifier. Email is disabled when
// Host is empty.
type SMTPConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	From      string
	Recipient string
}

// Default returns a sensible default config for local dev.
func Default() *Config {
	return &Config{
		HTTPAddr:       ":8080",
		LogLevel:       "info",
		StorageBackend: "mongo",
		MongoURI:       "mongodb://localhost:27017",
		MongoDatabase:  "assetwatch",
		Kafka: KafkaConfig{
			Brokers:     []string{"localhost:9092"},
			EventTopic:  "assetwatch-events",
			SampleTopic: "assetwatch-samples",
			GroupID:     "assetwatch-monitor",
		},
		SMTP: SMTPConfig{
			Port:      587,
			Recipient: "admin@example.com",
		},
		IngestWorkers:    4,
		IngestQueueSize:  1000,
		SweepInterval:    time.Hour,
		SweepHorizonDays: 7,
	}
}

// FromEnv returns the default config with environment overrides applied.
func FromEnv() *Config {
	cfg := Default()

	setString(&cfg.HTTPAddr, "HTTP_ADDR")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.StorageBackend, "STORAGE_BACKEND")
	setString(&cfg.MongoURI, "MONGO_URI")
	setString(&cfg.MongoDatabase, "MONGO_DATABASE")
	setString(&cfg.ThresholdsFile, "THRESHOLDS_FILE")

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Enabled = true
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	setString(&cfg.Kafka.EventTopic, "KAFKA_EVENT_TOPIC")
	setString(&cfg.Kafka.SampleTopic, "KAFKA_SAMPLE_TOPIC")
	setString(&cfg.Kafka.GroupID, "KAFKA_GROUP_ID")

	setString(&cfg.SMTP.Host, "SMTP_HOST")
	setInt(&cfg.SMTP.Port, "SMTP_PORT")
	setString(&cfg.SMTP.User, "SMTP_USER")
	setString(&cfg.SMTP.Password, "SMTP_PASSWORD")
	setString(&cfg.SMTP.From, "SMTP_FROM")
	setString(&cfg.SMTP.Recipient, "ALERT_RECIPIENT")

	setInt(&cfg.IngestWorkers, "INGEST_WORKERS")
	setInt(&cfg.IngestQueueSize, "INGEST_QUEUE_SIZE")

	if v := os.Getenv("SWEEP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.SweepInterval = d
		}
	}
	setInt(&cfg.SweepHorizonDays, "SWEEP_HORIZON_DAYS")

	return cfg
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
