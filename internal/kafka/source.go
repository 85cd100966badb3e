package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/segmentio/kafka-go"

	"assetwatch/internal/logger"
	"assetwatch/internal/models"
)

// SampleHandler processes one decoded metric sample
type SampleHandler func(ctx context.Context, sample *models.Sample) error

// SampleSource consumes metric samples from a Kafka topic and feeds them
// into the ingestion pipeline. Malformed messages are logged and skipped.
type SampleSource struct {
	reader  *kafka.Reader
	handler SampleHandler
}

// NewSampleSource creates a Kafka-backed sample source
func NewSampleSource(brokers []string, topic, groupID string, handler SampleHandler) *SampleSource {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10 * 1024 * 1024,
	})

	return &SampleSource{reader: reader, handler: handler}
}

// Run consumes messages until the context is cancelled
func (s *SampleSource) Run(ctx context.Context) error {
	log := logger.WithComponent("kafka_source")
	log.Info().Str("topic", s.reader.Config().Topic).Msg("sample source started")
	defer log.Info().Msg("sample source stopped")

	for {
		msg, err := s.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		var sample models.Sample
		if err := json.Unmarshal(msg.Value, &sample); err != nil {
			log.Warn().Err(err).Int64("offset", msg.Offset).Msg("skipping malformed sample")
			continue
		}

		if err := s.handler(ctx, &sample); err != nil {
			log.Error().Err(err).Str("asset_id", sample.AssetID).Msg("failed to ingest sample from kafka")
		}
	}
}

// Close closes the underlying reader
func (s *SampleSource) Close() error {
	return s.reader.Close()
}
