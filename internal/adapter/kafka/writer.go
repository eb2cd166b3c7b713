package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/weather-dashboard/internal/config"
	"github.com/couchcryptid/weather-dashboard/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes dashboard snapshots to a Kafka topic.
// It implements dashboard.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured snapshot topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes a dashboard and writes it to the topic. Snapshots for
// the same point share a key and land on the same partition.
func (w *Writer) Publish(ctx context.Context, d domain.Dashboard) error {
	msg, err := serializeToMessage(d)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish dashboard snapshot: %w", err)
	}
	w.logger.Debug("dashboard snapshot published", "key", string(msg.Key), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// snapshotKey identifies a point to four decimal places (about 11 m).
func snapshotKey(loc domain.Location) string {
	return fmt.Sprintf("%.4f,%.4f", loc.Lat, loc.Lon)
}

// serializeToMessage marshals a Dashboard into a Kafka message.
func serializeToMessage(d domain.Dashboard) (kafkago.Message, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize dashboard: %w", err)
	}
	category, err := d.Current.Condition.Category.MarshalText()
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize dashboard: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(snapshotKey(d.Location)),
		Value: data,
		Time:  d.GeneratedAt,
		Headers: []kafkago.Header{
			{Key: "category", Value: category},
			{Key: "aqi_status", Value: []byte(d.AirQuality.Status)},
			{Key: "generated_at", Value: []byte(d.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
