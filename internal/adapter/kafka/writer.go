package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/couchcryptid/fuel-stock-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes station records to a Kafka topic keyed by station ID, so a
// compacted topic holds the latest record per station.
// It implements pipeline.Sink.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the given brokers and topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Upsert publishes every record in a single WriteMessages call.
func (w *Writer) Upsert(ctx context.Context, records []domain.StationRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(records[i])
		if err != nil {
			return &domain.PersistenceError{Sink: "kafka", Err: err}
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return &domain.PersistenceError{Sink: "kafka", Err: err}
	}
	w.logger.Debug("station records published", "records", len(records), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a StationRecord into a Kafka message.
func serializeToMessage(rec domain.StationRecord) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize station record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(strconv.Itoa(rec.StationID)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "status", Value: []byte(rec.Status)},
			{Key: "measured_at", Value: []byte(rec.MeasuredAt)},
		},
	}, nil
}
